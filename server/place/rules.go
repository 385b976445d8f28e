// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package place

import (
	"errors"
	"fmt"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

// Weighted is one entry of a weighted kind table.
type Weighted struct {
	Kind   world.AssetKind
	Weight float32
}

// Rule governs where and what content of one category is placed.
type Rule struct {
	// Count range [min, max) fed to 1 + floor(range) to get the slot count.
	CountMin, CountMax float32
	// Spacing is the minimum distance between two instances of this category.
	Spacing float32
	// Footprint is the radius kept clear of other categories' footprints.
	Footprint float32
	// Attempts is the candidate budget per slot.
	Attempts int
	// Corridor is the half width of the path exclusion zone. Instances of
	// an OnPath category must lie inside it, all others outside it.
	Corridor float32
	OnPath   bool
	// OffsetMin and OffsetMax bound the distance from the path centerline
	// (the valid coordinate range of the category). Zero max means unbounded.
	OffsetMin, OffsetMax float32
	// AnchorClearance is the minimum distance to any reserved spawn anchor.
	AnchorClearance float32
	// MaxSlope in degrees, zero means any slope.
	MaxSlope float32
	// Scale range [min, max).
	ScaleMin, ScaleMax float32
	// Kinds to choose from, weights need not sum to 1.
	Kinds []Weighted
}

// Rules is the complete placement configuration of one realm, indexed by category.
type Rules struct {
	Realm      string
	Categories [world.CategoryCount]*Rule
	// Anchors are reserved spawn points in world space.
	Anchors []world.Vec2f
}

// maxAttempts bounds the per-slot retry budget.
const maxAttempts = 64

// Validate reports the first problem with the rules.
func (rules *Rules) Validate() error {
	found := false
	for c, rule := range rules.Categories {
		category := world.Category(c)
		if rule == nil {
			continue
		}
		if category == world.CategoryInvalid {
			return errors.New("rule for invalid category")
		}
		found = true

		if rule.CountMin < 0 || rule.CountMax < rule.CountMin {
			return fmt.Errorf("%s: invalid count range [%g, %g)", category, rule.CountMin, rule.CountMax)
		}
		if rule.Attempts < 1 || rule.Attempts > maxAttempts {
			return fmt.Errorf("%s: attempts must be in [1, %d]", category, maxAttempts)
		}
		if rule.Spacing < 0 || rule.Footprint < 0 || rule.Corridor < 0 || rule.AnchorClearance < 0 || rule.MaxSlope < 0 {
			return fmt.Errorf("%s: negative distance", category)
		}
		if rule.OffsetMax != 0 && rule.OffsetMax < rule.OffsetMin {
			return fmt.Errorf("%s: invalid offset range [%g, %g]", category, rule.OffsetMin, rule.OffsetMax)
		}
		if rule.ScaleMin <= 0 || rule.ScaleMax < rule.ScaleMin {
			return fmt.Errorf("%s: invalid scale range [%g, %g)", category, rule.ScaleMin, rule.ScaleMax)
		}
		if rule.OnPath && rule.Corridor == 0 {
			return fmt.Errorf("%s: on path requires a corridor", category)
		}

		var total float32
		for _, w := range rule.Kinds {
			if !w.Kind.Valid() {
				return fmt.Errorf("%s: invalid kind", category)
			}
			if w.Kind.Category() != category {
				return fmt.Errorf("%s: kind %s belongs to %s", category, w.Kind, w.Kind.Category())
			}
			if w.Weight < 0 {
				return fmt.Errorf("%s: negative weight for %s", category, w.Kind)
			}
			total += w.Weight
		}
		if total <= 0 {
			return fmt.Errorf("%s: no kind has positive weight", category)
		}
	}

	if !found {
		return errors.New("no placement rules")
	}
	return nil
}

// weights returns the weight column of rule.Kinds.
func (rule *Rule) weights() []float32 {
	weights := make([]float32, len(rule.Kinds))
	for i, w := range rule.Kinds {
		weights[i] = w.Weight
	}
	return weights
}

// minDistance is the closest two instances of the given rules may be.
func minDistance(a, b *Rule) float32 {
	if a == b {
		return a.Spacing
	}
	return a.Footprint + b.Footprint
}
