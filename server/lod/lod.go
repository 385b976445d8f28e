// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package lod

import (
	"errors"
	"fmt"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

// Tier is the level of detail an instance is drawn with.
type Tier uint8

const (
	Full Tier = iota
	Simplified
	Culled
)

var tierStrings = [...]string{
	Full:       "full",
	Simplified: "simplified",
	Culled:     "culled",
}

func (tier Tier) String() string {
	if int(tier) >= len(tierStrings) {
		return "invalid"
	}
	return tierStrings[tier]
}

func (tier Tier) MarshalText() ([]byte, error) {
	return []byte(tier.String()), nil
}

// Thresholds are the distances where Full ends and where Simplified ends.
type Thresholds struct {
	Full       float32 `yaml:"full"`
	Simplified float32 `yaml:"simplified"`
}

// Tag is what the render step needs to know about one instance.
type Tag struct {
	Tier       Tier    `json:"tier"`
	Distance   float32 `json:"distance"`
	CastShadow bool    `json:"castShadow"`
	Physics    bool    `json:"physics"`
	Animate    bool    `json:"animate"`
}

// Selector classifies by distance. The zero value is not valid, use New.
type Selector struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) (Selector, error) {
	if !(thresholds.Full > 0) || !(thresholds.Simplified > thresholds.Full) {
		return Selector{}, fmt.Errorf("lod thresholds need 0 < full < simplified, got %g, %g", thresholds.Full, thresholds.Simplified)
	}
	return Selector{thresholds: thresholds}, nil
}

func (s Selector) Thresholds() Thresholds {
	return s.thresholds
}

// Classify returns Full below the first threshold, Simplified below the
// second and Culled otherwise.
func (s Selector) Classify(distance float32) Tier {
	switch {
	case distance < s.thresholds.Full:
		return Full
	case distance < s.thresholds.Simplified:
		return Simplified
	default:
		return Culled
	}
}

// Tag classifies an adopted instance by its ground distance to viewpoint.
// Mountains are too big to disappear at the simplified range, so they are
// never culled and always cast shadows.
func (s Selector) Tag(viewpoint world.Vec3f, instance *world.PlacedInstance) Tag {
	if instance.Owner() == nil {
		panic(errors.New("lod: instance without owner chunk"))
	}

	d := viewpoint.Ground().Distance(instance.World().Ground())
	tag := Tag{Tier: s.Classify(d), Distance: d}

	large := instance.Kind.Category() == world.CategoryMountain
	if large && tag.Tier == Culled {
		tag.Tier = Simplified
	}

	tag.CastShadow = tag.Tier == Full || large
	tag.Physics = tag.Tier == Full
	tag.Animate = tag.Tier == Full && instance.Kind.Category() != world.CategoryRock && instance.Kind.Category() != world.CategoryPathStone
	return tag
}

// Counts tallies tiers, indexed by Tier.
type Counts [Culled + 1]int

// Count tags every instance of chunks into counts.
func (s Selector) Count(viewpoint world.Vec3f, chunks []*world.Chunk) (counts Counts) {
	for _, chunk := range chunks {
		for i := range chunk.Instances {
			counts[s.Tag(viewpoint, &chunk.Instances[i]).Tier]++
		}
	}
	return
}
