// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"github.com/chewxy/math32"
)

/*
	List of curated seeds:
		56 (gentle valley, good for the verdant realm)
		1337 (steep, good for the ember realm)
*/

const (
	// Seed default seed.
	Seed = int64(56)
	// PathWidth default width of the traversal path in meters.
	PathWidth = 6
)

// Source samples the terrain of the world. Implementations must be pure
// functions of their inputs so chunks regenerate identically, and safe to
// call from multiple goroutines.
type Source interface {
	// Height returns the ground height in meters at a point in world space.
	Height(x, z float32) float32
	// PathX returns the x coordinate of the traversal path centerline at z.
	PathX(z float32) float32
}

// Flat is a Source with no relief and a straight path along x = 0.
type Flat struct{}

func (Flat) Height(x, z float32) float32 {
	return 0
}

func (Flat) PathX(z float32) float32 {
	return 0
}

// slopeStep is the half distance between slope samples in meters.
const slopeStep = 1

// Slope returns the steepest incline at a point in degrees, estimated with
// central differences.
func Slope(source Source, x, z float32) float32 {
	dx := (source.Height(x+slopeStep, z) - source.Height(x-slopeStep, z)) * (0.5 / slopeStep)
	dz := (source.Height(x, z+slopeStep) - source.Height(x, z-slopeStep)) * (0.5 / slopeStep)
	return math32.Atan(math32.Hypot(dx, dz)) * (180 / math32.Pi)
}

// PathDistance is the horizontal distance from x to the path centerline at z.
func PathDistance(source Source, x, z float32) float32 {
	return math32.Abs(x - source.PathX(z))
}
