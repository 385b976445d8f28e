// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/SoftbearStudios/realmwalk/server/terrain"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

// maxCoordinate keeps the viewpoint well inside the range of chunk coordinates.
const maxCoordinate = 1e9

// Walker is the viewpoint. It follows the traversal path toward +Z while
// Speed is nonzero, and stays on the ground.
type Walker struct {
	Source   terrain.Source
	Position world.Vec3f
	Speed    float32 // meters per second
}

// Step advances the walker by seconds and returns its new position.
func (w *Walker) Step(seconds float32) world.Vec3f {
	source := w.Source
	if source == nil {
		source = terrain.Flat{}
	}

	if w.Speed != 0 {
		w.Position.Z = clamp(w.Position.Z+w.Speed*seconds, -maxCoordinate, maxCoordinate)
		w.Position.X = source.PathX(w.Position.Z)
	}
	w.Position.Y = source.Height(w.Position.X, w.Position.Z)
	return w.Position
}

func clamp(val, minimum, maximum float32) float32 {
	if val < minimum {
		return minimum
	}
	if val > maximum {
		return maximum
	}
	return val
}
