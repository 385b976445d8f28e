// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PlacedInstance is one piece of generated content. It is owned by exactly
// one Chunk and never modified after placement.
type PlacedInstance struct {
	Kind     AssetKind `json:"kind"`
	Position Vec3f     `json:"position"` // Position is relative to the owner's Origin.
	Scale    float32   `json:"scale"`
	Rotation Angle     `json:"rotation"` // Rotation about Y.

	owner *Chunk // back reference for cleanup, not ownership
}

// Owner returns the chunk that placed the instance, or nil if not adopted.
func (instance *PlacedInstance) Owner() *Chunk {
	return instance.owner
}

// World returns the position in world space.
func (instance *PlacedInstance) World() Vec3f {
	if instance.owner == nil {
		return instance.Position
	}
	owner := instance.owner
	ground := owner.Coord.World(owner.Size, instance.Position.X, instance.Position.Z)
	return ground.Vec3f(instance.Position.Y)
}

// Footprint is the radius the instance occupies on the ground plane.
func (instance *PlacedInstance) Footprint() float32 {
	return instance.Kind.Data().Radius * instance.Scale
}

// Model is the model matrix (translate * rotate * scale) for a render layer.
func (instance *PlacedInstance) Model() mgl32.Mat4 {
	p := instance.World()
	translate := mgl32.Translate3D(p.X, p.Y, p.Z)
	rotate := mgl32.HomogRotate3DY(float32(instance.Rotation))
	scale := mgl32.Scale3D(instance.Scale, instance.Scale, instance.Scale)
	return translate.Mul4(rotate).Mul4(scale)
}
