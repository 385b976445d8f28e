// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"math"

	"github.com/chewxy/math32"
)

// Vec2f is a point on the ground plane. Y is up in world space so the
// second component is Z.
type Vec2f struct {
	X float32 `json:"x"`
	Z float32 `json:"z"`
}

// Vec3f is a point in world space, Y up.
type Vec3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (vec Vec2f) Mul(factor float32) Vec2f {
	vec.X *= factor
	vec.Z *= factor
	return vec
}

func (vec Vec2f) Add(otherVec Vec2f) Vec2f {
	vec.X += otherVec.X
	vec.Z += otherVec.Z
	return vec
}

func (vec Vec2f) Sub(otherVec Vec2f) Vec2f {
	vec.X -= otherVec.X
	vec.Z -= otherVec.Z
	return vec
}

func (vec Vec2f) Distance(otherVec Vec2f) float32 {
	return vec.Sub(otherVec).Length()
}

func (vec Vec2f) DistanceSquared(otherVec Vec2f) float32 {
	x := vec.X - otherVec.X
	z := vec.Z - otherVec.Z
	return x*x + z*z
}

func (vec Vec2f) Length() float32 {
	return math32.Hypot(vec.X, vec.Z)
}

func (vec Vec2f) Floor() Vec2f {
	// Use math.Floor instead because it uses assembly
	vec.X = float32(math.Floor(float64(vec.X)))
	vec.Z = float32(math.Floor(float64(vec.Z)))
	return vec
}

// Vec3f lifts vec to height y.
func (vec Vec2f) Vec3f(y float32) Vec3f {
	return Vec3f{X: vec.X, Y: y, Z: vec.Z}
}

func (vec Vec3f) Add(otherVec Vec3f) Vec3f {
	vec.X += otherVec.X
	vec.Y += otherVec.Y
	vec.Z += otherVec.Z
	return vec
}

func (vec Vec3f) Sub(otherVec Vec3f) Vec3f {
	vec.X -= otherVec.X
	vec.Y -= otherVec.Y
	vec.Z -= otherVec.Z
	return vec
}

func (vec Vec3f) Length() float32 {
	return math32.Sqrt(vec.X*vec.X + vec.Y*vec.Y + vec.Z*vec.Z)
}

func (vec Vec3f) Distance(otherVec Vec3f) float32 {
	return vec.Sub(otherVec).Length()
}

// Ground drops the height component.
func (vec Vec3f) Ground() Vec2f {
	return Vec2f{X: vec.X, Z: vec.Z}
}

func Lerp(a, b, factor float32) float32 {
	return a + (b-a)*factor
}
