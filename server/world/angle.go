// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Angle is a rotation about the Y axis in radians.
type Angle float32

const Pi = Angle(math32.Pi)

func ToAngle(f float32) Angle {
	return Angle(f).Normalize()
}

// Vec2f is the unit vector on the ground plane pointing at angle.
func (angle Angle) Vec2f() Vec2f {
	sin, cos := math32.Sincos(float32(angle))
	return Vec2f{
		X: cos,
		Z: sin,
	}
}

// Normalize wraps angle into [0, 2Pi).
func (angle Angle) Normalize() Angle {
	const mod = Angle(math32.Pi * 2)
	if angle >= mod || angle < 0 {
		angle = Angle(math32.Mod(float32(angle), float32(mod)))
		if angle < 0 {
			angle += mod
		}
	}
	return angle
}

func (angle Angle) Float() float32 {
	return float32(angle)
}

func (angle Angle) String() string {
	return fmt.Sprintf("%.01f degrees", float32(angle)*180/math32.Pi)
}
