// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

type ColorVec [3]float32

var colors = [...]ColorVec{
	RGB(40, 70, 40),
	RGB(90, 160, 60),
	RGB(120, 110, 90),
	RGB(105, 110, 115),
	Gray(230),
}

var pathColor = RGB(190, 170, 120)

// Render draws a top down map of chunks, pixelsPerMeter pixels per meter.
// Chunks without a heightmap are drawn at height 0.
func Render(chunks []*world.Chunk, pixelsPerMeter float32) image.Image {
	if len(chunks) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	minX, minZ := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxZ := -minX, -minZ
	for _, c := range chunks {
		minX = min(minX, c.Origin.X)
		minZ = min(minZ, c.Origin.Z)
		maxX = max(maxX, c.Origin.X+c.Size)
		maxZ = max(maxZ, c.Origin.Z+c.Size)
	}

	width := int((maxX - minX) * pixelsPerMeter)
	height := int((maxZ - minZ) * pixelsPerMeter)
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	toPixel := func(p world.Vec2f) (int, int) {
		return int((p.X - minX) * pixelsPerMeter), int((p.Z - minZ) * pixelsPerMeter)
	}

	for _, c := range chunks {
		x0, z0 := toPixel(c.Origin)
		span := int(c.Size * pixelsPerMeter)
		for j := 0; j < span; j++ {
			for i := 0; i < span; i++ {
				var h float32
				if c.Terrain != nil {
					res := c.Terrain.Resolution()
					h = c.Terrain.At(i*res/span, j*res/span)
				}
				img.Set(x0+i, z0+j, HeightColor(h).Color())
			}
		}

		for _, segment := range c.Path {
			drawSegment(img, toPixel, c.Origin, segment, pathColor.Color())
		}

		for i := range c.Instances {
			instance := &c.Instances[i]
			px, pz := toPixel(c.Origin.Add(instance.Position.Ground()))
			radius := int(instance.Footprint() * pixelsPerMeter)
			fillCircle(img, px, pz, radius, ColorVec(instance.Kind.Data().Color).Color())
		}
	}

	return img
}

// HeightColor maps a height in meters to a map color.
func HeightColor(h float32) ColorVec {
	switch {
	case h <= ValleyLevel:
		return colors[0]
	case h <= MeadowLevel:
		return colors[0].Lerp(colors[1], clamp((h-ValleyLevel)/(MeadowLevel-ValleyLevel)))
	case h <= RockLevel:
		return colors[1].Lerp(colors[2], clamp((h-MeadowLevel)*0.1))
	case h <= SnowLevel:
		return colors[2].Lerp(colors[3], clamp((h-RockLevel)*0.1))
	default:
		return colors[3].Lerp(colors[4], clamp((h-SnowLevel)*0.07))
	}
}

func drawSegment(img *image.RGBA, toPixel func(world.Vec2f) (int, int), origin world.Vec2f, segment world.PathSegment, c color.RGBA) {
	const steps = 32
	for s := 0; s <= steps; s++ {
		p := origin.Add(segment.Start.Add(segment.End.Sub(segment.Start).Mul(float32(s) / steps)))
		px, pz := toPixel(p)
		img.Set(px, pz, c)
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r < 1 {
		r = 1
	}
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				img.Set(cx+x, cy+y, c)
			}
		}
	}
}

func Gray(v byte) ColorVec {
	return RGB(v, v, v)
}

func RGB(r, g, b byte) ColorVec {
	const factor = 1.0 / 255
	return ColorVec{float32(r) * factor, float32(g) * factor, float32(b) * factor}
}

func (vec ColorVec) String() string {
	return fmt.Sprintf("vec4(%.3f, %.3f, %.3f, 1.0)", vec[0], vec[1], vec[2])
}

func (vec ColorVec) Lerp(other ColorVec, factor float32) ColorVec {
	for i := range vec {
		vec[i] = world.Lerp(vec[i], other[i], factor)
	}
	return vec
}

func (vec ColorVec) Color() color.RGBA {
	return color.RGBA{R: floatToByte(vec[0]), G: floatToByte(vec[1]), B: floatToByte(vec[2]), A: 255}
}

func clamp(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func floatToByte(f float32) byte {
	if f < 0 {
		return 0
	}
	if f > 1.0 {
		return 255
	}
	return byte(f * 255)
}
