// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package asset

import (
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/SoftbearStudios/realmwalk/server/world/seed"
	"github.com/chewxy/math32"
)

// Placeholders are low detail on purpose.
const (
	coneSegments = 8
	domeSegments = 8
	domeRings    = 3
)

// Synthesize builds the placeholder template of kind from its static data
// alone, so two failed loads of a kind yield identical placeholders.
func Synthesize(kind world.AssetKind) *Template {
	data := kind.Data()
	radius, height := data.Radius, data.Height
	if radius <= 0 {
		radius = 0.5
	}
	if height <= 0 {
		height = 1
	}

	t := &Template{
		Name:     kind.String(),
		Shape:    data.Shape,
		Color:    placeholderColor(kind),
		Fallback: true,
	}

	switch data.Shape {
	case "cone":
		t.Vertices, t.Indices = cone(radius, height)
	case "dome":
		t.Vertices, t.Indices = dome(radius, height)
	default:
		t.Shape = "box"
		t.Vertices, t.Indices = box(radius, height)
	}
	return t
}

// placeholderColor washes out the kind's color so placeholders are
// recognizable, with a small tint seeded by name so neighbors differ.
func placeholderColor(kind world.AssetKind) [3]float32 {
	s := seed.String(kind.String())
	color := kind.Data().Color
	for i := range color {
		color[i] = world.Lerp(color[i], 0.75, 0.4) + seed.Range(s, uint32(i), -0.05, 0.05)
		color[i] = math32.Max(0, math32.Min(1, color[i]))
	}
	return color
}

func ring(vertices []float32, segments int, r, y float32) []float32 {
	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		vertices = append(vertices, positiveZero(math32.Cos(a)*r), y, positiveZero(math32.Sin(a)*r))
	}
	return vertices
}

// positiveZero turns -0 into 0, which encodes the same as it decodes.
func positiveZero(v float32) float32 {
	if v == 0 {
		return 0
	}
	return v
}

func cone(r, h float32) ([]float32, []uint16) {
	// 0 is the apex, 1 the base center, then the base ring
	vertices := []float32{0, h, 0, 0, 0, 0}
	vertices = ring(vertices, coneSegments, r, 0)

	indices := make([]uint16, 0, coneSegments*6)
	for i := 0; i < coneSegments; i++ {
		a := uint16(2 + i)
		b := uint16(2 + (i+1)%coneSegments)
		indices = append(indices, 0, b, a, 1, a, b)
	}
	return vertices, indices
}

func dome(r, h float32) ([]float32, []uint16) {
	// Rings from the base up, then the top
	vertices := make([]float32, 0, (domeRings*domeSegments+1)*3)
	for j := 0; j < domeRings; j++ {
		phi := float32(j) / domeRings * math32.Pi / 2
		vertices = ring(vertices, domeSegments, math32.Cos(phi)*r, math32.Sin(phi)*h)
	}
	top := uint16(domeRings * domeSegments)
	vertices = append(vertices, 0, h, 0)

	var indices []uint16
	for j := 0; j < domeRings-1; j++ {
		for i := 0; i < domeSegments; i++ {
			a := uint16(j*domeSegments + i)
			b := uint16(j*domeSegments + (i+1)%domeSegments)
			indices = append(indices, a, b, a+domeSegments, b, b+domeSegments, a+domeSegments)
		}
	}
	last := uint16((domeRings - 1) * domeSegments)
	for i := 0; i < domeSegments; i++ {
		indices = append(indices, last+uint16(i), last+uint16((i+1)%domeSegments), top)
	}
	return vertices, indices
}

func box(r, h float32) ([]float32, []uint16) {
	vertices := make([]float32, 0, 8*3)
	for _, y := range []float32{0, h} {
		vertices = append(vertices, -r, y, -r, r, y, -r, r, y, r, -r, y, r)
	}
	indices := []uint16{
		0, 2, 1, 0, 3, 2, // bottom
		4, 5, 6, 4, 6, 7, // top
		0, 1, 5, 0, 5, 4,
		1, 2, 6, 1, 6, 5,
		2, 3, 7, 2, 7, 6,
		3, 0, 4, 3, 4, 7,
	}
	return vertices, indices
}
