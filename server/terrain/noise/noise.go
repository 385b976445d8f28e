// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package noise

import (
	"github.com/SoftbearStudios/realmwalk/server/terrain"
	"github.com/aquilax/go-perlin"
)

const (
	frequency     = 0.01
	zoneFrequency = 0.0015
)

// Options tunes a Generator. Zero values are replaced by defaults.
type Options struct {
	Seed          int64   `yaml:"seed"`
	Relief        float32 `yaml:"relief"`         // Relief is the amplitude of hills in meters.
	PathAmplitude float32 `yaml:"path_amplitude"` // PathAmplitude is how far the path wanders from x = 0.
	PathFrequency float32 `yaml:"path_frequency"` // PathFrequency is wander cycles per meter of z.
	PathWidth     float32 `yaml:"path_width"`
}

func DefaultOptions() Options {
	return Options{
		Seed:          terrain.Seed,
		Relief:        12,
		PathAmplitude: 18,
		PathFrequency: 0.004,
		PathWidth:     terrain.PathWidth,
	}
}

// Generator implements terrain.Source with perlin noise. After New it is
// read only, so it can be shared between goroutines.
type Generator struct {
	// Ground heightmap noise
	hillsHi *perlin.Perlin // for smaller/higher frequency details
	hillsLo *perlin.Perlin // for larger/lower frequency details

	// Path centerline wander
	path *perlin.Perlin

	options Options
}

func NewDefault() *Generator {
	return New(DefaultOptions())
}

// New creates a new Generator.
func New(options Options) *Generator {
	defaults := DefaultOptions()
	if options.Relief == 0 {
		options.Relief = defaults.Relief
	}
	if options.PathFrequency == 0 {
		options.PathFrequency = defaults.PathFrequency
	}
	if options.PathWidth == 0 {
		options.PathWidth = defaults.PathWidth
	}

	seed := options.Seed
	return &Generator{
		hillsHi: perlin.NewPerlin(1.5, 2.0, 4, seed),
		hillsLo: perlin.NewPerlin(2.5, 3.0, 4, seed+1),
		path:    perlin.NewPerlin(2, 2.0, 3, seed+2),
		options: options,
	}
}

// PathX implements terrain.Source.PathX.
func (g *Generator) PathX(z float32) float32 {
	if g.options.PathAmplitude == 0 {
		return 0
	}
	return float32(g.path.Noise1D(float64(z*g.options.PathFrequency))) * 2 * g.options.PathAmplitude
}

// Height implements terrain.Source.Height.
func (g *Generator) Height(x, z float32) float32 {
	fx, fz := float64(x), float64(z)

	h := g.hillsHi.Noise2D(fx*frequency, fz*frequency) * float64(g.options.Relief)

	// Zone is very low frequency and raises whole regions into highlands
	zone := g.hillsLo.Noise2D(fx*zoneFrequency, fz*zoneFrequency)*2.0 + 0.4
	zone = clamp(zone, 0, 1)
	h += zone * float64(g.options.Relief) * 1.5

	// Flatten the ground under and beside the path so it stays walkable
	distance := terrain.PathDistance(g, x, z)
	shoulder := g.options.PathWidth * 2
	if distance < shoulder {
		t := float64(distance / shoulder)
		h *= t * t
	}

	return float32(h)
}

func clamp(f, min, max float64) float64 {
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}
