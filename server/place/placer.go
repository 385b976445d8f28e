// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package place

import (
	"errors"

	"github.com/SoftbearStudios/realmwalk/server/terrain"
	"github.com/SoftbearStudios/realmwalk/server/terrain/compressed"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/SoftbearStudios/realmwalk/server/world/seed"
	"github.com/chewxy/math32"
)

// pathSamples is the number of path segments generated per chunk length.
const pathSamples = 8

// Placer deterministically fills chunks with content. It is read only after
// New, so one Placer can serve many goroutines.
type Placer struct {
	rules   Rules
	source  terrain.Source
	weights [world.CategoryCount][]float32
}

// New creates a Placer. A nil source means flat terrain.
func New(rules Rules, source terrain.Source) (*Placer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		source = terrain.Flat{}
	}

	p := &Placer{rules: rules, source: source}
	for c, rule := range rules.Categories {
		if rule != nil {
			p.weights[c] = rule.weights()
		}
	}
	return p, nil
}

func (p *Placer) Rules() *Rules {
	return &p.rules
}

func (p *Placer) Source() terrain.Source {
	return p.source
}

// Place returns the content of chunk. The result only depends on the chunk's
// seed, origin and size plus the Placer's rules and terrain, and is returned
// in placement order. Under-placement is not an error.
func (p *Placer) Place(chunk *world.Chunk) ([]world.PlacedInstance, error) {
	if chunk == nil {
		return nil, errors.New("place: nil chunk")
	}
	if !(chunk.Size > 0) {
		return nil, errors.New("place: chunk has no size")
	}

	instances := make([]world.PlacedInstance, 0, 16)
	owners := make([]*Rule, 0, 16) // rule of each accepted instance

	for _, category := range world.Categories() {
		rule := p.rules.Categories[category]
		if rule == nil {
			continue
		}

		s := seed.Sub(chunk.Seed, uint32(category))
		n := 1 + int(math32.Floor(seed.Range(s, 0, rule.CountMin, rule.CountMax)))

		// Each slot owns a disjoint run of indices: 0..3 for the accepted
		// instance's properties, then 2 per attempt for candidate positions.
		stride := uint32(4 + 2*rule.Attempts)

		for i := 0; i < n; i++ {
			base := 1 + uint32(i)*stride

			for a := 0; a < rule.Attempts; a++ {
				lx, lz := seed.Pair(s, base+4+uint32(a)*2, 0, chunk.Size)
				w := chunk.Coord.World(chunk.Size, lx, lz)
				wx, wz := w.X, w.Z

				if !p.admissible(rule, wx, wz) {
					continue
				}
				if !spaced(instances, owners, rule, lx, lz) {
					continue
				}

				choice := seed.Pick(s, base, p.weights[category])
				instances = append(instances, world.PlacedInstance{
					Kind:     rule.Kinds[choice].Kind,
					Position: world.Vec3f{X: lx, Y: p.source.Height(wx, wz), Z: lz},
					Scale:    seed.Range(s, base+1, rule.ScaleMin, rule.ScaleMax),
					Rotation: world.Angle(seed.Range(s, base+2, 0, 2*math32.Pi)),
				})
				owners = append(owners, rule)
				break
			}
		}
	}

	return instances, nil
}

// admissible applies the position predicates in order: path exclusion zone,
// valid coordinate range, spawn anchor clearance, then slope.
func (p *Placer) admissible(rule *Rule, wx, wz float32) bool {
	d := terrain.PathDistance(p.source, wx, wz)

	if rule.OnPath {
		if d > rule.Corridor {
			return false
		}
	} else if d < rule.Corridor {
		return false
	}

	if d < rule.OffsetMin || (rule.OffsetMax > 0 && d > rule.OffsetMax) {
		return false
	}

	if rule.AnchorClearance > 0 {
		pos := world.Vec2f{X: wx, Z: wz}
		c2 := rule.AnchorClearance * rule.AnchorClearance
		for _, anchor := range p.rules.Anchors {
			if pos.DistanceSquared(anchor) < c2 {
				return false
			}
		}
	}

	if rule.MaxSlope > 0 && terrain.Slope(p.source, wx, wz) > rule.MaxSlope {
		return false
	}

	return true
}

// spaced tests a candidate against every accepted instance. O(n^2) per chunk
// is fine for the tens of instances a chunk holds.
func spaced(instances []world.PlacedInstance, owners []*Rule, rule *Rule, lx, lz float32) bool {
	for i := range instances {
		d := minDistance(rule, owners[i])
		dx := instances[i].Position.X - lx
		dz := instances[i].Position.Z - lz
		if dx*dx+dz*dz < d*d {
			return false
		}
	}
	return true
}

// Survey fills in the terrain features of a new chunk: its heightmap and
// the path segments that cross it.
func (p *Placer) Survey(chunk *world.Chunk) {
	chunk.Terrain = compressed.Generate(p.source, chunk.Origin, chunk.Size)
	chunk.Path = p.path(chunk)
}

func (p *Placer) path(chunk *world.Chunk) []world.PathSegment {
	width := float32(terrain.PathWidth)
	if rule := p.rules.Categories[world.CategoryPathStone]; rule != nil {
		width = rule.Corridor * 2
	}

	var segments []world.PathSegment
	step := chunk.Size / pathSamples
	prev := world.Vec2f{X: p.source.PathX(chunk.Origin.Z) - chunk.Origin.X}

	for i := 1; i <= pathSamples; i++ {
		z := float32(i) * step
		next := world.Vec2f{X: p.source.PathX(chunk.Origin.Z+z) - chunk.Origin.X, Z: z}

		// Keep segments that are at least partly over the chunk
		lo, hi := math32.Min(prev.X, next.X), math32.Max(prev.X, next.X)
		if hi >= -width/2 && lo <= chunk.Size+width/2 {
			segments = append(segments, world.PathSegment{Start: prev, End: next, Width: width})
		}
		prev = next
	}

	return segments
}
