// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"errors"
	"fmt"
	"math"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

var (
	// ErrRadius is returned for a radius configuration that cannot stream.
	ErrRadius = errors.New("invalid radius")
	// ErrRange is reported for a viewpoint past the edge of the chunk grid.
	ErrRange = errors.New("viewpoint out of range")
)

// Config of an Indexer. Distances are in world units.
type Config struct {
	ChunkSize    float64
	RenderRadius float64
	// CullFactor scales RenderRadius for the distance filter. Zero means 1.
	CullFactor float64
	// ForwardBias shifts the query disk along +Z (the direction of travel)
	// by ForwardBias * RenderRadius, so more chunks exist ahead than behind.
	ForwardBias float64
}

// Indexer maps a viewpoint to the chunks that should exist around it. It
// holds no state besides its Config.
type Indexer struct {
	config Config
	radius float64 // RenderRadius * CullFactor
	shift  float64 // ForwardBias * RenderRadius
	limit  float32 // max abs viewpoint coordinate, see Clamp
}

func New(config Config) (*Indexer, error) {
	if config.CullFactor == 0 {
		config.CullFactor = 1
	}

	switch {
	case !(config.ChunkSize > 0):
		return nil, fmt.Errorf("%w: chunk size %g", ErrRadius, config.ChunkSize)
	case !(config.RenderRadius > 0):
		return nil, fmt.Errorf("%w: render radius %g", ErrRadius, config.RenderRadius)
	case !(config.CullFactor > 0):
		return nil, fmt.Errorf("%w: cull factor %g", ErrRadius, config.CullFactor)
	case !(config.ForwardBias >= 0) || config.ForwardBias >= config.CullFactor:
		// A bias past the disk radius would leave the viewpoint's own chunk out
		return nil, fmt.Errorf("%w: forward bias %g", ErrRadius, config.ForwardBias)
	}

	indexer := &Indexer{
		config: config,
		radius: config.RenderRadius * config.CullFactor,
		shift:  config.ForwardBias * config.RenderRadius,
	}

	// Keep the whole query square inside the int32 grid
	margin := math.Ceil((indexer.radius+indexer.shift)/config.ChunkSize) + 1
	limit := (math.MaxInt32 - margin) * config.ChunkSize
	indexer.limit = float32(limit)
	if float64(indexer.limit) > limit {
		indexer.limit = math.Nextafter32(indexer.limit, 0)
	}
	if !(indexer.limit > 0) {
		return nil, fmt.Errorf("%w: render radius %g spans the whole grid", ErrRadius, config.RenderRadius)
	}

	return indexer, nil
}

func (indexer *Indexer) Config() Config {
	return indexer.config
}

// Reach is the furthest a desired chunk's center can be from the viewpoint.
func (indexer *Indexer) Reach() float64 {
	return indexer.radius + indexer.shift
}

// MaxChunks bounds len(Desired(v)) for every v.
func (indexer *Indexer) MaxChunks() int {
	return SquareBound(indexer.radius, indexer.config.ChunkSize)
}

// SquareBound is the most chunk centers a disk of radius can hold: a
// closed interval of length 2 * radius contains at most floor(2 * radius /
// chunkSize) + 1 centers per axis.
func SquareBound(radius, chunkSize float64) int {
	n := int(math.Floor(2*radius/chunkSize)) + 1
	return n * n
}

// Limit is the largest absolute viewpoint coordinate that is streamed as is.
func (indexer *Indexer) Limit() float32 {
	return indexer.limit
}

// Clamp moves a viewpoint past the edge of the chunk grid back to the edge,
// and a NaN coordinate to 0. ok is false if it had to.
func (indexer *Indexer) Clamp(viewpoint world.Vec3f) (clamped world.Vec3f, ok bool) {
	clamped = viewpoint
	ok = true
	for _, c := range []*float32{&clamped.X, &clamped.Z} {
		switch v := *c; {
		case v != v:
			*c = 0
		case v > indexer.limit:
			*c = indexer.limit
		case v < -indexer.limit:
			*c = -indexer.limit
		default:
			continue
		}
		ok = false
	}
	return
}

// Desired returns the coordinates of the chunks whose centers lie within
// RenderRadius * CullFactor of the (forward shifted) viewpoint, ordered by
// ChunkCoord.Less. The result only depends on the viewpoint and Config.
// The viewpoint is clamped first, so the result is never empty.
func (indexer *Indexer) Desired(viewpoint world.Vec3f) []world.ChunkCoord {
	return indexer.AppendDesired(make([]world.ChunkCoord, 0, indexer.MaxChunks()), viewpoint)
}

// AppendDesired is Desired but appends to buf.
func (indexer *Indexer) AppendDesired(buf []world.ChunkCoord, viewpoint world.Vec3f) []world.ChunkCoord {
	size := indexer.config.ChunkSize
	r := indexer.radius
	r2 := r * r

	viewpoint, _ = indexer.Clamp(viewpoint)

	// Float64 so chunk centers stay exact far from the origin
	x := float64(viewpoint.X)
	z := float64(viewpoint.Z) + indexer.shift

	lo := world.CoordOf(x-r, z-r, size)
	hi := world.CoordOf(x+r, z+r, size)

	// Iterate z in outer so the output is already sorted
	// Int64 so the loops end even at the edge of the grid
	for cz := int64(lo.Z); cz <= int64(hi.Z); cz++ {
		for cx := int64(lo.X); cx <= int64(hi.X); cx++ {
			coord := world.ChunkCoord{X: int32(cx), Z: int32(cz)}
			centerX, centerZ := coord.Center(size)
			dx, dz := centerX-x, centerZ-z
			if dx*dx+dz*dz <= r2 {
				buf = append(buf, coord)
			}
		}
	}

	return buf
}

// Distance from a viewpoint to the center of a chunk on the ground plane.
func Distance(viewpoint world.Vec3f, coord world.ChunkCoord, chunkSize float64) float64 {
	centerX, centerZ := coord.Center(chunkSize)
	return math.Hypot(centerX-float64(viewpoint.X), centerZ-float64(viewpoint.Z))
}
