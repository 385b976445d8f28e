// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/SoftbearStudios/realmwalk/server/world/seed"
)

// ChunkCoord identifies a cell of the infinite chunk grid.
type ChunkCoord struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// CoordOf returns the coordinate of the chunk containing a ground position.
// Positions past the edge of the grid saturate to the outermost chunk.
func CoordOf(x, z float64, chunkSize float64) ChunkCoord {
	return ChunkCoord{
		X: floorCoord(x / chunkSize),
		Z: floorCoord(z / chunkSize),
	}
}

func floorCoord(v float64) int32 {
	f := math.Floor(v)
	switch {
	case f != f:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// Origin is the minimum corner of the chunk in world space.
func (coord ChunkCoord) Origin(chunkSize float32) Vec2f {
	return coord.World(chunkSize, 0, 0)
}

// World converts a chunk local ground position to world space, rounding to
// float32 once so distant chunks sample the nearest representable point.
func (coord ChunkCoord) World(chunkSize, lx, lz float32) Vec2f {
	return Vec2f{
		X: float32(float64(coord.X)*float64(chunkSize) + float64(lx)),
		Z: float32(float64(coord.Z)*float64(chunkSize) + float64(lz)),
	}
}

// Center returns the middle of the chunk in float64 so very distant chunks
// still get exact distances.
func (coord ChunkCoord) Center(chunkSize float64) (x, z float64) {
	x = (float64(coord.X) + 0.5) * chunkSize
	z = (float64(coord.Z) + 0.5) * chunkSize
	return
}

// Seed of the chunk, a pure function of coord.
func (coord ChunkCoord) Seed() seed.Seed {
	return seed.Of(coord.X, coord.Z)
}

// Less orders coordinates by z then x.
func (coord ChunkCoord) Less(other ChunkCoord) bool {
	if coord.Z != other.Z {
		return coord.Z < other.Z
	}
	return coord.X < other.X
}

func (coord ChunkCoord) AppendText(buf []byte) []byte {
	buf = strconv.AppendInt(buf, int64(coord.X), 10)
	buf = append(buf, ',')
	return strconv.AppendInt(buf, int64(coord.Z), 10)
}

func (coord ChunkCoord) String() string {
	return string(coord.AppendText(nil))
}

func ParseChunkCoord(s string) (ChunkCoord, error) {
	comma := strings.IndexByte(s, ',')
	if comma == -1 {
		return ChunkCoord{}, errors.New("invalid chunk coordinate: " + s)
	}
	x, err := strconv.ParseInt(s[:comma], 10, 32)
	if err != nil {
		return ChunkCoord{}, err
	}
	z, err := strconv.ParseInt(s[comma+1:], 10, 32)
	if err != nil {
		return ChunkCoord{}, err
	}
	return ChunkCoord{X: int32(x), Z: int32(z)}, nil
}

// ChunkState is the lifecycle of one chunk object. Absent chunks have no object.
type ChunkState uint8

const (
	ChunkActive ChunkState = iota + 1
	ChunkDestroyed
)

func (state ChunkState) String() string {
	switch state {
	case ChunkActive:
		return "active"
	case ChunkDestroyed:
		return "destroyed"
	default:
		return "absent"
	}
}

// Heightmap is a coarse terrain sample grid covering one chunk.
type Heightmap interface {
	// Resolution is the number of samples per side.
	Resolution() int
	// At returns the height in meters of sample (i, j), i along x.
	At(i, j int) float32
}

// PathSegment is a piece of the traversal path, in chunk local space.
type PathSegment struct {
	Start Vec2f   `json:"start"`
	End   Vec2f   `json:"end"`
	Width float32 `json:"width"`
}

// Chunk is one streamed cell. Content is computed once when the chunk is
// created and never changes while it is active.
type Chunk struct {
	Coord     ChunkCoord       `json:"coord"`
	Origin    Vec2f            `json:"origin"`
	Size      float32          `json:"size"`
	Seed      seed.Seed        `json:"seed"`
	Instances []PlacedInstance `json:"instances"`
	Path      []PathSegment    `json:"path,omitempty"`
	Terrain   Heightmap        `json:"-"`

	state atomic.Uint32 // ChunkState, read by render goroutines while the streamer ticks
}

// NewChunk derives an empty chunk (no content yet) for coord.
func NewChunk(coord ChunkCoord, chunkSize float32) *Chunk {
	return &Chunk{
		Coord:  coord,
		Origin: coord.Origin(chunkSize),
		Size:   chunkSize,
		Seed:   coord.Seed(),
	}
}

// State may be read from any goroutine.
func (c *Chunk) State() ChunkState {
	return ChunkState(c.state.Load())
}

func (c *Chunk) SetState(state ChunkState) {
	c.state.Store(uint32(state))
}

// Adopt sets the owner back-reference of every instance to c.
func (c *Chunk) Adopt(instances []PlacedInstance) {
	for i := range instances {
		instances[i].owner = c
	}
	c.Instances = instances
}
