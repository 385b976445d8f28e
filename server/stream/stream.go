// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/SoftbearStudios/realmwalk/server/world/index"
)

// Config of a Streamer. Distances are in world units, measured on the
// ground plane from the viewpoint to chunk centers.
type Config struct {
	ChunkSize    float64
	RenderRadius float64
	// CleanupRadius is where active chunks are destroyed. It must exceed the
	// indexer's reach so a chunk can never be desired and doomed at once.
	CleanupRadius float64
	CullFactor    float64
	ForwardBias   float64
	// Strict turns bookkeeping violations into panics instead of no-ops.
	Strict bool
}

func (config Config) Index() index.Config {
	return index.Config{
		ChunkSize:    config.ChunkSize,
		RenderRadius: config.RenderRadius,
		CullFactor:   config.CullFactor,
		ForwardBias:  config.ForwardBias,
	}
}

// Validate reports a radius configuration that would thrash, wrapping
// index.ErrRadius.
func (config Config) Validate() error {
	_, err := config.indexer()
	return err
}

func (config Config) indexer() (*index.Indexer, error) {
	indexer, err := index.New(config.Index())
	if err != nil {
		return nil, err
	}
	if !(config.CleanupRadius > indexer.Reach()) {
		return nil, fmt.Errorf("%w: cleanup radius %g must exceed reach %g", index.ErrRadius, config.CleanupRadius, indexer.Reach())
	}
	return indexer, nil
}

// Placer computes the content of a new chunk.
type Placer interface {
	Place(chunk *world.Chunk) ([]world.PlacedInstance, error)
}

// Surveyor is optionally implemented by a Placer to fill in terrain features
// before Place.
type Surveyor interface {
	Survey(chunk *world.Chunk)
}

// PlacerFunc adapts a function to Placer.
type PlacerFunc func(chunk *world.Chunk) ([]world.PlacedInstance, error)

func (f PlacerFunc) Place(chunk *world.Chunk) ([]world.PlacedInstance, error) {
	return f(chunk)
}

type Stats struct {
	Active    int `json:"active"`
	Ticks     int `json:"ticks"`
	Created   int `json:"created"`
	Destroyed int `json:"destroyed"`
	Failures  int `json:"failures"`
	Instances int `json:"instances"`
}

type active struct {
	chunk   *world.Chunk
	handles []*asset.Handle // handles[i] belongs to chunk.Instances[i]
}

// Streamer owns the active chunks around one viewpoint. Tick must only be
// called from one goroutine at a time; the read methods may be called
// concurrently with it.
type Streamer struct {
	config  Config
	indexer *index.Indexer
	placer  Placer
	cache   *asset.Cache

	mu      sync.RWMutex
	chunks  map[world.ChunkCoord]*active
	stats   Stats
	ticking atomic.Bool
	clamped bool // viewpoint was past the edge of the grid last Tick

	desired []world.ChunkCoord // reused by Tick
}

// New returns a fatal configuration error if the radii would thrash.
func New(config Config, placer Placer, cache *asset.Cache) (*Streamer, error) {
	if placer == nil {
		return nil, errors.New("stream: nil placer")
	}
	if cache == nil {
		return nil, errors.New("stream: nil cache")
	}

	indexer, err := config.indexer()
	if err != nil {
		return nil, err
	}

	return &Streamer{
		config:  config,
		indexer: indexer,
		placer:  placer,
		cache:   cache,
		chunks:  make(map[world.ChunkCoord]*active),
		desired: make([]world.ChunkCoord, 0, indexer.MaxChunks()),
	}, nil
}

func (s *Streamer) Config() Config {
	return s.config
}

func (s *Streamer) Indexer() *index.Indexer {
	return s.indexer
}

// MaxActive bounds Len after every Tick: active chunks all have centers
// within the cleanup radius of the viewpoint.
func (s *Streamer) MaxActive() int {
	return index.SquareBound(s.config.CleanupRadius, s.config.ChunkSize)
}

// Tick moves the viewpoint. It applies finished asset loads, creates every
// desired chunk that is not active and destroys active chunks beyond the
// cleanup radius. A viewpoint past the edge of the chunk grid streams as if
// it were at the edge. It panics if called while another Tick is running.
func (s *Streamer) Tick(viewpoint world.Vec3f) (delta Delta) {
	if !s.ticking.CompareAndSwap(false, true) {
		panic("stream: reentrant Tick")
	}
	defer s.ticking.Store(false)

	viewpoint, inRange := s.indexer.Clamp(viewpoint)
	if !inRange && !s.clamped {
		coord := world.CoordOf(float64(viewpoint.X), float64(viewpoint.Z), s.config.ChunkSize)
		delta.Diagnostics = append(delta.Diagnostics, Diagnostic{Coord: &coord, Err: index.ErrRange})
	}
	s.clamped = !inRange

	for _, settled := range s.cache.Pump() {
		delta.Settled = append(delta.Settled, settled)
		if settled.Err != nil {
			delta.Diagnostics = append(delta.Diagnostics, Diagnostic{Kind: settled.Kind, Err: settled.Err})
		}
	}

	s.desired = s.indexer.AppendDesired(s.desired[:0], viewpoint)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, coord := range s.desired {
		if _, ok := s.chunks[coord]; ok {
			continue
		}
		a, err := s.create(coord)
		if err != nil {
			c := coord
			delta.Diagnostics = append(delta.Diagnostics, Diagnostic{Coord: &c, Err: err})
		}
		s.chunks[coord] = a
		delta.Created = append(delta.Created, a.chunk)
	}

	for coord := range s.chunks {
		if index.Distance(viewpoint, coord, s.config.ChunkSize) > s.config.CleanupRadius && !s.isDesired(coord) {
			delta.Destroyed = append(delta.Destroyed, coord)
		}
	}
	sort.Slice(delta.Destroyed, func(i, j int) bool {
		return delta.Destroyed[i].Less(delta.Destroyed[j])
	})
	for _, coord := range delta.Destroyed {
		s.destroy(coord)
	}

	s.stats.Ticks++
	return
}

func (s *Streamer) isDesired(coord world.ChunkCoord) bool {
	i := sort.Search(len(s.desired), func(i int) bool {
		return !s.desired[i].Less(coord)
	})
	return i < len(s.desired) && s.desired[i] == coord
}

// create makes the chunk at coord. A placement error still yields an active
// chunk, with no instances, so it is not retried every tick.
func (s *Streamer) create(coord world.ChunkCoord) (*active, error) {
	chunk := world.NewChunk(coord, float32(s.config.ChunkSize))
	chunk.SetState(world.ChunkActive)

	instances, err := s.place(chunk)
	if err != nil {
		instances = nil
		s.stats.Failures++
	}
	chunk.Adopt(instances)

	a := &active{chunk: chunk, handles: make([]*asset.Handle, len(instances))}
	for i := range instances {
		a.handles[i] = s.cache.Request(instances[i].Kind)
	}

	s.stats.Created++
	s.stats.Instances += len(instances)
	return a, err
}

func (s *Streamer) place(chunk *world.Chunk) (instances []world.PlacedInstance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("placer panic: %v", r)
		}
	}()

	if surveyor, ok := s.placer.(Surveyor); ok {
		surveyor.Survey(chunk)
	}
	return s.placer.Place(chunk)
}

// destroy releases the chunk's asset references. Must hold s.mu.
func (s *Streamer) destroy(coord world.ChunkCoord) bool {
	a, ok := s.chunks[coord]
	if !ok || a.chunk.State() != world.ChunkActive {
		if s.config.Strict {
			panic(fmt.Sprintf("stream: destroy of inactive chunk %s", coord))
		}
		return false
	}

	for _, h := range a.handles {
		s.cache.Release(h)
	}
	a.handles = nil
	a.chunk.SetState(world.ChunkDestroyed)
	delete(s.chunks, coord)

	s.stats.Destroyed++
	s.stats.Instances -= len(a.chunk.Instances)
	return true
}

// Destroy forcibly removes an active chunk. If it is still desired it is
// created again by the next Tick, with identical content. Destroying a chunk
// that is not active is a bookkeeping error (see Config.Strict).
func (s *Streamer) Destroy(coord world.ChunkCoord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroy(coord)
}

// Reset destroys every chunk, returning their coordinates in order.
func (s *Streamer) Reset() []world.ChunkCoord {
	s.mu.Lock()
	defer s.mu.Unlock()

	coords := make([]world.ChunkCoord, 0, len(s.chunks))
	for coord := range s.chunks {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		return coords[i].Less(coords[j])
	})
	for _, coord := range coords {
		s.destroy(coord)
	}
	return coords
}

// Chunk returns the active chunk at coord, or nil.
func (s *Streamer) Chunk(coord world.ChunkCoord) *world.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.chunks[coord]; ok {
		return a.chunk
	}
	return nil
}

// Active returns the active chunks ordered by coordinate.
func (s *Streamer) Active() []*world.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]*world.Chunk, 0, len(s.chunks))
	for _, a := range s.chunks {
		chunks = append(chunks, a.chunk)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Coord.Less(chunks[j].Coord)
	})
	return chunks
}

func (s *Streamer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Instances returns a copy of the chunk's placed instances for rendering.
func (s *Streamer) Instances(chunk *world.Chunk) []world.PlacedInstance {
	instances := make([]world.PlacedInstance, len(chunk.Instances))
	copy(instances, chunk.Instances)
	return instances
}

// Resolve returns the shared asset handle of kind, or nil if no active
// chunk holds an instance of kind.
func (s *Streamer) Resolve(kind world.AssetKind) *asset.Handle {
	return s.cache.Peek(kind)
}

func (s *Streamer) Cache() *asset.Cache {
	return s.cache
}

func (s *Streamer) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Active = len(s.chunks)
	return stats
}
