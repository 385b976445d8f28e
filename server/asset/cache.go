// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package asset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ErrNotFound is returned by a Loader that has no template for a kind.
var ErrNotFound = errors.New("asset not found")

// Loader fetches the template of a kind. Load is called on its own
// goroutine and must honor ctx.
type Loader interface {
	Load(ctx context.Context, kind world.AssetKind) (*Template, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, kind world.AssetKind) (*Template, error)

func (f LoaderFunc) Load(ctx context.Context, kind world.AssetKind) (*Template, error) {
	return f(ctx, kind)
}

const (
	defaultMaxIdle = 64
	defaultTimeout = 10 * time.Second
	completionsCap = 64
)

type Options struct {
	// MaxIdle is how many settled entries nobody references are kept before
	// the least recently released is evicted.
	MaxIdle int
	// Timeout of a single load.
	Timeout time.Duration
}

// Settled reports an entry that left Loading during a Pump.
type Settled struct {
	Kind  world.AssetKind
	State State
	Err   error
}

type Stats struct {
	Entries   int `json:"entries"`
	Idle      int `json:"idle"`
	InFlight  int `json:"inFlight"`
	Loads     int `json:"loads"`
	Hits      int `json:"hits"`
	Fallbacks int `json:"fallbacks"`
	Evictions int `json:"evictions"`
}

type entry struct {
	handle *Handle
	refs   int
}

type completion struct {
	handle   *Handle
	template *Template
	err      error
}

// Cache holds one entry per requested kind. Loads run on their own
// goroutines but their results are only applied by Pump, which the owner
// calls from its update loop.
type Cache struct {
	loader  Loader
	options Options

	mu      sync.Mutex
	entries map[world.AssetKind]*entry
	idle    *simplelru.LRU[world.AssetKind, *entry]
	stats   Stats

	completions chan completion
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewCache creates a Cache. A nil loader fails every load, so every kind
// falls back to its placeholder.
func NewCache(loader Loader, options Options) *Cache {
	if loader == nil {
		loader = LoaderFunc(func(context.Context, world.AssetKind) (*Template, error) {
			return nil, ErrNotFound
		})
	}
	if options.MaxIdle <= 0 {
		options.MaxIdle = defaultMaxIdle
	}
	if options.Timeout <= 0 {
		options.Timeout = defaultTimeout
	}

	c := &Cache{
		loader:      loader,
		options:     options,
		entries:     make(map[world.AssetKind]*entry),
		completions: make(chan completion, completionsCap),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	idle, err := simplelru.NewLRU[world.AssetKind, *entry](options.MaxIdle, c.evicted)
	if err != nil {
		panic(err)
	}
	c.idle = idle
	return c
}

// Request returns the shared handle of kind and takes a reference to it.
// It never blocks; the first request of a kind starts its load.
func (c *Cache) Request(kind world.AssetKind) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[kind]; ok {
		e.refs++
		if e.refs == 1 {
			// Revived, refs > 0 so evicted does not drop it
			c.idle.Remove(kind)
		}
		c.stats.Hits++
		return e.handle
	}

	h := newHandle(kind)
	c.entries[kind] = &entry{handle: h, refs: 1}
	c.stats.Loads++
	c.stats.InFlight++
	go c.load(h)
	return h
}

// Release drops a reference taken by Request. Settled entries nobody
// references become eligible for eviction.
func (c *Cache) Release(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[h.kind]
	if !ok || e.handle != h || e.refs <= 0 {
		panic(fmt.Sprintf("asset: release of unreferenced %s", h.kind))
	}

	e.refs--
	if e.refs == 0 && h.State() != Loading {
		c.idle.Add(h.kind, e)
	}
}

// Peek returns the handle of kind without taking a reference, or nil.
func (c *Cache) Peek(kind world.AssetKind) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[kind]; ok {
		return e.handle
	}
	return nil
}

// Refs is the reference count of kind.
func (c *Cache) Refs(kind world.AssetKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[kind]; ok {
		return e.refs
	}
	return 0
}

// Pump applies every finished load without blocking.
func (c *Cache) Pump() []Settled {
	var settled []Settled
	for {
		select {
		case done := <-c.completions:
			if s, ok := c.settle(done); ok {
				settled = append(settled, s)
			}
		default:
			return settled
		}
	}
}

// PumpWait is Pump but blocks until at least one load finishes or ctx is done.
func (c *Cache) PumpWait(ctx context.Context) ([]Settled, error) {
	var settled []Settled
	select {
	case done := <-c.completions:
		if s, ok := c.settle(done); ok {
			settled = append(settled, s)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return append(settled, c.Pump()...), nil
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = len(c.entries)
	stats.Idle = c.idle.Len()
	return stats
}

// Close abandons loads in flight. Handles still Loading stay Loading.
func (c *Cache) Close() {
	c.cancel()
}

func (c *Cache) load(h *Handle) {
	ctx, cancel := context.WithTimeout(c.ctx, c.options.Timeout)
	defer cancel()

	template, err := c.safeLoad(ctx, h.kind)
	if err == nil && template == nil {
		err = ErrNotFound
	}

	select {
	case c.completions <- completion{handle: h, template: template, err: err}:
	case <-c.ctx.Done():
	}
}

func (c *Cache) safeLoad(ctx context.Context, kind world.AssetKind) (template *Template, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panic: %v", r)
		}
	}()
	return c.loader.Load(ctx, kind)
}

func (c *Cache) settle(done completion) (Settled, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.InFlight--
	h := done.handle
	e, ok := c.entries[h.kind]
	if !ok || e.handle != h {
		// Cache no longer knows the handle; nothing observes it
		return Settled{}, false
	}

	s := Settled{Kind: h.kind, State: Ready}
	if done.err != nil {
		s.State = Fallback
		s.Err = fmt.Errorf("load %s: %w", h.kind, done.err)
		c.stats.Fallbacks++
		h.settle(Synthesize(h.kind), Fallback, s.Err)
	} else {
		h.settle(done.template, Ready, nil)
	}

	if e.refs == 0 {
		c.idle.Add(h.kind, e)
	}
	return s, true
}

// evicted is called by the idle list on eviction and on Remove.
func (c *Cache) evicted(kind world.AssetKind, e *entry) {
	if e.refs > 0 {
		return
	}
	delete(c.entries, kind)
	c.stats.Evictions++
}
