// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/place"
	"github.com/SoftbearStudios/realmwalk/server/terrain/noise"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/SoftbearStudios/realmwalk/server/world/index"
)

var testConfig = Config{
	ChunkSize:     50,
	RenderRadius:  100,
	CleanupRadius: 150,
	Strict:        true,
}

func testPlacer(t testing.TB) *place.Placer {
	var rules place.Rules
	rules.Categories[world.CategoryTree] = &place.Rule{
		CountMin: 1, CountMax: 6, Spacing: 5, Footprint: 2, Attempts: 20, Corridor: 4,
		ScaleMin: 0.8, ScaleMax: 1.2,
		Kinds: []place.Weighted{
			{Kind: world.ParseAssetKind("pine"), Weight: 2},
			{Kind: world.ParseAssetKind("oak"), Weight: 1},
		},
	}
	rules.Categories[world.CategoryRock] = &place.Rule{
		CountMin: 0, CountMax: 3, Spacing: 3, Footprint: 1, Attempts: 20, Corridor: 4,
		ScaleMin: 0.5, ScaleMax: 1.5,
		Kinds: []place.Weighted{{Kind: world.ParseAssetKind("boulder"), Weight: 1}},
	}
	p, err := place.New(rules, noise.NewDefault())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestStreamer(t testing.TB, config Config, placer Placer) *Streamer {
	cache := asset.NewCache(nil, asset.Options{})
	t.Cleanup(cache.Close)
	s, err := New(config, placer, cache)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func sameInstances(a, b []world.PlacedInstance) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Position != b[i].Position || a[i].Scale != b[i].Scale || a[i].Rotation != b[i].Rotation {
			return false
		}
	}
	return true
}

func BenchmarkStreamer_Tick(b *testing.B) {
	s := newTestStreamer(b, testConfig, testPlacer(b))
	for i := 0; i < b.N; i++ {
		s.Tick(world.Vec3f{Z: float32(i)})
	}
}

func TestStreamer_Walk(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))
	origin := world.ChunkCoord{}
	destroyedOrigin := false

	for z := float32(0); z <= 500; z += 50 {
		v := world.Vec3f{Z: z}
		delta := s.Tick(v)

		if n := s.Len(); n > s.MaxActive() {
			t.Errorf("z=%f: %d active, max %d", z, n, s.MaxActive())
		}
		for _, coord := range delta.Destroyed {
			if coord == origin {
				destroyedOrigin = true
			}
			for _, chunk := range delta.Created {
				if chunk.Coord == coord {
					t.Errorf("%v created and destroyed in one tick", coord)
				}
			}
		}
		for _, coord := range s.Indexer().Desired(v) {
			if s.Chunk(coord) == nil {
				t.Errorf("z=%f: desired %v not active", z, coord)
			}
		}
		for _, chunk := range s.Active() {
			if chunk.State() != world.ChunkActive {
				t.Errorf("%v in state %s", chunk.Coord, chunk.State())
			}
			if d := index.Distance(v, chunk.Coord, 50); d > 150 {
				t.Errorf("%v retained at %f", chunk.Coord, d)
			}
		}

		if z == 200 {
			if !destroyedOrigin || s.Chunk(origin) != nil {
				t.Errorf("chunk %v not destroyed by z=200", origin)
			}
		}
	}

	if stats := s.Stats(); stats.Created-stats.Destroyed != stats.Active || stats.Failures != 0 {
		t.Errorf("stats %+v", stats)
	}
}

func TestStreamer_NoDuplicates(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))
	created := make(map[world.ChunkCoord]*world.Chunk)

	// Wander with varying step sizes
	v := world.Vec3f{}
	for i := 0; i < 300; i++ {
		v.X += float32(i%7-3) * 9
		v.Z += float32(i%5-1) * 13

		delta := s.Tick(v)
		for _, chunk := range delta.Created {
			if prev, ok := created[chunk.Coord]; ok && prev.State() == world.ChunkActive {
				t.Fatalf("%v created while active", chunk.Coord)
			}
			created[chunk.Coord] = chunk
		}

		seen := make(map[world.ChunkCoord]bool)
		for _, chunk := range s.Active() {
			if seen[chunk.Coord] {
				t.Fatalf("%v active twice", chunk.Coord)
			}
			seen[chunk.Coord] = true
			if created[chunk.Coord] != chunk {
				t.Fatalf("%v active object is not the created one", chunk.Coord)
			}
		}
	}
}

func TestStreamer_Hysteresis(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))

	run := func(a, b float32) {
		creations := make(map[world.ChunkCoord]int)
		destructions := make(map[world.ChunkCoord]int)
		for i := 0; i < 100; i++ {
			z := a
			if i%2 == 1 {
				z = b
			}
			delta := s.Tick(world.Vec3f{X: 3, Z: z})
			for _, chunk := range delta.Created {
				creations[chunk.Coord]++
			}
			for _, coord := range delta.Destroyed {
				destructions[coord]++
			}
		}
		for coord, n := range creations {
			if n > 1 {
				t.Errorf("[%f, %f]: %v created %d times", a, b, coord, n)
			}
		}
		for coord, n := range destructions {
			if n > 1 {
				t.Errorf("[%f, %f]: %v destroyed %d times", a, b, coord, n)
			}
		}
	}

	// Around a chunk boundary
	run(49, 51)
	// Around where chunk (0, 0) crosses the cleanup ring
	s.Tick(world.Vec3f{X: 3, Z: 160})
	run(172, 174)
}

func TestStreamer_Deterministic(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))
	coord := world.ChunkCoord{X: 1, Z: 0}

	s.Tick(world.Vec3f{})
	first := s.Chunk(coord)
	if first == nil {
		t.Fatal("not created")
	}
	before := s.Instances(first)
	if len(before) == 0 {
		t.Fatal("empty chunk")
	}

	s.Tick(world.Vec3f{Z: 1000})
	if first.State() != world.ChunkDestroyed || s.Chunk(coord) != nil {
		t.Fatal("not destroyed")
	}

	s.Tick(world.Vec3f{})
	second := s.Chunk(coord)
	if second == first {
		t.Fatal("destroyed chunk object reused")
	}
	if !sameInstances(before, s.Instances(second)) {
		t.Errorf("recreated chunk differs:\n%v\n%v", before, second.Instances)
	}
	for i := range second.Instances {
		if second.Instances[i].Owner() != second {
			t.Error("instance not owned by its chunk")
		}
	}
}

func TestStreamer_PlacementFailure(t *testing.T) {
	calls := make(map[world.ChunkCoord]int)
	errBroken := errors.New("broken")
	placer := PlacerFunc(func(chunk *world.Chunk) ([]world.PlacedInstance, error) {
		calls[chunk.Coord]++
		switch chunk.Coord {
		case world.ChunkCoord{X: 0, Z: 0}:
			return []world.PlacedInstance{{Kind: world.ParseAssetKind("pine"), Scale: 1}}, errBroken
		case world.ChunkCoord{X: 1, Z: 0}:
			panic("placer bug")
		}
		return []world.PlacedInstance{{Kind: world.ParseAssetKind("pine"), Scale: 1}}, nil
	})
	s := newTestStreamer(t, testConfig, placer)

	delta := s.Tick(world.Vec3f{})
	if len(delta.Diagnostics) != 2 {
		t.Fatalf("diagnostics %v", delta.Diagnostics)
	}
	for _, d := range delta.Diagnostics {
		if d.Coord == nil || d.Err == nil {
			t.Errorf("diagnostic %v", d)
		}
	}
	if !errors.Is(delta.Diagnostics[0].Err, errBroken) {
		t.Errorf("first diagnostic %v", delta.Diagnostics[0])
	}

	for _, coord := range []world.ChunkCoord{{X: 0, Z: 0}, {X: 1, Z: 0}} {
		chunk := s.Chunk(coord)
		if chunk == nil || len(chunk.Instances) != 0 {
			t.Errorf("%v: failed chunk must be active and empty", coord)
		}
	}

	for i := 0; i < 10; i++ {
		s.Tick(world.Vec3f{X: float32(i)})
	}
	for coord, n := range calls {
		if n != 1 {
			t.Errorf("%v placed %d times", coord, n)
		}
	}
	if s.Stats().Failures != 2 {
		t.Errorf("stats %+v", s.Stats())
	}
}

func TestStreamer_AssetReferences(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))
	cache := s.Cache()

	s.Tick(world.Vec3f{})
	counts := make(map[world.AssetKind]int)
	for _, chunk := range s.Active() {
		for _, instance := range chunk.Instances {
			counts[instance.Kind]++
		}
	}
	if len(counts) == 0 {
		t.Fatal("nothing placed")
	}
	for kind, n := range counts {
		if refs := cache.Refs(kind); refs != n {
			t.Errorf("%s: %d refs, %d instances", kind, refs, n)
		}
		if s.Resolve(kind) == nil {
			t.Errorf("%s not resolvable", kind)
		}
	}
	if loads := cache.Stats().Loads; loads != len(counts) {
		t.Errorf("%d loads for %d kinds", loads, len(counts))
	}

	// Nil loader, so every kind settles as a fallback with a diagnostic
	settled := 0
	deadline := time.Now().Add(5 * time.Second)
	for settled < len(counts) && time.Now().Before(deadline) {
		delta := s.Tick(world.Vec3f{})
		settled += len(delta.Settled)
		for _, d := range delta.Diagnostics {
			if d.Coord != nil || !errors.Is(d.Err, asset.ErrNotFound) {
				t.Errorf("diagnostic %v", d)
			}
		}
		time.Sleep(time.Millisecond)
	}
	for kind := range counts {
		if h := s.Resolve(kind); h.State() != asset.Fallback || h.Template() == nil {
			t.Errorf("%s: %s", kind, h.State())
		}
	}

	if coords := s.Reset(); len(coords) == 0 || s.Len() != 0 {
		t.Error("reset left chunks")
	}
	for kind := range counts {
		if refs := cache.Refs(kind); refs != 0 {
			t.Errorf("%s: %d refs after reset", kind, refs)
		}
	}
}

func TestStreamer_Reentrant(t *testing.T) {
	var s *Streamer
	reentered := false
	s = newTestStreamer(t, testConfig, PlacerFunc(func(chunk *world.Chunk) ([]world.PlacedInstance, error) {
		defer func() {
			reentered = reentered || recover() != nil
		}()
		s.Tick(world.Vec3f{})
		return nil, nil
	}))

	s.Tick(world.Vec3f{})
	if !reentered {
		t.Error("reentrant tick did not panic")
	}
}

func TestStreamer_Destroy(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))
	s.Tick(world.Vec3f{})

	if !s.Destroy(world.ChunkCoord{}) {
		t.Error("destroy of active chunk failed")
	}
	if delta := s.Tick(world.Vec3f{}); len(delta.Created) != 1 || delta.Created[0].Coord != (world.ChunkCoord{}) {
		t.Errorf("destroyed desired chunk not recreated: %v", delta.Created)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("strict destroy of unknown chunk did not panic")
			}
		}()
		s.Destroy(world.ChunkCoord{X: 1000})
	}()

	lenient := testConfig
	lenient.Strict = false
	s = newTestStreamer(t, lenient, testPlacer(t))
	if s.Destroy(world.ChunkCoord{X: 1000}) {
		t.Error("destroy of unknown chunk succeeded")
	}
}

func TestStreamer_EdgeOfGrid(t *testing.T) {
	empty := PlacerFunc(func(chunk *world.Chunk) ([]world.PlacedInstance, error) {
		return nil, nil
	})
	s := newTestStreamer(t, testConfig, empty)
	s.Tick(world.Vec3f{})

	far := world.Vec3f{X: 1e12, Z: -1e12}
	delta := s.Tick(far)
	if len(delta.Diagnostics) != 1 || !errors.Is(delta.Diagnostics[0].Err, index.ErrRange) {
		t.Fatalf("diagnostics %v", delta.Diagnostics)
	}
	if len(delta.Created) == 0 || len(delta.Destroyed) == 0 {
		t.Errorf("created %d destroyed %d", len(delta.Created), len(delta.Destroyed))
	}
	if s.Len() == 0 || s.Len() > s.MaxActive() {
		t.Errorf("%d active at edge", s.Len())
	}

	// Reported once, and further out is the same edge
	if delta = s.Tick(world.Vec3f{X: 1e13, Z: -1e13}); !delta.Empty() {
		t.Errorf("unexpected delta %+v", delta)
	}

	if delta = s.Tick(world.Vec3f{}); len(delta.Diagnostics) != 0 || len(delta.Created) == 0 {
		t.Errorf("returning home: %+v", delta)
	}
}

// Render goroutines read chunk state while the streamer destroys chunks.
func TestStreamer_ConcurrentState(t *testing.T) {
	s := newTestStreamer(t, testConfig, testPlacer(t))
	s.Tick(world.Vec3f{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		chunks := s.Active()
		for i := 0; i < 1000; i++ {
			for _, chunk := range chunks {
				if state := chunk.State(); state != world.ChunkActive && state != world.ChunkDestroyed {
					t.Errorf("%v in state %s", chunk.Coord, state)
				}
			}
		}
	}()

	for z := float32(0); z < 2000; z += 20 {
		s.Tick(world.Vec3f{Z: z})
	}
	<-done
}

func TestNew(t *testing.T) {
	placer := testPlacer(t)
	cache := asset.NewCache(nil, asset.Options{})
	defer cache.Close()

	for _, config := range []Config{
		{ChunkSize: 50, RenderRadius: 100, CleanupRadius: 100},
		{ChunkSize: 50, RenderRadius: 100, CleanupRadius: 50},
		{ChunkSize: 50, RenderRadius: 100, CleanupRadius: 140, ForwardBias: 0.5},
		{ChunkSize: 0, RenderRadius: 100, CleanupRadius: 150},
	} {
		if _, err := New(config, placer, cache); !errors.Is(err, index.ErrRadius) {
			t.Errorf("%+v: %v", config, err)
		}
	}

	if _, err := New(testConfig, nil, cache); err == nil {
		t.Error("nil placer accepted")
	}
}
