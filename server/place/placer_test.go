// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package place

import (
	"reflect"
	"testing"

	"github.com/SoftbearStudios/realmwalk/server/terrain"
	"github.com/SoftbearStudios/realmwalk/server/terrain/noise"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/chewxy/math32"
)

const testChunkSize = 50

func testRules() Rules {
	var rules Rules
	rules.Realm = "test"
	rules.Anchors = []world.Vec2f{{X: 0, Z: 0}}
	rules.Categories[world.CategoryTree] = &Rule{
		CountMin: 2, CountMax: 8,
		Spacing: 6, Footprint: 2, Attempts: 30,
		Corridor: 5, AnchorClearance: 8, MaxSlope: 35,
		ScaleMin: 0.8, ScaleMax: 1.3,
		Kinds: []Weighted{
			{Kind: world.ParseAssetKind("pine"), Weight: 3},
			{Kind: world.ParseAssetKind("oak"), Weight: 1},
			{Kind: world.ParseAssetKind("birch"), Weight: 0},
		},
	}
	rules.Categories[world.CategoryRock] = &Rule{
		CountMin: 0, CountMax: 4,
		Spacing: 4, Footprint: 1, Attempts: 20,
		Corridor: 4,
		ScaleMin: 0.5, ScaleMax: 1.5,
		Kinds: []Weighted{{Kind: world.ParseAssetKind("boulder"), Weight: 1}},
	}
	rules.Categories[world.CategoryMountain] = &Rule{
		CountMin: 0, CountMax: 1,
		Spacing: 60, Footprint: 10, Attempts: 15,
		Corridor: 5, OffsetMin: 30,
		ScaleMin: 0.5, ScaleMax: 1,
		Kinds: []Weighted{{Kind: world.ParseAssetKind("peak"), Weight: 1}},
	}
	rules.Categories[world.CategoryPathStone] = &Rule{
		CountMin: 2, CountMax: 6,
		Spacing: 2, Footprint: 0.5, Attempts: 40,
		Corridor: 3, OnPath: true,
		ScaleMin: 0.9, ScaleMax: 1.1,
		Kinds: []Weighted{{Kind: world.ParseAssetKind("flagstone"), Weight: 1}},
	}
	return rules
}

func newTestPlacer(t testing.TB, source terrain.Source) *Placer {
	p, err := New(testRules(), source)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func BenchmarkPlacer_Place(b *testing.B) {
	p := newTestPlacer(b, noise.NewDefault())
	for i := 0; i < b.N; i++ {
		chunk := world.NewChunk(world.ChunkCoord{X: int32(i & 15), Z: int32(i >> 4)}, testChunkSize)
		_, _ = p.Place(chunk)
	}
}

func TestPlacer_Deterministic(t *testing.T) {
	p := newTestPlacer(t, noise.NewDefault())
	other := newTestPlacer(t, noise.NewDefault())

	for x := int32(-5); x <= 5; x++ {
		for z := int32(-5); z <= 20; z++ {
			coord := world.ChunkCoord{X: x, Z: z}

			// Fresh chunk objects, as after a destroy/recreate cycle
			a, err := p.Place(world.NewChunk(coord, testChunkSize))
			if err != nil {
				t.Fatal(err)
			}
			b, err := other.Place(world.NewChunk(coord, testChunkSize))
			if err != nil {
				t.Fatal(err)
			}

			if !reflect.DeepEqual(a, b) {
				t.Fatalf("%v placed differently:\n%v\n%v", coord, a, b)
			}
		}
	}
}

func TestPlacer_Spacing(t *testing.T) {
	p := newTestPlacer(t, noise.NewDefault())
	rules := p.Rules()

	placed := 0
	for x := int32(-4); x <= 4; x++ {
		for z := int32(-4); z <= 30; z++ {
			chunk := world.NewChunk(world.ChunkCoord{X: x, Z: z}, testChunkSize)
			instances, err := p.Place(chunk)
			if err != nil {
				t.Fatal(err)
			}
			placed += len(instances)

			for i := range instances {
				for j := i + 1; j < len(instances); j++ {
					a, b := &instances[i], &instances[j]
					ra := rules.Categories[a.Kind.Category()]
					rb := rules.Categories[b.Kind.Category()]
					min := minDistance(ra, rb)
					d := a.Position.Ground().Distance(b.Position.Ground())
					if d < min-0.001 {
						t.Errorf("%v: %s and %s are %f apart, min %f", chunk.Coord, a.Kind, b.Kind, d, min)
					}
				}
			}
		}
	}

	if placed == 0 {
		t.Fatal("nothing placed")
	}
}

func TestPlacer_Predicates(t *testing.T) {
	source := noise.NewDefault()
	p := newTestPlacer(t, source)
	rules := p.Rules()

	for x := int32(-3); x <= 3; x++ {
		for z := int32(-3); z <= 20; z++ {
			chunk := world.NewChunk(world.ChunkCoord{X: x, Z: z}, testChunkSize)
			instances, _ := p.Place(chunk)

			for _, instance := range instances {
				rule := rules.Categories[instance.Kind.Category()]
				wx := chunk.Origin.X + instance.Position.X
				wz := chunk.Origin.Z + instance.Position.Z

				if instance.Position.X < 0 || instance.Position.X >= testChunkSize ||
					instance.Position.Z < 0 || instance.Position.Z >= testChunkSize {
					t.Errorf("%s outside its chunk: %v", instance.Kind, instance.Position)
				}

				d := terrain.PathDistance(source, wx, wz)
				if rule.OnPath && d > rule.Corridor {
					t.Errorf("%s off path by %f", instance.Kind, d)
				}
				if !rule.OnPath && d < rule.Corridor {
					t.Errorf("%s inside corridor (%f)", instance.Kind, d)
				}
				if d < rule.OffsetMin {
					t.Errorf("%s closer to path than %f", instance.Kind, rule.OffsetMin)
				}
				if rule.AnchorClearance > 0 && (world.Vec2f{X: wx, Z: wz}).Length() < rule.AnchorClearance {
					t.Errorf("%s on spawn anchor", instance.Kind)
				}
				if rule.MaxSlope > 0 && terrain.Slope(source, wx, wz) > rule.MaxSlope {
					t.Errorf("%s on steep slope", instance.Kind)
				}
				if instance.Scale < rule.ScaleMin || instance.Scale >= rule.ScaleMax {
					t.Errorf("%s scale %f out of range", instance.Kind, instance.Scale)
				}
				if instance.Kind == world.ParseAssetKind("birch") {
					t.Error("zero weight kind chosen")
				}
				if want := source.Height(wx, wz); instance.Position.Y != want {
					t.Errorf("%s height %f want %f", instance.Kind, instance.Position.Y, want)
				}
			}
		}
	}
}

// cliff is a terrain that is vertical everywhere.
type cliff struct{}

func (cliff) Height(x, z float32) float32 { return x * 1000 }
func (cliff) PathX(z float32) float32     { return -1e6 }

func TestPlacer_UnderPlacement(t *testing.T) {
	rules := testRules()
	for _, rule := range rules.Categories {
		if rule != nil && !rule.OnPath {
			rule.MaxSlope = 10
		}
	}
	p, err := New(rules, cliff{})
	if err != nil {
		t.Fatal(err)
	}

	for z := int32(0); z < 10; z++ {
		instances, err := p.Place(world.NewChunk(world.ChunkCoord{Z: z}, testChunkSize))
		if err != nil {
			t.Fatalf("under-placement must not be an error: %v", err)
		}
		if len(instances) != 0 {
			t.Errorf("placed %d instances on a cliff, path far away", len(instances))
		}
	}
}

func TestPlacer_Survey(t *testing.T) {
	source := noise.NewDefault()
	p := newTestPlacer(t, source)

	// The chunk the path passes through halfway along z
	const zMid = 3*testChunkSize + testChunkSize/2
	coord := world.CoordOf(float64(source.PathX(zMid)), zMid, testChunkSize)
	chunk := world.NewChunk(coord, testChunkSize)
	p.Survey(chunk)

	if chunk.Terrain == nil {
		t.Fatal("no heightmap")
	}
	if len(chunk.Path) == 0 {
		t.Fatalf("path does not cross %v", coord)
	}
	for _, segment := range chunk.Path {
		if math32.Abs(segment.Start.X+chunk.Origin.X-source.PathX(chunk.Origin.Z+segment.Start.Z)) > 0.001 {
			t.Errorf("segment start off the centerline: %v", segment)
		}
	}

	far := world.NewChunk(world.ChunkCoord{X: 40, Z: 3}, testChunkSize)
	p.Survey(far)
	if len(far.Path) != 0 {
		t.Errorf("path segments in a chunk 2km from the path: %v", far.Path)
	}
}

func TestRules_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Rules)
	}{
		{"empty", func(r *Rules) { *r = Rules{} }},
		{"attempts", func(r *Rules) { r.Categories[world.CategoryTree].Attempts = 0 }},
		{"count", func(r *Rules) { r.Categories[world.CategoryTree].CountMax = 1 }},
		{"scale", func(r *Rules) { r.Categories[world.CategoryRock].ScaleMin = 0 }},
		{"weights", func(r *Rules) { r.Categories[world.CategoryRock].Kinds[0].Weight = 0 }},
		{"category", func(r *Rules) {
			r.Categories[world.CategoryRock].Kinds = []Weighted{{Kind: world.ParseAssetKind("pine"), Weight: 1}}
		}},
		{"onPath", func(r *Rules) { r.Categories[world.CategoryPathStone].Corridor = 0 }},
		{"offset", func(r *Rules) { r.Categories[world.CategoryMountain].OffsetMax = 10 }},
	}

	for _, test := range tests {
		rules := testRules()
		test.modify(&rules)
		if err := rules.Validate(); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}

	rules := testRules()
	if err := rules.Validate(); err != nil {
		t.Errorf("valid rules rejected: %v", err)
	}
}
