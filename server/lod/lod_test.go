// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package lod

import (
	"testing"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

func TestSelector_Classify(t *testing.T) {
	s, err := New(Thresholds{Full: 50, Simplified: 120})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		distance float32
		tier     Tier
	}{
		{0, Full},
		{49.9, Full},
		{50, Simplified},
		{119.9, Simplified},
		{120, Culled},
		{1e9, Culled},
	}
	for _, test := range tests {
		if tier := s.Classify(test.distance); tier != test.tier {
			t.Errorf("Classify(%f) = %s, want %s", test.distance, tier, test.tier)
		}
	}
}

func TestNew(t *testing.T) {
	for _, thresholds := range []Thresholds{{}, {Full: 50, Simplified: 50}, {Full: -1, Simplified: 10}, {Full: 100, Simplified: 50}} {
		if _, err := New(thresholds); err == nil {
			t.Errorf("%+v accepted", thresholds)
		}
	}
}

func TestSelector_Tag(t *testing.T) {
	s, err := New(Thresholds{Full: 50, Simplified: 120})
	if err != nil {
		t.Fatal(err)
	}

	chunk := world.NewChunk(world.ChunkCoord{X: 1, Z: 0}, 50)
	chunk.Adopt([]world.PlacedInstance{
		{Kind: world.ParseAssetKind("pine"), Position: world.Vec3f{X: 10, Y: 100, Z: 0}, Scale: 1},
		{Kind: world.ParseAssetKind("peak"), Position: world.Vec3f{X: 10, Z: 0}, Scale: 1},
		{Kind: world.ParseAssetKind("boulder"), Position: world.Vec3f{X: 10, Z: 0}, Scale: 1},
	})
	tree, mountain, rock := &chunk.Instances[0], &chunk.Instances[1], &chunk.Instances[2]

	// Instances are at x = 60, height is ignored
	near := world.Vec3f{X: 60, Y: -50, Z: 20}
	if tag := s.Tag(near, tree); tag.Tier != Full || !tag.CastShadow || !tag.Physics || !tag.Animate || tag.Distance != 20 {
		t.Errorf("near tree %+v", tag)
	}
	if tag := s.Tag(near, rock); tag.Animate || !tag.Physics {
		t.Errorf("near rock %+v", tag)
	}

	mid := world.Vec3f{X: 60, Z: 100}
	if tag := s.Tag(mid, tree); tag.Tier != Simplified || tag.CastShadow || tag.Physics || tag.Animate {
		t.Errorf("mid tree %+v", tag)
	}

	far := world.Vec3f{X: 60, Z: 500}
	if tag := s.Tag(far, tree); tag.Tier != Culled {
		t.Errorf("far tree %+v", tag)
	}
	if tag := s.Tag(far, mountain); tag.Tier != Simplified || !tag.CastShadow {
		t.Errorf("far mountain %+v", tag)
	}

	counts := s.Count(far, []*world.Chunk{chunk})
	if counts[Culled] != 2 || counts[Simplified] != 1 {
		t.Errorf("counts %v", counts)
	}
}
