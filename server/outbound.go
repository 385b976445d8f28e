// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/lod"
	"github.com/SoftbearStudios/realmwalk/server/terrain/compressed"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/SoftbearStudios/realmwalk/server/world/seed"
)

type (
	// Update is what changed since the previous update, or everything when
	// a client registers. Realm is only set when it changed.
	Update struct {
		Tick        int                `json:"tick"`
		Realm       string             `json:"realm,omitempty"`
		Viewpoint   world.Vec3f        `json:"viewpoint"`
		Created     []ChunkView        `json:"created,omitempty"`
		Destroyed   []world.ChunkCoord `json:"destroyed,omitempty"`
		Assets      []AssetView        `json:"assets,omitempty"`
		Diagnostics []string           `json:"diagnostics,omitempty"`
	}

	// ChunkView is a chunk as seen from the viewpoint at creation time.
	ChunkView struct {
		Coord     world.ChunkCoord    `json:"coord"`
		Origin    world.Vec2f         `json:"origin"`
		Seed      seed.Seed           `json:"seed"`
		Path      []world.PathSegment `json:"path,omitempty"`
		Terrain   *TerrainView        `json:"terrain,omitempty"`
		Instances []InstanceView      `json:"instances"`
	}

	// TerrainView is a run length encoded heightmap, see compressed.Decode.
	TerrainView struct {
		Resolution int     `json:"resolution"`
		Base       float32 `json:"base"`
		Step       float32 `json:"step"`
		Data       []byte  `json:"data"`
	}

	// InstanceView is a placed instance in world space with its LOD tag.
	InstanceView struct {
		Kind     world.AssetKind `json:"kind"`
		Position world.Vec3f     `json:"position"`
		Scale    float32         `json:"scale"`
		Rotation world.Angle     `json:"rotation"`
		lod.Tag
	}

	// AssetView is a template that finished loading.
	AssetView struct {
		Kind  world.AssetKind `json:"kind"`
		State asset.State     `json:"state"`
	}
)

func init() {
	registerOutbound(
		&Update{},
	)
}

func (*Update) outbound() {}

func newChunkView(selector lod.Selector, viewpoint world.Vec3f, chunk *world.Chunk) ChunkView {
	view := ChunkView{
		Coord:     chunk.Coord,
		Origin:    chunk.Origin,
		Seed:      chunk.Seed,
		Path:      chunk.Path,
		Instances: make([]InstanceView, len(chunk.Instances)),
	}
	if heightmap, ok := chunk.Terrain.(*compressed.Heightmap); ok {
		view.Terrain = &TerrainView{
			Resolution: heightmap.Resolution(),
			Base:       heightmap.Base(),
			Step:       heightmap.Step(),
			Data:       heightmap.Encode(),
		}
	}
	for i := range chunk.Instances {
		instance := &chunk.Instances[i]
		view.Instances[i] = InstanceView{
			Kind:     instance.Kind,
			Position: instance.World(),
			Scale:    instance.Scale,
			Rotation: instance.Rotation,
			Tag:      selector.Tag(viewpoint, instance),
		}
	}
	return view
}
