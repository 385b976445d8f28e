// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

// Delta is what changed during one Tick.
type Delta struct {
	Created     []*world.Chunk
	Destroyed   []world.ChunkCoord
	Settled     []asset.Settled
	Diagnostics []Diagnostic
}

// Empty is true if nothing changed.
func (delta *Delta) Empty() bool {
	return len(delta.Created) == 0 && len(delta.Destroyed) == 0 && len(delta.Settled) == 0 && len(delta.Diagnostics) == 0
}

// Diagnostic is a recovered failure. Coord is set for placement failures,
// Kind for asset load failures.
type Diagnostic struct {
	Coord *world.ChunkCoord
	Kind  world.AssetKind
	Err   error
}

func (d Diagnostic) String() string {
	if d.Coord != nil {
		return "chunk " + d.Coord.String() + ": " + d.Err.Error()
	}
	return "asset " + d.Kind.String() + ": " + d.Err.Error()
}
