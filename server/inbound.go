// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"

	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/chewxy/math32"
)

// maxSpeed is the fastest a client may make the walker go, in meters per second.
const maxSpeed = 500

// Make sure to register in init function
type (
	// InvalidInbound means invalid message type from client (possibly out of date).
	// NOTE: Do not register, otherwise client could send type "invalidInbound"
	InvalidInbound struct {
		messageType messageType
	}

	// Move places the viewpoint and stops the walker.
	Move struct {
		Position world.Vec3f `json:"position"`
	}

	// SwitchRealm streams another realm from the same viewpoint.
	SwitchRealm struct {
		Realm string `json:"realm"`
	}

	// Walk sets the speed of the walker along the path, 0 to stop.
	Walk struct {
		Speed float32 `json:"speed"`
	}
)

func init() {
	registerInbound(
		Move{},
		SwitchRealm{},
		Walk{},
	)
}

func (data Move) Inbound(h *Hub, _ Client) {
	p := data.Position
	if !finite(p.X) || !finite(p.Z) {
		return
	}
	h.Move(world.Vec3f{
		X: clamp(p.X, -maxCoordinate, maxCoordinate),
		Z: clamp(p.Z, -maxCoordinate, maxCoordinate),
	})
}

func (data SwitchRealm) Inbound(h *Hub, _ Client) {
	if data.Realm == h.realm {
		return
	}
	if err := h.SwitchRealm(data.Realm); err != nil {
		log.Println("switch realm:", err)
	}
}

func (data Walk) Inbound(h *Hub, _ Client) {
	if !finite(data.Speed) {
		return
	}
	h.walker.Speed = clamp(data.Speed, -maxSpeed, maxSpeed)
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
