// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"testing"

	"github.com/SoftbearStudios/realmwalk/server/lod"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

func TestJsonIter(t *testing.T) {
	testUpdate := Message{Data: &Update{
		Tick:      3,
		Realm:     "verdant",
		Viewpoint: world.Vec3f{X: 1, Y: 0.5, Z: 2},
		Created: []ChunkView{{
			Coord:  world.ChunkCoord{X: 0, Z: -1},
			Origin: world.Vec2f{X: 0, Z: -50},
			Seed:   7,
			Instances: []InstanceView{{
				Kind:     world.ParseAssetKind("pine"),
				Position: world.Vec3f{X: 1, Y: 2, Z: 3},
				Scale:    1.5,
				Rotation: world.ToAngle(0.25),
				Tag:      lod.Tag{Tier: lod.Full, Distance: 4, CastShadow: true, Physics: true, Animate: true},
			}},
		}},
		Destroyed: []world.ChunkCoord{{X: 2, Z: 3}},
	}}

	const testUpdateString = `{"data":{"tick":3,"realm":"verdant","viewpoint":{"x":1,"y":0.5,"z":2},"created":[{"coord":"0,-1","origin":{"x":0,"z":-50},"seed":7,"instances":[{"kind":"pine","position":{"x":1,"y":2,"z":3},"scale":1.5,"rotation":0.25,"tier":"full","distance":4,"castShadow":true,"physics":true,"animate":true}]}],"destroyed":["2,3"]},"type":"update"}`

	buf, err := json.Marshal(testUpdate)
	if err != nil {
		t.Error("error marshaling:", err.Error())
		return
	}
	if !bytes.Equal(buf, []byte(testUpdateString)) {
		t.Error("different output:\none:", testUpdateString, "\ntwo:", string(buf))
	}

	var coordWrapper struct {
		Coord world.ChunkCoord `json:"coord"`
	}
	if err = json.Unmarshal([]byte(`{"coord": "-4,12"}`), &coordWrapper); err != nil {
		t.Error("error unmarshaling:", err.Error())
	} else if coordWrapper.Coord != (world.ChunkCoord{X: -4, Z: 12}) {
		t.Error("different coord:", coordWrapper.Coord)
	}

	if err = json.Unmarshal([]byte(`{"coord": "4"}`), &coordWrapper); err == nil {
		t.Error("expected error for malformed coord")
	}
}

func TestJsonIter_Inbound(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{`{"type":"move","data":{"position":{"x":1,"y":2,"z":3}}}`, Move{Position: world.Vec3f{X: 1, Y: 2, Z: 3}}},
		// Type after data
		{`{"data":{"speed":12.5},"type":"walk"}`, Walk{Speed: 12.5}},
		{`{"type":"switchRealm","data":{"realm":"ember"}}`, SwitchRealm{Realm: "ember"}},
		{`{"type":"fire","data":{}}`, InvalidInbound{messageType: "fire"}},
	}

	for _, test := range tests {
		var message Message
		if err := json.Unmarshal([]byte(test.in), &message); err != nil {
			t.Errorf("%s: %v", test.in, err)
			continue
		}
		if message.Data != test.want {
			t.Errorf("%s: got %#v want %#v", test.in, message.Data, test.want)
		}
	}

	var message Message
	if err := json.Unmarshal([]byte(`{"data":{}}`), &message); err == nil {
		t.Error("expected error without type")
	}
}
