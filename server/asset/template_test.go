// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package asset

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

func TestSynthesize(t *testing.T) {
	for i := 1; i < world.AssetKindCount; i++ {
		kind := world.AssetKind(i)
		a := Synthesize(kind)
		b := Synthesize(kind)

		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: placeholder not deterministic", kind)
		}
		if err := a.Validate(); err != nil {
			t.Errorf("%s: %v", kind, err)
		}
		if a.TriangleCount() == 0 || !a.Fallback || a.Name != kind.String() {
			t.Errorf("%s: bad placeholder %+v", kind, a)
		}
		for _, c := range a.Color {
			if c < 0 || c > 1 {
				t.Errorf("%s: color %v", kind, a.Color)
			}
		}

		// Placeholders pass the same checks as loaded templates
		buf, err := a.Encode()
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := Decode(kind.Data().Key, maybeCompress(kind.Data().Key, buf))
		if err != nil {
			t.Errorf("%s: %v", kind, err)
			continue
		}

		// Published placeholders must match the in process ones exactly
		again, err := decoded.Encode()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf, again) {
			t.Errorf("%s: round trip changed placeholder:\n%s\n%s", kind, buf, again)
		}
		for j, v := range a.Vertices {
			if v == 0 && math.Signbit(float64(v)) {
				t.Errorf("%s: vertex component %d is -0", kind, j)
			}
		}
	}
}

func maybeCompress(key string, buf []byte) []byte {
	if len(key) > len(CompressedSuffix) && key[len(key)-len(CompressedSuffix):] == CompressedSuffix {
		return Compress(buf)
	}
	return buf
}

func TestDecode(t *testing.T) {
	want := Synthesize(world.ParseAssetKind("pine"))
	want.Fallback = false
	buf, err := want.Encode()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode("trees/pine.json.zst", Compress(buf))
	if err != nil {
		t.Fatal(err)
	}
	again, err := got.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, again) {
		t.Errorf("round trip changed template:\n%s\n%s", buf, again)
	}

	tests := []struct {
		name string
		key  string
		raw  string
	}{
		{"syntax", "a.json", `{"name":`},
		{"missing field", "a.json", `{"shape":"box","color":[0,0,0],"vertices":[0,0,0,1,0,0,0,0,1],"indices":[0,1,2]}`},
		{"shape", "a.json", `{"name":"a","shape":"blob","color":[0,0,0],"vertices":[0,0,0,1,0,0,0,0,1],"indices":[0,1,2]}`},
		{"color", "a.json", `{"name":"a","shape":"box","color":[2,0,0],"vertices":[0,0,0,1,0,0,0,0,1],"indices":[0,1,2]}`},
		{"index range", "a.json", `{"name":"a","shape":"box","color":[0,0,0],"vertices":[0,0,0,1,0,0,0,0,1],"indices":[0,1,3]}`},
		{"not compressed", "a.json.zst", `{"name":"a"}`},
	}
	for _, test := range tests {
		if _, err := Decode(test.key, []byte(test.raw)); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
