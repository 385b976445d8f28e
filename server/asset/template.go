// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package asset

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Template is the loaded visual description of an AssetKind, shared by every
// instance of that kind. Vertices are packed x, y, z triples; Indices are
// triangles.
type Template struct {
	Name     string     `json:"name"`
	Shape    string     `json:"shape"`
	Color    [3]float32 `json:"color"`
	Vertices []float32  `json:"vertices"`
	Indices  []uint16   `json:"indices"`
	Fallback bool       `json:"fallback,omitempty"`
}

var json = jsoniter.Config{
	MarshalFloatWith6Digits: true,
	EscapeHTML:              false,
	SortMapKeys:             true,
	TagKey:                  "json",
	CaseSensitive:           true,
}.Froze()

// Encode returns the canonical JSON of a template. Equal templates encode to
// equal bytes.
func (t *Template) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// Validate checks what the schema cannot: that the geometry is consistent.
func (t *Template) Validate() error {
	if len(t.Vertices)%3 != 0 {
		return fmt.Errorf("%s: %d vertex components", t.Name, len(t.Vertices))
	}
	if len(t.Indices)%3 != 0 {
		return fmt.Errorf("%s: %d indices do not form triangles", t.Name, len(t.Indices))
	}
	count := len(t.Vertices) / 3
	for _, i := range t.Indices {
		if int(i) >= count {
			return fmt.Errorf("%s: index %d out of %d vertices", t.Name, i, count)
		}
	}
	return nil
}

// TriangleCount is the number of triangles in the template.
func (t *Template) TriangleCount() int {
	return len(t.Indices) / 3
}
