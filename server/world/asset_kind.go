// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	_ "embed"
	"errors"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// AssetKind identifies a visual template. Only use uint8 because only 255
// kinds are needed (plus invalid).
type AssetKind uint8

const AssetKindInvalid = AssetKind(0)

// AssetKindData is the static description of an AssetKind.
type AssetKindData struct {
	Category Category   `json:"category"`
	Key      string     `json:"key"`    // Key is the default object key of the template.
	Shape    string     `json:"shape"`  // Shape is the primitive used for the fallback template.
	Color    [3]float32 `json:"color"`  // Color is the base color, components in [0, 1].
	Radius   float32    `json:"radius"` // Radius is the footprint on the ground plane in meters.
	Height   float32    `json:"height"` // Height in meters at scale 1.
}

var (
	assetKindStrings []string // assetKindStrings maps from kinds to strings
	assetKindChoices map[string]AssetKind
	assetKindData    []AssetKindData
	assetKindsByCat  [CategoryCount][]AssetKind

	// AssetKindCount is one more than the largest valid AssetKind.
	AssetKindCount int
)

//go:embed kinds.json
var assetKindJSON []byte

func init() {
	data := make(map[string]AssetKindData)
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(assetKindJSON, &data); err != nil {
		panic(err)
	}

	// Sort strings but invalid must remain at index 0
	assetKindStrings = []string{"invalid"}
	for name := range data {
		assetKindStrings = append(assetKindStrings, name)
	}
	sort.Strings(assetKindStrings[1:])

	if len(assetKindStrings) > 256 {
		panic("too many asset kinds")
	}

	AssetKindCount = len(assetKindStrings)
	assetKindChoices = make(map[string]AssetKind, AssetKindCount-1)
	assetKindData = make([]AssetKindData, AssetKindCount)

	for i, name := range assetKindStrings {
		if i == int(AssetKindInvalid) {
			continue
		}
		kind := AssetKind(i)
		d := data[name]
		if d.Category == CategoryInvalid {
			panic("asset kind without category: " + name)
		}
		assetKindChoices[name] = kind
		assetKindData[i] = d
		assetKindsByCat[d.Category] = append(assetKindsByCat[d.Category], kind)
	}
}

// ParseAssetKind panics on unknown names, use LookupAssetKind for untrusted input.
func ParseAssetKind(s string) AssetKind {
	kind, ok := assetKindChoices[s]
	if !ok {
		panic("invalid asset kind: " + s)
	}
	return kind
}

func LookupAssetKind(s string) (AssetKind, bool) {
	kind, ok := assetKindChoices[s]
	return kind, ok
}

// AssetKindsOf returns every kind in a category, sorted by name.
func AssetKindsOf(category Category) []AssetKind {
	if category >= CategoryCount {
		return nil
	}
	return assetKindsByCat[category]
}

func (kind AssetKind) Valid() bool {
	return kind != AssetKindInvalid && int(kind) < AssetKindCount
}

func (kind AssetKind) Data() *AssetKindData {
	if !kind.Valid() {
		return &assetKindData[AssetKindInvalid]
	}
	return &assetKindData[kind]
}

func (kind AssetKind) Category() Category {
	return kind.Data().Category
}

func (kind AssetKind) String() string {
	if !kind.Valid() {
		return assetKindStrings[AssetKindInvalid]
	}
	return assetKindStrings[kind]
}

func (kind AssetKind) AppendText(buf []byte) []byte {
	return append(buf, kind.String()...)
}

func (kind AssetKind) MarshalText() ([]byte, error) {
	return kind.AppendText(nil), nil
}

func (kind *AssetKind) UnmarshalText(text []byte) error {
	k, ok := assetKindChoices[string(text)]
	if !ok {
		return errors.New("invalid asset kind: " + string(text))
	}
	*kind = k
	return nil
}
