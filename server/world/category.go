// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "errors"

// Category is the kind of content a placement rule governs.
// Every AssetKind belongs to exactly one Category.
type Category uint8

const (
	CategoryInvalid Category = iota
	CategoryTree
	CategoryRock
	CategoryBush
	CategoryFlower
	CategoryMountain
	CategoryPathStone
	// CategoryCount is one more than the largest valid Category, for lookup tables.
	CategoryCount
)

var categoryStrings = [CategoryCount]string{
	CategoryInvalid:   "invalid",
	CategoryTree:      "tree",
	CategoryRock:      "rock",
	CategoryBush:      "bush",
	CategoryFlower:    "flower",
	CategoryMountain:  "mountain",
	CategoryPathStone: "pathStone",
}

// Categories lists valid categories in placement order.
func Categories() []Category {
	categories := make([]Category, 0, CategoryCount-1)
	for c := CategoryInvalid + 1; c < CategoryCount; c++ {
		categories = append(categories, c)
	}
	return categories
}

func ParseCategory(s string) (Category, error) {
	for i, str := range categoryStrings {
		if i != int(CategoryInvalid) && str == s {
			return Category(i), nil
		}
	}
	return CategoryInvalid, errors.New("invalid category: " + s)
}

func (category Category) String() string {
	if category >= CategoryCount {
		return categoryStrings[CategoryInvalid]
	}
	return categoryStrings[category]
}

func (category Category) MarshalText() ([]byte, error) {
	return []byte(category.String()), nil
}

func (category *Category) UnmarshalText(text []byte) (err error) {
	*category, err = ParseCategory(string(text))
	return
}
