// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned for a kind the manifest has no entry for.
var ErrNotFound = errors.New("manifest entry not found")

// Manifest maps asset kind names to the stored object holding their template.
type Manifest interface {
	ReadEntry(ctx context.Context, kind string) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) error
	ReadEntries(ctx context.Context) ([]Entry, error)
}

// MemoryManifest is a Manifest held in a map. It is safe for concurrent
// reads but not concurrent with UpdateEntry.
type MemoryManifest map[string]Entry

func (m MemoryManifest) ReadEntry(ctx context.Context, kind string) (Entry, error) {
	entry, ok := m[kind]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (m MemoryManifest) UpdateEntry(ctx context.Context, entry Entry) error {
	if current, ok := m[entry.Kind]; ok && current.Version > entry.Version {
		return nil
	}
	m[entry.Kind] = entry
	return nil
}

func (m MemoryManifest) ReadEntries(ctx context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(m))
	for _, entry := range m {
		entries = append(entries, entry)
	}
	return entries, nil
}
