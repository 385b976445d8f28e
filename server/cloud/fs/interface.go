// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a filesystem has no object under a key.
var ErrNotFound = errors.New("object not found")

// Filesystem is a read only source of stored asset objects. Keys are
// slash separated.
type Filesystem interface {
	ReadAsset(ctx context.Context, key string) ([]byte, error)
}

// Writer is implemented by filesystems that asset packs can be written to.
type Writer interface {
	WriteAsset(ctx context.Context, key string, data []byte) error
}
