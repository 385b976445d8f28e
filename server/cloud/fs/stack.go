// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"context"
	"errors"
	"fmt"
)

// Stack reads from the first Filesystem that has the object. An error other
// than ErrNotFound does not stop the search but is returned if no later
// Filesystem has the object.
type Stack []Filesystem

func (stack Stack) ReadAsset(ctx context.Context, key string) ([]byte, error) {
	var firstErr error
	for _, fs := range stack {
		data, err := fs.ReadAsset(ctx, key)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if firstErr == nil && !errors.Is(err, ErrNotFound) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
}
