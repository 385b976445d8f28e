// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

// Entry redirects an asset kind to a specific stored object, so templates can
// be updated without changing the built in keys.
type Entry struct {
	Kind    string `dynamo:"kind"`
	Key     string `dynamo:"key"`
	Version int    `dynamo:"version"`
}
