// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const packSchema = `CREATE TABLE IF NOT EXISTS assets (
	key  TEXT PRIMARY KEY,
	data BLOB NOT NULL
)`

// SQLitePack is a single file holding many objects, for shipping assets
// without a bucket.
type SQLitePack struct {
	db   *sql.DB
	path string
}

func OpenSQLitePack(path string) (*SQLitePack, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(packSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &SQLitePack{db: db, path: path}, nil
}

func (pack *SQLitePack) ReadAsset(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := pack.db.QueryRowContext(ctx, `SELECT data FROM assets WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s:%s: %w", pack.path, key, ErrNotFound)
	}
	return data, err
}

func (pack *SQLitePack) WriteAsset(ctx context.Context, key string, data []byte) error {
	_, err := pack.db.ExecContext(ctx, `INSERT OR REPLACE INTO assets (key, data) VALUES (?, ?)`, key, data)
	return err
}

// Keys lists every key in the pack in order.
func (pack *SQLitePack) Keys(ctx context.Context) (keys []string, err error) {
	rows, err := pack.db.QueryContext(ctx, `SELECT key FROM assets ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return
		}
		keys = append(keys, key)
	}
	err = rows.Err()
	return
}

func (pack *SQLitePack) Close() error {
	return pack.db.Close()
}
