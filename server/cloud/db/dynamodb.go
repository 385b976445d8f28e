// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

type DynamoDBManifest struct {
	svc   *dynamodb.DynamoDB
	db    *dynamo.DB
	table dynamo.Table
}

func NewDynamoDBManifest(session *session.Session, table string) (*DynamoDBManifest, error) {
	if table == "" {
		return nil, errors.New("missing manifest table")
	}
	ddb := &DynamoDBManifest{svc: dynamodb.New(session)}
	ddb.db = dynamo.NewFromIface(ddb.svc)
	ddb.table = ddb.db.Table(table)
	return ddb, nil
}

func (ddb *DynamoDBManifest) ReadEntry(ctx context.Context, kind string) (entry Entry, err error) {
	err = ddb.table.Get("kind", kind).OneWithContext(ctx, &entry)
	if errors.Is(err, dynamo.ErrNotFound) {
		err = ErrNotFound
	}
	return
}

// UpdateEntry never replaces an entry with an older version.
func (ddb *DynamoDBManifest) UpdateEntry(ctx context.Context, entry Entry) error {
	err := ddb.table.Put(entry).If("attribute_not_exists(version) OR version <= ?", entry.Version).RunWithContext(ctx)
	if err != nil {
		var conditionErr *dynamodb.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return nil
		}
	}
	return err
}

func (ddb *DynamoDBManifest) ReadEntries(ctx context.Context) (entries []Entry, err error) {
	query := ddb.table.Scan().Iter()

	for {
		var entry Entry
		ok := query.NextWithContext(ctx, &entry)
		if !ok {
			err = query.Err()
			return
		}
		entries = append(entries, entry)
	}
}
