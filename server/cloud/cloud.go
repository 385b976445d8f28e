// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/cloud/db"
	"github.com/SoftbearStudios/realmwalk/server/cloud/fs"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Options name the asset sources. Empty fields are not used.
type Options struct {
	Dir           string // directory of objects
	Pack          string // SQLite pack file
	Bucket        string // S3 bucket
	ManifestTable string // DynamoDB manifest table
	Region        string // AWS region, required with Bucket or ManifestTable
}

// A nil cloud is valid to use with any methods (acts as a no-op)
// This just means every asset falls back to its placeholder
type Cloud struct {
	region   string
	sources  []string
	manifest db.Manifest
	fs       fs.Stack
	closers  []func() error
}

func (cloud *Cloud) String() string {
	var builder strings.Builder
	builder.WriteByte('[')
	if cloud == nil {
		builder.WriteString("offline")
	} else {
		builder.WriteString(strings.Join(cloud.sources, " "))
	}
	builder.WriteByte(']')
	return builder.String()
}

// New opens the configured sources, searched in the order directory, pack,
// bucket. Returns a nil cloud if no source is configured.
func New(options Options) (*Cloud, error) {
	if options.Dir == "" && options.Pack == "" && options.Bucket == "" {
		return nil, nil
	}

	cloud := &Cloud{region: options.Region}

	if options.Dir != "" {
		dir, err := fs.NewDirFilesystem(options.Dir)
		if err != nil {
			return nil, err
		}
		cloud.fs = append(cloud.fs, dir)
		cloud.sources = append(cloud.sources, "dir:"+options.Dir)
	}

	if options.Pack != "" {
		pack, err := fs.OpenSQLitePack(options.Pack)
		if err != nil {
			return nil, err
		}
		cloud.fs = append(cloud.fs, pack)
		cloud.closers = append(cloud.closers, pack.Close)
		cloud.sources = append(cloud.sources, "pack:"+options.Pack)
	}

	if options.Bucket != "" || options.ManifestTable != "" {
		if options.Region == "" {
			_ = cloud.Close()
			return nil, errors.New("missing region")
		}
		sess, err := getAWSSession(options.Region)
		if err != nil {
			_ = cloud.Close()
			return nil, err
		}
		if err := cloud.openAWS(sess, options); err != nil {
			_ = cloud.Close()
			return nil, err
		}
	}

	return cloud, nil
}

func (cloud *Cloud) openAWS(sess *session.Session, options Options) error {
	if options.Bucket != "" {
		s3, err := fs.NewS3Filesystem(sess, options.Bucket)
		if err != nil {
			return err
		}
		cloud.fs = append(cloud.fs, s3)
		cloud.sources = append(cloud.sources, "s3:"+options.Bucket)
	}
	if options.ManifestTable != "" {
		manifest, err := db.NewDynamoDBManifest(sess, options.ManifestTable)
		if err != nil {
			return err
		}
		cloud.manifest = manifest
		cloud.sources = append(cloud.sources, "manifest:"+options.ManifestTable)
	}
	return nil
}

// NewWith builds a cloud from already opened parts.
func NewWith(manifest db.Manifest, filesystems ...fs.Filesystem) *Cloud {
	cloud := &Cloud{manifest: manifest, fs: filesystems}
	for _, f := range filesystems {
		cloud.sources = append(cloud.sources, fmt.Sprintf("%T", f))
	}
	return cloud
}

// Key returns the object key holding kind's template, consulting the
// manifest before falling back to the built in key.
func (cloud *Cloud) Key(ctx context.Context, kind world.AssetKind) (string, error) {
	key := kind.Data().Key
	if cloud == nil || cloud.manifest == nil {
		return key, nil
	}

	entry, err := cloud.manifest.ReadEntry(ctx, kind.String())
	switch {
	case err == nil && entry.Key != "":
		return entry.Key, nil
	case err == nil || errors.Is(err, db.ErrNotFound):
		return key, nil
	default:
		return "", fmt.Errorf("manifest %s: %w", kind, err)
	}
}

// Load implements asset.Loader.
func (cloud *Cloud) Load(ctx context.Context, kind world.AssetKind) (*asset.Template, error) {
	if cloud == nil || len(cloud.fs) == 0 {
		return nil, asset.ErrNotFound
	}

	key, err := cloud.Key(ctx, kind)
	if err != nil {
		return nil, err
	}

	raw, err := cloud.fs.ReadAsset(ctx, key)
	if errors.Is(err, fs.ErrNotFound) {
		return nil, fmt.Errorf("%v: %w", err, asset.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return asset.Decode(key, raw)
}

// Close releases open packs.
func (cloud *Cloud) Close() (err error) {
	if cloud == nil {
		return nil
	}
	for _, closer := range cloud.closers {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}
	cloud.closers = nil
	return
}

// Publish stores template under key in the first writable source and points
// the manifest entry of kind at it. Keys ending in asset.CompressedSuffix are
// compressed.
func (cloud *Cloud) Publish(ctx context.Context, kind world.AssetKind, key string, template *asset.Template, version int) error {
	if cloud == nil {
		return errors.New("offline")
	}
	if err := template.Validate(); err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}

	var writer fs.Writer
	for _, f := range cloud.fs {
		if w, ok := f.(fs.Writer); ok {
			writer = w
			break
		}
	}
	if writer == nil {
		return fmt.Errorf("publish %s: no writable source", kind)
	}

	buf, err := template.Encode()
	if err != nil {
		return err
	}
	if strings.HasSuffix(key, asset.CompressedSuffix) {
		buf = asset.Compress(buf)
	}
	if err = writer.WriteAsset(ctx, key, buf); err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}

	if cloud.manifest == nil {
		return nil
	}
	return cloud.manifest.UpdateEntry(ctx, db.Entry{Kind: kind.String(), Key: key, Version: version})
}
