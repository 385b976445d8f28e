// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command pack_cmd publishes the synthesized template of every asset kind, as
// a starting point for hand made ones.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/cloud"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

func main() {
	var (
		options  cloud.Options
		compress bool
		version  int
	)

	flag.StringVar(&options.Dir, "dir", "", "asset directory to write")
	flag.StringVar(&options.Pack, "pack", "", "sqlite asset pack to write")
	flag.StringVar(&options.Bucket, "bucket", "", "s3 bucket to write")
	flag.StringVar(&options.ManifestTable, "manifest", "", "dynamodb manifest table to update")
	flag.StringVar(&options.Region, "region", "", "aws region")
	flag.BoolVar(&compress, "compress", false, "zstd compress templates, found through the manifest")
	flag.IntVar(&version, "version", 1, "manifest version of the published templates")
	flag.Parse()

	c, err := cloud.New(options)
	if err != nil {
		log.Fatal(err)
	}
	if c == nil {
		log.Fatal("no destination")
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for i := 1; i < world.AssetKindCount; i++ {
		kind := world.AssetKind(i)
		template := asset.Synthesize(kind)
		template.Fallback = false

		key := kind.Data().Key
		if compress {
			key += asset.CompressedSuffix
		}
		if err := c.Publish(ctx, kind, key, template, version); err != nil {
			log.Fatal(err)
		}
		log.Printf("published %s to %s %s\n", kind, key, c)
	}
}
