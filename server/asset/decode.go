// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package asset

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompressedSuffix marks object keys holding zstd compressed templates.
const CompressedSuffix = ".zst"

//go:embed template.schema.json
var templateSchemaJSON string

var (
	templateSchema = jsonschema.MustCompileString("template.schema.json", templateSchemaJSON)

	// Shared, DecodeAll is safe for concurrent use
	zstdDecoder = func() *zstd.Decoder {
		d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			panic(err)
		}
		return d
	}()
)

// Decode turns the stored bytes of the object at key into a Template. Keys
// ending in CompressedSuffix are decompressed first. The JSON is checked
// against the template schema and the geometry is validated.
func Decode(key string, raw []byte) (*Template, error) {
	if strings.HasSuffix(key, CompressedSuffix) {
		var err error
		if raw, err = zstdDecoder.DecodeAll(raw, nil); err != nil {
			return nil, fmt.Errorf("%s: zstd: %w", key, err)
		}
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if err := templateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	template := new(Template)
	if err := json.Unmarshal(raw, template); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	return template, nil
}

// Compress is the inverse of the decompression step of Decode, for tools
// that write asset packs.
func Compress(raw []byte) []byte {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(raw, nil)
}
