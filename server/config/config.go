// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/SoftbearStudios/realmwalk/server/asset"
	"github.com/SoftbearStudios/realmwalk/server/cloud"
	"github.com/SoftbearStudios/realmwalk/server/lod"
	"github.com/SoftbearStudios/realmwalk/server/place"
	"github.com/SoftbearStudios/realmwalk/server/stream"
	"github.com/SoftbearStudios/realmwalk/server/terrain/noise"
	"github.com/SoftbearStudios/realmwalk/server/world"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation error.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	ChunkSize     float64 `yaml:"chunk_size"`
	RenderRadius  float64 `yaml:"render_radius"`
	CleanupRadius float64 `yaml:"cleanup_radius"`
	CullFactor    float64 `yaml:"cull_factor"`
	ForwardBias   float64 `yaml:"forward_bias"`
	Strict        bool    `yaml:"strict"`
	// Realm is the realm streamed by default.
	Realm string `yaml:"realm"`

	LOD       lod.Thresholds      `yaml:"lod"`
	Assets    Assets              `yaml:"assets"`
	Terrain   noise.Options       `yaml:"terrain"`
	Anchors   []world.Vec2f       `yaml:"anchors"`
	Placement map[string]RealmMap `yaml:"placement"`
}

type Assets struct {
	MaxIdle       int           `yaml:"max_idle"`
	LoadTimeout   time.Duration `yaml:"load_timeout"`
	Dir           string        `yaml:"dir"`
	Pack          string        `yaml:"pack"`
	Bucket        string        `yaml:"bucket"`
	ManifestTable string        `yaml:"manifest_table"`
	Region        string        `yaml:"region"`
}

// RealmMap maps category names to their rule.
type RealmMap map[string]Rule

// Rule is the file form of place.Rule. Ranges are [min, max] pairs.
type Rule struct {
	Count           [2]float32         `yaml:"count"`
	Spacing         float32            `yaml:"spacing"`
	Footprint       float32            `yaml:"footprint"`
	Attempts        int                `yaml:"attempts"`
	Corridor        float32            `yaml:"corridor"`
	OnPath          bool               `yaml:"on_path"`
	Offset          [2]float32         `yaml:"offset"`
	AnchorClearance float32            `yaml:"anchor_clearance"`
	MaxSlope        float32            `yaml:"max_slope"`
	Scale           [2]float32         `yaml:"scale"`
	Kinds           map[string]float32 `yaml:"kinds"`
}

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built in configuration.
func Default() *Config {
	var cfg Config
	if err := decode(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("default.yaml: %v", err))
	}
	return &cfg
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode rejects unknown keys so typos do not silently fall back to defaults.
func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, a...))
}

func (c *Config) Validate() error {
	if err := c.Stream().Validate(); err != nil {
		return invalid("%v", err)
	}
	if _, err := c.Selector(); err != nil {
		return invalid("%v", err)
	}
	if c.Assets.MaxIdle < 0 {
		return invalid("assets.max_idle cannot be negative")
	}
	if c.Assets.LoadTimeout < 0 {
		return invalid("assets.load_timeout cannot be negative")
	}
	if (c.Assets.Bucket != "" || c.Assets.ManifestTable != "") && c.Assets.Region == "" {
		return invalid("assets.region required with a bucket or manifest table")
	}
	if _, ok := c.Placement[c.Realm]; !ok {
		return invalid("realm %q has no placement", c.Realm)
	}
	for _, realm := range c.Realms() {
		if _, err := c.Rules(realm); err != nil {
			return err
		}
	}
	return nil
}

// Realms returns the names of every realm in order.
func (c *Config) Realms() []string {
	realms := make([]string, 0, len(c.Placement))
	for name := range c.Placement {
		realms = append(realms, name)
	}
	sort.Strings(realms)
	return realms
}

func (c *Config) Stream() stream.Config {
	return stream.Config{
		ChunkSize:     c.ChunkSize,
		RenderRadius:  c.RenderRadius,
		CleanupRadius: c.CleanupRadius,
		CullFactor:    c.CullFactor,
		ForwardBias:   c.ForwardBias,
		Strict:        c.Strict,
	}
}

func (c *Config) Selector() (lod.Selector, error) {
	return lod.New(c.LOD)
}

func (c *Config) Cache() asset.Options {
	return asset.Options{MaxIdle: c.Assets.MaxIdle, Timeout: c.Assets.LoadTimeout}
}

func (c *Config) Cloud() cloud.Options {
	return cloud.Options{
		Dir:           c.Assets.Dir,
		Pack:          c.Assets.Pack,
		Bucket:        c.Assets.Bucket,
		ManifestTable: c.Assets.ManifestTable,
		Region:        c.Assets.Region,
	}
}

// Rules converts the placement of realm. Kinds are ordered by name so the
// weighted choice does not depend on map order.
func (c *Config) Rules(realm string) (place.Rules, error) {
	rules := place.Rules{Realm: realm, Anchors: c.Anchors}

	realmMap, ok := c.Placement[realm]
	if !ok {
		return rules, invalid("unknown realm %q", realm)
	}

	for name, r := range realmMap {
		category, err := world.ParseCategory(name)
		if err != nil {
			return rules, invalid("placement.%s: %v", realm, err)
		}

		rule := &place.Rule{
			CountMin:        r.Count[0],
			CountMax:        r.Count[1],
			Spacing:         r.Spacing,
			Footprint:       r.Footprint,
			Attempts:        r.Attempts,
			Corridor:        r.Corridor,
			OnPath:          r.OnPath,
			OffsetMin:       r.Offset[0],
			OffsetMax:       r.Offset[1],
			AnchorClearance: r.AnchorClearance,
			MaxSlope:        r.MaxSlope,
			ScaleMin:        r.Scale[0],
			ScaleMax:        r.Scale[1],
		}

		names := make([]string, 0, len(r.Kinds))
		for kindName := range r.Kinds {
			names = append(names, kindName)
		}
		sort.Strings(names)
		for _, kindName := range names {
			kind, ok := world.LookupAssetKind(kindName)
			if !ok {
				return rules, invalid("placement.%s.%s: unknown kind %q", realm, name, kindName)
			}
			rule.Kinds = append(rule.Kinds, place.Weighted{Kind: kind, Weight: r.Kinds[kindName]})
		}

		rules.Categories[category] = rule
	}

	if err := rules.Validate(); err != nil {
		return rules, invalid("placement.%s: %v", realm, err)
	}
	return rules, nil
}

// Placer builds the placer of realm over the configured terrain.
func (c *Config) Placer(realm string) (*place.Placer, error) {
	rules, err := c.Rules(realm)
	if err != nil {
		return nil, err
	}
	return place.New(rules, noise.New(c.Terrain))
}
