// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"image/png"
	"log"
	"os"
	"runtime/pprof"

	"github.com/SoftbearStudios/realmwalk/server/config"
	"github.com/SoftbearStudios/realmwalk/server/terrain"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

func main() {
	var (
		cpuProfile string
		configPath string
		realm      string
		out        string
		x, z       int
		span       int
		scale      float64
	)

	flag.StringVar(&cpuProfile, "cpuprofile", "", "write cpu profile to `file`")
	flag.StringVar(&configPath, "config", "", "yaml config, overlaid on the defaults")
	flag.StringVar(&realm, "realm", "", "realm to render (default from config)")
	flag.StringVar(&out, "out", "out.png", "output png")
	flag.IntVar(&x, "x", -2, "first chunk x")
	flag.IntVar(&z, "z", 0, "first chunk z")
	flag.IntVar(&span, "span", 5, "chunks per side")
	flag.Float64Var(&scale, "scale", 2, "pixels per meter")
	flag.Parse()

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}
	if realm == "" {
		realm = cfg.Realm
	}

	if err := run(cfg, realm, world.ChunkCoord{X: int32(x), Z: int32(z)}, span, float32(scale), out); err != nil {
		log.Fatal(err)
	}
}

// run places a span by span window of chunks starting at first and renders it.
func run(cfg *config.Config, realm string, first world.ChunkCoord, span int, scale float32, out string) error {
	placer, err := cfg.Placer(realm)
	if err != nil {
		return err
	}

	chunks := make([]*world.Chunk, 0, span*span)
	for j := 0; j < span; j++ {
		for i := 0; i < span; i++ {
			chunk := world.NewChunk(world.ChunkCoord{X: first.X + int32(i), Z: first.Z + int32(j)}, float32(cfg.ChunkSize))
			placer.Survey(chunk)
			instances, err := placer.Place(chunk)
			if err != nil {
				return err
			}
			chunk.Adopt(instances)
			chunks = append(chunks, chunk)
		}
	}

	img := terrain.Render(chunks, scale)

	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}
