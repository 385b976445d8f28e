// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package compressed

import (
	"errors"

	"github.com/SoftbearStudios/realmwalk/server/terrain"
	"github.com/SoftbearStudios/realmwalk/server/world"
)

// Resolution is the number of height samples along each side of a chunk.
// It must be a multiple of 16.
const Resolution = 16

const nibbleMax = 0b1111

// Heightmap stores a chunk's coarse terrain as nibbles relative to the
// chunk's lowest sample. It implements world.Heightmap.
type Heightmap struct {
	data [Resolution][Resolution / 16]uint64
	base float32 // height of nibble 0
	step float32 // height of one nibble increment
}

var _ world.Heightmap = (*Heightmap)(nil)

// Generate samples source at the center of each cell of a chunk.
func Generate(source terrain.Source, origin world.Vec2f, size float32) *Heightmap {
	var samples [Resolution * Resolution]float32

	cell := size / Resolution
	min := source.Height(origin.X+cell/2, origin.Z+cell/2)
	max := min

	for j := 0; j < Resolution; j++ {
		for i := 0; i < Resolution; i++ {
			h := source.Height(origin.X+(float32(i)+0.5)*cell, origin.Z+(float32(j)+0.5)*cell)
			samples[i+j*Resolution] = h
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}

	m := &Heightmap{base: min}
	if max > min {
		m.step = (max - min) / nibbleMax
	}

	for j := 0; j < Resolution; j++ {
		for i := 0; i < Resolution; i++ {
			var nibble byte
			if m.step > 0 {
				nibble = byte((samples[i+j*Resolution]-min)/m.step + 0.5)
			}
			m.set(uint(i), uint(j), nibble)
		}
	}

	return m
}

func (m *Heightmap) Resolution() int {
	return Resolution
}

// At implements world.Heightmap.At.
func (m *Heightmap) At(i, j int) float32 {
	return m.base + float32(m.nibble(uint(i), uint(j)))*m.step
}

// Base is the height of the lowest sample.
func (m *Heightmap) Base() float32 {
	return m.base
}

// Step is the height difference between adjacent quantization levels.
func (m *Heightmap) Step() float32 {
	return m.step
}

// Encode run length encodes the nibbles in row order.
func (m *Heightmap) Encode() []byte {
	var buffer Buffer
	buffer.Grow(Resolution * Resolution)
	for j := uint(0); j < Resolution; j++ {
		for i := uint(0); i < Resolution; i++ {
			buffer.writeByte(m.nibble(i, j) << 4)
		}
	}
	return buffer.Buffer()
}

// Decode reverses Encode given the base and step that were sent alongside.
func Decode(encoded []byte, base, step float32) (*Heightmap, error) {
	var buffer Buffer
	buffer.Reset(append([]byte(nil), encoded...))

	var raw [Resolution * Resolution]byte
	n, err := buffer.Read(raw[:])
	if err != nil {
		return nil, err
	}
	if n != len(raw) {
		return nil, errors.New("heightmap: short data")
	}

	m := &Heightmap{base: base, step: step}
	for j := uint(0); j < Resolution; j++ {
		for i := uint(0); i < Resolution; i++ {
			m.set(i, j, raw[i+j*Resolution]>>4)
		}
	}
	return m, nil
}

func (m *Heightmap) nibble(x, y uint) byte {
	return byte(m.data[y][x/16]>>((x%16)*4)) & nibbleMax
}

func (m *Heightmap) set(x, y uint, nibble byte) {
	shift := (x % 16) * 4
	word := &m.data[y][x/16]
	*word = (*word &^ (nibbleMax << shift)) | uint64(nibble&nibbleMax)<<shift
}
