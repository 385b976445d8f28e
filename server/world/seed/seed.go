// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package seed derives reproducible pseudo-random values from chunk coordinates.
// Nothing in this package holds state, so every function may be called from any goroutine.
package seed

// Seed is the root of all pseudo-randomness for one chunk.
type Seed uint32

// worldSalt keeps chunk (0, 0) from hashing to 0 (Hash32 maps 0 to 0).
const worldSalt = 0x2545f491

// Hash32 mixes 32 bits of input into a well distributed 32 bit output (murmur3 finalizer).
func Hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// Of returns the seed of the chunk at (cx, cz).
// Within int16 range it is injective, beyond that collisions are merely unlikely.
func Of(cx, cz int32) Seed {
	h := uint32(uint16(cx))<<16 | uint32(uint16(cz))

	// High bits that are more than sign extension
	hx, hz := cx>>15, cz>>15
	if (hx != 0 && hx != -1) || (hz != 0 && hz != -1) {
		h ^= Hash32(uint32(hx)*0x9e3779b1 + uint32(hz)*0x85ebca6b)
	}

	return Seed(Hash32(h ^ worldSalt))
}

// Sub derives an independent stream from s, such as one per content category.
func Sub(s Seed, salt uint32) Seed {
	return Seed(Hash32(uint32(s) ^ Hash32(salt*0xc2b2ae35+0x27d4eb2f)))
}

// Next returns a float in [0, 1) that only depends on seed and index.
func Next(s Seed, index uint32) float32 {
	h := Hash32(uint32(s) ^ Hash32(index*0x9e3779b9+0x632be5ab))
	// 24 bits fit exactly in a float32 mantissa so the result never rounds up to 1.
	return float32(h>>8) * (1.0 / (1 << 24))
}

// Range maps Next onto [lo, hi).
func Range(s Seed, index uint32, lo, hi float32) float32 {
	return lo + (hi-lo)*Next(s, index)
}

// Pair returns two decorrelated values in [lo, hi) from consecutive indices.
func Pair(s Seed, index uint32, lo, hi float32) (float32, float32) {
	return Range(s, index, lo, hi), Range(s, index+1, lo, hi)
}

// Pick makes a weighted discrete choice, returning an index into weights.
// Non-positive weights are never chosen. Returns -1 if no weight is positive.
func Pick(s Seed, index uint32, weights []float32) int {
	var total float32
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	target := Next(s, index) * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if target < w {
			return i
		}
		target -= w
	}

	// Float rounding can walk off the end
	return last
}

// String hashes a name, so things identified by strings can derive stable seeds.
func String(s string) Seed {
	// FNV-1a, then finalized so short names still spread over all bits
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return Seed(Hash32(h))
}
