// Package rng implements the protocol's seeded number stream.
//
// The generator is a 32-bit counter-based stream whose exact bit sequence is
// the compatibility contract: every node implementation must produce the same
// draws for the same seed, forever. Do not substitute a different update
// function, however better its statistical properties.
package rng

import (
	"math"
	"unicode/utf16"
)

const increment = 0x6D2B79F5

// Stream is a deterministic pseudorandom stream. It is not safe for
// concurrent use; one execution owns one Stream.
type Stream struct {
	state uint32
	seed  uint32

	noise *noiseField
}

// New returns a stream seeded with a 32-bit state.
func New(seed uint32) *Stream {
	return &Stream{state: seed, seed: seed}
}

// NewFromNumber reduces a numeric seed modulo 2^32.
func NewFromNumber(seed float64) *Stream {
	return New(reduceNumber(seed))
}

// NewFromString folds a string seed over its UTF-16 code units:
// acc = acc*31 + unit (mod 2^32).
func NewFromString(seed string) *Stream {
	return New(FoldString(seed))
}

// FoldString reduces a string seed to its 32-bit state.
func FoldString(s string) uint32 {
	var acc uint32
	for _, u := range utf16.Encode([]rune(s)) {
		acc = acc*31 + uint32(u)
	}
	return acc
}

func reduceNumber(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	t := math.Trunc(f)
	m := math.Mod(t, 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

// Float64 advances the stream and returns the next draw in [0, 1).
//
// The update is fixed by the protocol: all arithmetic wraps at 32 bits.
func (s *Stream) Float64() float64 {
	s.state += increment
	r := s.state ^ (s.state >> 15)
	r = r * (s.state | 1)
	r ^= r + (r^(r>>7))*(r|61)
	r ^= r >> 14
	return float64(r) / (1 << 32)
}

// Random maps the next draw into a range:
// no arguments [0,1), one argument [0,a), two arguments [a,b).
// Extra arguments beyond two are ignored.
func (s *Stream) Random(args ...float64) float64 {
	u := s.Float64()
	switch len(args) {
	case 0:
		return u
	case 1:
		return u * args[0]
	default:
		return args[0] + u*(args[1]-args[0])
	}
}
