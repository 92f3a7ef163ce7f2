package rng

import "math"

// noiseField holds the seeded permutation backing Noise.
//
// The permutation is built from a dedicated stream seeded with the same seed
// as its parent, so interleaving Random and Noise calls never perturbs either
// sequence. This separation is part of the determinism contract.
type noiseField struct {
	perm [512]int
}

func newNoiseField(seed uint32) *noiseField {
	src := New(seed)
	var f noiseField
	p := make([]int, 256)
	for i := range p {
		p[i] = i
	}
	// Fisher-Yates driven by the seeded stream.
	for i := 255; i > 0; i-- {
		j := int(src.Float64() * float64(i+1))
		p[i], p[j] = p[j], p[i]
	}
	for i := 0; i < 256; i++ {
		f.perm[i] = p[i]
		f.perm[i+256] = p[i]
	}
	return &f
}

// Noise returns seeded procedural noise at (x, y, z), roughly in [-1, 1].
//
// The construction is fixed: fade t³(t(6t−15)+10), trilinear lerp, and a
// 16-case gradient chosen from the low 4 bits of a permutation lookup.
// Substituting another noise function breaks cross-node determinism.
func (s *Stream) Noise(x, y, z float64) float64 {
	if s.noise == nil {
		s.noise = newNoiseField(s.seed)
	}
	return s.noise.at(x, y, z)
}

func (f *noiseField) at(x, y, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	zi := int(math.Floor(z)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)

	u := fade(x)
	v := fade(y)
	w := fade(z)

	p := &f.perm
	a := p[xi] + yi
	aa := p[a] + zi
	ab := p[a+1] + zi
	b := p[xi+1] + yi
	ba := p[b] + zi
	bb := p[b+1] + zi

	return lerp(w,
		lerp(v,
			lerp(u, grad(p[aa], x, y, z), grad(p[ba], x-1, y, z)),
			lerp(u, grad(p[ab], x, y-1, z), grad(p[bb], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(p[aa+1], x, y, z-1), grad(p[ba+1], x-1, y, z-1)),
			lerp(u, grad(p[ab+1], x, y-1, z-1), grad(p[bb+1], x-1, y-1, z-1))))
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func grad(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
