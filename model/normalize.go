package model

import "math"

// NormalizeVars applies the lenient parameter normalization: the vector is
// padded or truncated to VarSlots entries, each entry clamped to [0, 100],
// and non-finite entries replaced with 0.
//
// This path never rejects input. Strict validation belongs to bundle
// verification and must not be conflated with it.
func NormalizeVars(vars []float64) [VarSlots]float64 {
	var out [VarSlots]float64
	for i := 0; i < VarSlots && i < len(vars); i++ {
		v := vars[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < 0 {
			v = 0
		} else if v > 100 {
			v = 100
		}
		out[i] = v
	}
	return out
}

// NormalizedVarsSlice is NormalizeVars with a slice result, for callers
// feeding the canonicalizer.
func NormalizedVarsSlice(vars []float64) []float64 {
	a := NormalizeVars(vars)
	return a[:]
}
