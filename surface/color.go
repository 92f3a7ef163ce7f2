package surface

import (
	"image/color"
	"math"
)

// ColorSpace selects how color arguments are interpreted.
type ColorSpace int

const (
	RGB ColorSpace = iota
	HSB
)

// colorState carries the active color interpretation: a space plus the
// per-channel maxima arguments are scaled against.
type colorState struct {
	space ColorSpace
	max   [4]float64
}

func defaultColorState() colorState {
	return colorState{space: RGB, max: [4]float64{255, 255, 255, 255}}
}

// parseColor interprets 1-4 numeric arguments under the active color mode.
//
//	1 arg:  gray
//	2 args: gray, alpha
//	3 args: c1, c2, c3
//	4 args: c1, c2, c3, alpha
func (cs colorState) parseColor(args []float64) color.NRGBA {
	var c1, c2, c3, a float64
	switch len(args) {
	case 0:
		return color.NRGBA{A: 255}
	case 1:
		g := clamp01(args[0] / cs.max[2])
		return color.NRGBA{R: to255(g), G: to255(g), B: to255(g), A: 255}
	case 2:
		g := clamp01(args[0] / cs.max[2])
		a = clamp01(args[1] / cs.max[3])
		return color.NRGBA{R: to255(g), G: to255(g), B: to255(g), A: to255(a)}
	case 3:
		c1, c2, c3, a = args[0], args[1], args[2], cs.max[3]
	default:
		c1, c2, c3, a = args[0], args[1], args[2], args[3]
	}

	v1 := clamp01(c1 / cs.max[0])
	v2 := clamp01(c2 / cs.max[1])
	v3 := clamp01(c3 / cs.max[2])
	va := clamp01(a / cs.max[3])

	var r, g, b float64
	if cs.space == HSB {
		r, g, b = hsbToRGB(v1, v2, v3)
	} else {
		r, g, b = v1, v2, v3
	}
	return color.NRGBA{R: to255(r), G: to255(g), B: to255(b), A: to255(va)}
}

// hsbToRGB converts hue/saturation/brightness, all in [0,1], to RGB in [0,1].
func hsbToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h*6, 6)
	if h < 0 {
		h += 6
	}
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(1, math.Max(0, f))
}

func to255(f float64) uint8 {
	return uint8(math.Round(f * 255))
}
