package sketch

import (
	"math"
	"strings"

	"lumen.art/node/surface"
)

// bind publishes the capability environment into the runtime. Every name the
// artist code may use is set here, explicitly, from the Env — the vocabulary
// is small and fixed.
func (c *Context) bind() error {
	vm, cv, st := c.vm, c.env.Canvas, c.env.Stream

	vars := make([]float64, len(c.env.Vars))
	copy(vars, c.env.Vars[:])

	bindings := map[string]any{
		"width":       float64(surface.Width),
		"height":      float64(surface.Height),
		"VAR":         vars,
		"totalFrames": c.env.TotalFrames,
		"fps":         c.env.FPS,

		"random": st.Random,
		"noise":  st.Noise,

		"background":   cv.Background,
		"fill":         cv.Fill,
		"stroke":       cv.Stroke,
		"noFill":       cv.NoFill,
		"noStroke":     cv.NoStroke,
		"strokeWeight": cv.StrokeWeight,
		"rect":         cv.Rect,
		"square":       cv.Square,
		"ellipse":      cv.Ellipse,
		"circle":       cv.Circle,
		"line":         cv.Line,
		"triangle":     cv.Triangle,
		"quad":         cv.Quad,
		"arc":          cv.Arc,
		"point":        cv.Point,
		"text":         cv.Text,
		"beginShape":   cv.BeginShape,
		"vertex":       cv.Vertex,
		"push":         cv.Push,
		"pop":          cv.Pop,
		"translate":    cv.Translate,
		"rotate":       cv.Rotate,
		"scale":        cv.Scale,
		"resetMatrix":  cv.ResetMatrix,

		"endShape": func(mode ...string) {
			cv.EndShape(len(mode) > 0 && strings.EqualFold(mode[0], "close"))
		},
		"colorMode": func(space string, maxes ...float64) {
			cv.ColorMode(parseColorSpace(space), maxes...)
		},
		"rectMode": func(mode string) {
			cv.RectMode(parseShapeMode(mode))
		},
		"ellipseMode": func(mode string) {
			cv.EllipseMode(parseShapeMode(mode))
		},
		"resizeCanvas": func(w, h float64) {
			// The canvas size is protocol-fixed; the attempt aborts the
			// execution rather than being silently ignored.
			c.abort(cv.Resize(int(w), int(h)))
		},

		"map":       mapRange,
		"constrain": constrain,
		"lerp":      lerpf,
		"dist":      dist,
		"sin":       math.Sin,
		"cos":       math.Cos,
		"tan":       math.Tan,
		"atan2":     math.Atan2,
		"sqrt":      math.Sqrt,
		"pow":       math.Pow,
		"abs":       math.Abs,
		"floor":     math.Floor,
		"ceil":      math.Ceil,
		"min":       math.Min,
		"max":       math.Max,
		"PI":        math.Pi,
		"TWO_PI":    2 * math.Pi,
	}

	for name, v := range bindings {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func parseShapeMode(s string) surface.ShapeMode {
	switch strings.ToLower(s) {
	case "center":
		return surface.ModeCenter
	case "corners":
		return surface.ModeCorners
	case "radius":
		return surface.ModeRadius
	default:
		return surface.ModeCorner
	}
}

func parseColorSpace(s string) surface.ColorSpace {
	if strings.EqualFold(s, "hsb") {
		return surface.HSB
	}
	return surface.RGB
}

// mapRange re-maps v from [a1, b1] to [a2, b2] without clamping.
func mapRange(v, a1, b1, a2, b2 float64) float64 {
	if b1 == a1 {
		return a2
	}
	return a2 + (v-a1)*(b2-a2)/(b1-a1)
}

func constrain(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerpf(a, b, t float64) float64 { return a + t*(b-a) }

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
