// Package surface maps the protocol's fixed drawing vocabulary onto a raster
// canvas.
//
// The canvas dimensions are protocol constants. The same call sequence always
// produces the same pixels; any call that would change the canvas size is a
// protocol violation, never silently ignored.
package surface

import (
	"bytes"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
)

// Protocol-fixed canvas dimensions.
const (
	Width  = 1000
	Height = 1000
)

// ShapeMode controls how rect/ellipse coordinates are interpreted.
type ShapeMode int

const (
	ModeCorner ShapeMode = iota
	ModeCenter
	ModeCorners
	ModeRadius
)

// style is the mutable drawing-mode state saved and restored by Push/Pop.
type style struct {
	fill          color.NRGBA
	stroke        color.NRGBA
	fillEnabled   bool
	strokeEnabled bool
	strokeWeight  float64
	rectMode      ShapeMode
	ellipseMode   ShapeMode
	colors        colorState
}

// Canvas is one drawing surface. A static render owns one Canvas; a loop
// render mutates one persistent Canvas across all frames. Not safe for
// concurrent use.
type Canvas struct {
	dc    *gg.Context
	st    style
	stack []style
	path  []point
	open  bool
}

type point struct{ x, y float64 }

// New returns a canvas at the protocol-fixed size, cleared to white with the
// default style (white fill, black stroke, weight 1).
func New() *Canvas {
	c := &Canvas{
		dc: gg.NewContext(Width, Height),
		st: style{
			fill:          color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			stroke:        color.NRGBA{A: 255},
			fillEnabled:   true,
			strokeEnabled: true,
			strokeWeight:  1,
			rectMode:      ModeCorner,
			ellipseMode:   ModeCenter,
			colors:        defaultColorState(),
		},
	}
	c.dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	c.dc.Clear()
	return c
}

// Resize is always a protocol violation: the canvas size is fixed by the
// protocol and attempts to change it must surface as errors.
func (c *Canvas) Resize(w, h int) error {
	return &ViolationError{Op: "resize", Detail: "canvas dimensions are protocol-fixed"}
}

// Background fills the whole canvas, ignoring the current transform.
func (c *Canvas) Background(args ...float64) {
	c.dc.SetColor(c.st.colors.parseColor(args))
	c.dc.Clear()
}

func (c *Canvas) Fill(args ...float64) {
	c.st.fill = c.st.colors.parseColor(args)
	c.st.fillEnabled = true
}

func (c *Canvas) Stroke(args ...float64) {
	c.st.stroke = c.st.colors.parseColor(args)
	c.st.strokeEnabled = true
}

func (c *Canvas) NoFill()   { c.st.fillEnabled = false }
func (c *Canvas) NoStroke() { c.st.strokeEnabled = false }

func (c *Canvas) StrokeWeight(w float64) {
	if w < 0 {
		w = 0
	}
	c.st.strokeWeight = w
}

// ColorMode switches the color space and per-channel maxima. With no maxima
// the previous maxima are kept; one value applies to all channels.
func (c *Canvas) ColorMode(space ColorSpace, maxes ...float64) {
	c.st.colors.space = space
	switch len(maxes) {
	case 0:
	case 1:
		for i := range c.st.colors.max {
			c.st.colors.max[i] = maxes[0]
		}
	default:
		for i, m := range maxes {
			if i >= 4 {
				break
			}
			c.st.colors.max[i] = m
		}
	}
}

func (c *Canvas) RectMode(m ShapeMode)    { c.st.rectMode = m }
func (c *Canvas) EllipseMode(m ShapeMode) { c.st.ellipseMode = m }

// Push saves the style and transform state; Pop restores it.
func (c *Canvas) Push() {
	c.stack = append(c.stack, c.st)
	c.dc.Push()
}

func (c *Canvas) Pop() {
	if n := len(c.stack); n > 0 {
		c.st = c.stack[n-1]
		c.stack = c.stack[:n-1]
		c.dc.Pop()
	}
}

func (c *Canvas) Translate(x, y float64) { c.dc.Translate(x, y) }
func (c *Canvas) Rotate(angle float64)   { c.dc.Rotate(angle) }
func (c *Canvas) Scale(x, y float64)     { c.dc.Scale(x, y) }
func (c *Canvas) ResetMatrix()           { c.dc.Identity() }

// paint fills and strokes the current gg path using the active style, then
// clears it. Fill happens before stroke so strokes stay visible.
func (c *Canvas) paint() {
	if c.st.fillEnabled {
		c.dc.SetColor(c.st.fill)
		c.dc.FillPreserve()
	}
	if c.st.strokeEnabled && c.st.strokeWeight > 0 {
		c.dc.SetColor(c.st.stroke)
		c.dc.SetLineWidth(c.st.strokeWeight)
		c.dc.Stroke()
	} else {
		c.dc.ClearPath()
	}
}

// PNG encodes the current canvas pixels. Encoding settings are fixed so the
// same pixels always produce the same bytes.
func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, c.dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
