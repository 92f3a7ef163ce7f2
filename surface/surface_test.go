package surface

import (
	"bytes"
	"errors"
	"image/color"
	"testing"
)

func drawScene(c *Canvas) {
	c.Background(240)
	c.Fill(200, 40, 40)
	c.Stroke(0)
	c.StrokeWeight(2)
	c.Rect(100, 100, 300, 200)
	c.Push()
	c.Translate(500, 500)
	c.Rotate(0.5)
	c.NoStroke()
	c.Fill(40, 40, 200, 128)
	c.Ellipse(0, 0, 220, 140)
	c.Pop()
	c.BeginShape()
	c.Vertex(700, 100)
	c.Vertex(900, 150)
	c.Vertex(800, 320)
	c.EndShape(true)
	c.Line(0, 0, 999, 999)
	c.Point(50, 950)
}

func TestSameCallSequenceSamePixels(t *testing.T) {
	a, b := New(), New()
	drawScene(a)
	drawScene(b)
	pa, err := a.PNG()
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	pb, err := b.PNG()
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.Equal(pa, pb) {
		t.Fatal("identical call sequences produced different bytes")
	}
}

func TestResizeIsProtocolViolation(t *testing.T) {
	c := New()
	err := c.Resize(800, 600)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("Resize: got %v, want ErrProtocolViolation", err)
	}
	var v *ViolationError
	if !errors.As(err, &v) || v.Op != "resize" {
		t.Fatalf("Resize: missing violation detail: %v", err)
	}
}

func TestRectModeRemap(t *testing.T) {
	cases := []struct {
		name           string
		mode           ShapeMode
		a, b, c, d     float64
		x, y, w, h     float64
	}{
		{"corner", ModeCorner, 10, 20, 30, 40, 10, 20, 30, 40},
		{"center", ModeCenter, 10, 20, 30, 40, -5, 0, 30, 40},
		{"corners", ModeCorners, 10, 20, 30, 40, 10, 20, 20, 20},
		{"corners swapped", ModeCorners, 30, 40, 10, 20, 10, 20, 20, 20},
		{"radius", ModeRadius, 10, 20, 30, 40, -20, -20, 60, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y, w, h := remapRect(tc.mode, tc.a, tc.b, tc.c, tc.d)
			if x != tc.x || y != tc.y || w != tc.w || h != tc.h {
				t.Fatalf("remapRect = (%v,%v,%v,%v), want (%v,%v,%v,%v)",
					x, y, w, h, tc.x, tc.y, tc.w, tc.h)
			}
		})
	}
}

func TestEllipseModeRemap(t *testing.T) {
	cases := []struct {
		name           string
		mode           ShapeMode
		a, b, c, d     float64
		cx, cy, rx, ry float64
	}{
		{"center", ModeCenter, 100, 100, 50, 80, 100, 100, 25, 40},
		{"radius", ModeRadius, 100, 100, 50, 80, 100, 100, 50, 80},
		{"corner", ModeCorner, 100, 100, 50, 80, 125, 140, 25, 40},
		{"corners", ModeCorners, 100, 100, 150, 180, 125, 140, 25, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cx, cy, rx, ry := remapEllipse(tc.mode, tc.a, tc.b, tc.c, tc.d)
			if cx != tc.cx || cy != tc.cy || rx != tc.rx || ry != tc.ry {
				t.Fatalf("remapEllipse = (%v,%v,%v,%v), want (%v,%v,%v,%v)",
					cx, cy, rx, ry, tc.cx, tc.cy, tc.rx, tc.ry)
			}
		})
	}
}

func TestColorParsing(t *testing.T) {
	cs := defaultColorState()
	cases := []struct {
		name string
		args []float64
		want color.NRGBA
	}{
		{"gray", []float64{128}, color.NRGBA{128, 128, 128, 255}},
		{"gray alpha", []float64{255, 128}, color.NRGBA{255, 255, 255, 128}},
		{"rgb", []float64{255, 0, 0}, color.NRGBA{255, 0, 0, 255}},
		{"rgba", []float64{0, 255, 0, 64}, color.NRGBA{0, 255, 0, 64}},
		{"clamped", []float64{300, -10, 0}, color.NRGBA{255, 0, 0, 255}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cs.parseColor(tc.args); got != tc.want {
				t.Fatalf("parseColor(%v) = %v, want %v", tc.args, got, tc.want)
			}
		})
	}
}

func TestHSBMode(t *testing.T) {
	cs := colorState{space: HSB, max: [4]float64{360, 100, 100, 100}}
	// Hue 0, full saturation and brightness is pure red.
	if got := cs.parseColor([]float64{0, 100, 100}); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("hsb(0,100,100) = %v, want red", got)
	}
	// Hue 120 is pure green.
	if got := cs.parseColor([]float64{120, 100, 100}); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Fatalf("hsb(120,100,100) = %v, want green", got)
	}
	// Zero saturation is gray at the brightness level.
	if got := cs.parseColor([]float64{200, 0, 50}); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Fatalf("hsb(200,0,50) = %v, want mid gray", got)
	}
}

func TestColorModeMaxima(t *testing.T) {
	c := New()
	c.ColorMode(RGB, 1)
	c.Fill(1, 0, 0)
	if c.st.fill != (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("fill with unit maxima = %v", c.st.fill)
	}
	c.ColorMode(HSB, 360, 100, 100, 1)
	c.Fill(240, 100, 100, 0.5)
	if c.st.fill.B != 255 || c.st.fill.A != 128 {
		t.Fatalf("hsb fill = %v, want blue half alpha", c.st.fill)
	}
}

func TestPushPopRestoresStyle(t *testing.T) {
	c := New()
	c.Fill(10, 20, 30)
	c.StrokeWeight(5)
	c.RectMode(ModeCenter)
	before := c.st
	c.Push()
	c.Fill(200, 200, 200)
	c.NoStroke()
	c.StrokeWeight(1)
	c.RectMode(ModeCorners)
	c.Pop()
	if c.st != before {
		t.Fatalf("Pop did not restore style: %+v vs %+v", c.st, before)
	}
}

func TestPopOnEmptyStackIsNoop(t *testing.T) {
	c := New()
	c.Pop() // must not panic
	c.Rect(0, 0, 10, 10)
}
