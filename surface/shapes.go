package surface

// remapRect applies the active rect interpretation mode, returning top-left
// plus extents. The formulas are protocol-fixed.
func remapRect(mode ShapeMode, a, b, cc, d float64) (x, y, w, h float64) {
	switch mode {
	case ModeCenter:
		return a - cc/2, b - d/2, cc, d
	case ModeCorners:
		return min2(a, cc), min2(b, d), abs2(cc - a), abs2(d - b)
	case ModeRadius:
		return a - cc, b - d, cc * 2, d * 2
	default: // ModeCorner
		return a, b, cc, d
	}
}

// remapEllipse applies the active ellipse interpretation mode, returning the
// center plus radii. The formulas are protocol-fixed.
func remapEllipse(mode ShapeMode, a, b, cc, d float64) (cx, cy, rx, ry float64) {
	switch mode {
	case ModeCorner:
		return a + cc/2, b + d/2, cc / 2, d / 2
	case ModeCorners:
		x0, y0 := min2(a, cc), min2(b, d)
		w, h := abs2(cc-a), abs2(d-b)
		return x0 + w/2, y0 + h/2, w / 2, h / 2
	case ModeRadius:
		return a, b, cc, d
	default: // ModeCenter
		return a, b, cc / 2, d / 2
	}
}

func (c *Canvas) Rect(a, b, w, h float64) {
	x, y, rw, rh := remapRect(c.st.rectMode, a, b, w, h)
	c.dc.DrawRectangle(x, y, rw, rh)
	c.paint()
}

func (c *Canvas) Square(a, b, s float64) { c.Rect(a, b, s, s) }

func (c *Canvas) Ellipse(a, b, w, h float64) {
	cx, cy, rx, ry := remapEllipse(c.st.ellipseMode, a, b, w, h)
	c.dc.DrawEllipse(cx, cy, rx, ry)
	c.paint()
}

func (c *Canvas) Circle(x, y, d float64) { c.Ellipse(x, y, d, d) }

func (c *Canvas) Line(x1, y1, x2, y2 float64) {
	if !c.st.strokeEnabled || c.st.strokeWeight <= 0 {
		return
	}
	c.dc.SetColor(c.st.stroke)
	c.dc.SetLineWidth(c.st.strokeWeight)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

func (c *Canvas) Triangle(x1, y1, x2, y2, x3, y3 float64) {
	c.dc.MoveTo(x1, y1)
	c.dc.LineTo(x2, y2)
	c.dc.LineTo(x3, y3)
	c.dc.ClosePath()
	c.paint()
}

func (c *Canvas) Quad(x1, y1, x2, y2, x3, y3, x4, y4 float64) {
	c.dc.MoveTo(x1, y1)
	c.dc.LineTo(x2, y2)
	c.dc.LineTo(x3, y3)
	c.dc.LineTo(x4, y4)
	c.dc.ClosePath()
	c.paint()
}

// Arc draws an elliptical arc between start and stop angles (radians). The
// bounding box follows the active ellipse mode.
func (c *Canvas) Arc(a, b, w, h, start, stop float64) {
	cx, cy, rx, ry := remapEllipse(c.st.ellipseMode, a, b, w, h)
	c.dc.DrawEllipticalArc(cx, cy, rx, ry, start, stop)
	c.paint()
}

// Point draws a dot of the current stroke color sized by the stroke weight.
func (c *Canvas) Point(x, y float64) {
	if !c.st.strokeEnabled || c.st.strokeWeight <= 0 {
		return
	}
	r := c.st.strokeWeight / 2
	if r < 0.5 {
		r = 0.5
	}
	c.dc.SetColor(c.st.stroke)
	c.dc.DrawPoint(x, y, r)
	c.dc.Fill()
}

// Text draws s anchored at (x, y) using the current fill color.
func (c *Canvas) Text(s string, x, y float64) {
	if !c.st.fillEnabled {
		return
	}
	c.dc.SetColor(c.st.fill)
	c.dc.DrawStringAnchored(s, x, y, 0, 0)
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func abs2(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
