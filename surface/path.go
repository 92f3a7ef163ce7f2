package surface

// BeginShape starts collecting vertices for a custom path. Vertices collected
// while no shape is open are discarded.
func (c *Canvas) BeginShape() {
	c.path = c.path[:0]
	c.open = true
}

// Vertex appends a point to the open shape.
func (c *Canvas) Vertex(x, y float64) {
	if !c.open {
		return
	}
	c.path = append(c.path, point{x, y})
}

// EndShape paints the collected path. When close is true the path is closed
// back to its first vertex before painting.
func (c *Canvas) EndShape(close bool) {
	if !c.open {
		return
	}
	c.open = false
	if len(c.path) < 2 {
		c.path = c.path[:0]
		return
	}
	c.dc.MoveTo(c.path[0].x, c.path[0].y)
	for _, p := range c.path[1:] {
		c.dc.LineTo(p.x, p.y)
	}
	if close {
		c.dc.ClosePath()
	}
	c.paint()
	c.path = c.path[:0]
}
