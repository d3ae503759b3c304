// Package camera provides a 2D camera for viewing the canvas.
package camera

// Camera controls the viewport onto a bounded canvas.
type Camera struct {
	// Position is the camera center in canvas coordinates
	X, Y float32

	// Zoom level (1.0 = one screen pixel per cell)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Canvas dimensions
	CanvasW, CanvasH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera with the whole canvas fitted into the viewport.
func New(viewportW, viewportH, canvasW, canvasH float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		CanvasW:   canvasW,
		CanvasH:   canvasH,
		MaxZoom:   32,
	}
	c.Reset()
	return c
}

// FitZoom is the zoom at which the whole canvas just fits the viewport.
func (c *Camera) FitZoom() float32 {
	return min(c.ViewportW/c.CanvasW, c.ViewportH/c.CanvasH)
}

// WorldToScreen converts canvas coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to canvas coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// Contains reports whether a canvas position lies on the canvas.
func (c *Camera) Contains(wx, wy float32) bool {
	return wx >= 0 && wy >= 0 && wx < c.CanvasW && wy < c.CanvasH
}

// CanvasRect returns the screen rectangle the canvas is drawn into.
func (c *Camera) CanvasRect() (x, y, w, h float32) {
	x, y = c.WorldToScreen(0, 0)
	return x, y, c.CanvasW * c.Zoom, c.CanvasH * c.Zoom
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.FitZoom() / 2
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays on the canvas.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, c.CanvasW)
	c.Y = clamp(c.Y+dy/c.Zoom, 0, c.CanvasH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the canvas point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	c.X = wx - (sx-c.ViewportW/2)/c.Zoom
	c.Y = wy - (sy-c.ViewportH/2)/c.Zoom
}

// Reset centers the canvas and fits it to the viewport.
func (c *Camera) Reset() {
	c.X = c.CanvasW / 2
	c.Y = c.CanvasH / 2
	c.MinZoom = c.FitZoom() / 2
	c.Zoom = c.FitZoom()
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
