// Package canvas holds the paint grid that flow-field brushes work on.
//
// Every cell stores a paint mixture with one volume per palette colour. Brush
// operations address cells through anti-aliased circular footprints whose
// geometry is memoised in a RegionCache owned by the canvas.
package canvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/pthm-cable/flowpaint/paint"
	"github.com/pthm-cable/flowpaint/pigment"
)

var (
	// ErrEmptyPalette is returned when a canvas is created without colours.
	ErrEmptyPalette = errors.New("canvas: palette is empty")
	// ErrBadSize is returned for non-positive canvas dimensions.
	ErrBadSize = errors.New("canvas: width and height must be positive")
)

// Canvas is a fixed-size grid of paint mixtures over a fixed palette.
// It is not safe for concurrent use.
type Canvas struct {
	palette []pigment.Pigment
	width   int
	height  int

	// cells[y*width+x] is a window of length len(palette) into data.
	cells []paint.Mixture
	data  []float64

	regions *RegionCache
}

// New creates a blank canvas.
func New(palette []pigment.Pigment, width, height int) (*Canvas, error) {
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrBadSize, width, height)
	}

	k := len(palette)
	c := &Canvas{
		palette: append([]pigment.Pigment(nil), palette...),
		width:   width,
		height:  height,
		cells:   make([]paint.Mixture, width*height),
		data:    make([]float64, width*height*k),
		regions: NewRegionCache(),
	}
	for i := range c.cells {
		c.cells[i] = paint.Mixture(c.data[i*k : (i+1)*k : (i+1)*k])
	}
	return c, nil
}

// NewFilled creates a canvas with every cell holding volume of palette
// colour index.
func NewFilled(palette []pigment.Pigment, width, height, index int, volume float64) (*Canvas, error) {
	c, err := New(palette, width, height)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(palette) {
		return nil, fmt.Errorf("canvas: background index %d out of range [0,%d)", index, len(palette))
	}
	fill := paint.OneColor(len(palette), index, volume)
	for _, cell := range c.cells {
		copy(cell, fill)
		cell.ClampNonNegative()
	}
	return c, nil
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in cells.
func (c *Canvas) Height() int { return c.height }

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.width, c.height) }

// Palette returns the canvas palette. Callers must not modify it.
func (c *Canvas) Palette() []pigment.Pigment { return c.palette }

// Regions returns the canvas's footprint cache.
func (c *Canvas) Regions() *RegionCache { return c.regions }

// In reports whether (x, y) is a cell of the canvas.
func (c *Canvas) In(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// At returns the mixture stored at (x, y). The slice aliases canvas storage
// and must be treated as read-only; use Set to write.
func (c *Canvas) At(x, y int) paint.Mixture {
	return c.cells[y*c.width+x]
}

// Set stores m at (x, y), clamping negative volumes to zero.
func (c *Canvas) Set(x, y int, m paint.Mixture) {
	if len(m) != len(c.palette) {
		panic(fmt.Sprintf("canvas: mixture has %d components, palette has %d", len(m), len(c.palette)))
	}
	cell := c.cells[y*c.width+x]
	copy(cell, m)
	cell.ClampNonNegative()
}

// ColorAt returns the effective pigment of the cell at (x, y).
func (c *Canvas) ColorAt(x, y int) pigment.Pigment {
	return c.At(x, y).Color(c.palette)
}

// VolumeAt returns the total paint volume of the cell at (x, y).
func (c *Canvas) VolumeAt(x, y int) float64 {
	return c.At(x, y).Volume()
}

// BlankLocations returns every cell holding no paint, in row-major order.
func (c *Canvas) BlankLocations() []image.Point {
	var blank []image.Point
	for i, cell := range c.cells {
		if cell.Volume() == 0 {
			blank = append(blank, image.Pt(i%c.width, i/c.width))
		}
	}
	return blank
}

// BlankCount returns the number of cells holding no paint.
func (c *Canvas) BlankCount() int {
	n := 0
	for _, cell := range c.cells {
		if cell.Volume() == 0 {
			n++
		}
	}
	return n
}

// PaintedFraction is the fraction of cells holding any paint.
func (c *Canvas) PaintedFraction() float64 {
	total := len(c.cells)
	return float64(total-c.BlankCount()) / float64(total)
}
