package canvas

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowpaint/paint"
)

func (c *Canvas) checkMixture(m paint.Mixture) {
	if len(m) != len(c.palette) {
		panic(fmt.Sprintf("canvas: mixture has %d components, palette has %d", len(m), len(c.palette)))
	}
}

// Fill blends m into every cell under the brush by coverage:
// cell = (1-w)*cell + w*m.
func (c *Canvas) Fill(loc r2.Vec, radius float64, aa int, m paint.Mixture) {
	c.checkMixture(m)
	c.forRegion(loc, radius, aa, func(x, y int, w float64) {
		cell := c.At(x, y)
		floats.Scale(1-w, cell)
		floats.AddScaled(cell, w, m)
		cell.ClampNonNegative()
	})
}

// Overlay adds coverage-weighted m to every cell under the brush.
func (c *Canvas) Overlay(loc r2.Vec, radius float64, aa int, m paint.Mixture) {
	c.checkMixture(m)
	c.forRegion(loc, radius, aa, func(x, y int, w float64) {
		cell := c.At(x, y)
		floats.AddScaled(cell, w, m)
		cell.ClampNonNegative()
	})
}

// PaintUnder returns the coverage-weighted sum of the mixtures under the brush.
func (c *Canvas) PaintUnder(loc r2.Vec, radius float64, aa int) paint.Mixture {
	sum := paint.New(len(c.palette))
	c.forRegion(loc, radius, aa, func(x, y int, w float64) {
		floats.AddScaled(sum, w, c.At(x, y))
	})
	return sum
}

// MixRegion homogenises the paint under the brush: the coverage-weighted mean
// mixture of the footprint is filled back into it. A footprint with no
// in-bounds coverage is left alone.
func (c *Canvas) MixRegion(loc r2.Vec, radius float64, aa int) {
	sum := paint.New(len(c.palette))
	var area float64
	c.forRegion(loc, radius, aa, func(x, y int, w float64) {
		floats.AddScaled(sum, w, c.At(x, y))
		area += w
	})
	if area <= 0 {
		return
	}
	c.Fill(loc, radius, aa, paint.Scale(1/area, sum))
}

// Diffuse runs one explicit Laplacian smoothing pass over the interior cells:
// cell += rate * (sum of 4 neighbours - 4*cell). Border cells are not
// updated. All reads come from a snapshot taken before the pass.
func (c *Canvas) Diffuse(rate float64) {
	if rate == 0 || c.width < 3 || c.height < 3 {
		return
	}

	k := len(c.palette)
	snap := make([]float64, len(c.data))
	copy(snap, c.data)

	stride := c.width * k
	for y := 1; y < c.height-1; y++ {
		for x := 1; x < c.width-1; x++ {
			base := (y*c.width + x) * k
			for i := 0; i < k; i++ {
				centre := snap[base+i]
				neighbours := snap[base+i-k] + snap[base+i+k] + snap[base+i-stride] + snap[base+i+stride]
				v := centre + rate*(neighbours-4*centre)
				if v < 0 {
					v = 0
				}
				c.data[base+i] = v
			}
		}
	}
}
