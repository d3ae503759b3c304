// Package field provides the vector flow fields that carry particles across
// the canvas, and the generators that build them.
package field

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Field is a grid of velocity vectors stored as two scalar grids.
// Row i, column j of X and Y hold the vector at canvas cell (j, i).
type Field struct {
	X, Y *mat.Dense
}

// New returns a zero field of the given size.
func New(width, height int) *Field {
	return &Field{
		X: mat.NewDense(height, width, nil),
		Y: mat.NewDense(height, width, nil),
	}
}

// Dims returns the field width and height.
func (f *Field) Dims() (width, height int) {
	height, width = f.X.Dims()
	return width, height
}

// At returns the vector stored at cell (x, y).
func (f *Field) At(x, y int) r2.Vec {
	return r2.Vec{X: f.X.At(y, x), Y: f.Y.At(y, x)}
}

// Set stores v at cell (x, y).
func (f *Field) Set(x, y int, v r2.Vec) {
	f.X.Set(y, x, v.X)
	f.Y.Set(y, x, v.Y)
}

// Sample bilinearly interpolates the field at p. Positions outside the grid
// are clamped to its edge.
func (f *Field) Sample(p r2.Vec) r2.Vec {
	w, h := f.Dims()
	px := clamp(p.X, 0, float64(w-1))
	py := clamp(p.Y, 0, float64(h-1))

	x0 := int(math.Floor(px))
	y0 := int(math.Floor(py))
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	tx := px - float64(x0)
	ty := py - float64(y0)

	top := r2.Add(r2.Scale(1-tx, f.At(x0, y0)), r2.Scale(tx, f.At(x1, y0)))
	bottom := r2.Add(r2.Scale(1-tx, f.At(x0, y1)), r2.Scale(tx, f.At(x1, y1)))
	return r2.Add(r2.Scale(1-ty, top), r2.Scale(ty, bottom))
}

// Map returns a new field with fn applied to every vector.
func (f *Field) Map(fn func(v r2.Vec) r2.Vec) *Field {
	w, h := f.Dims()
	out := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, fn(f.At(x, y)))
		}
	}
	return out
}

// Normalized returns a copy of f with every vector scaled to unit length.
// Zero vectors stay zero.
func (f *Field) Normalized() *Field {
	return f.Map(func(v r2.Vec) r2.Vec {
		n := r2.Norm(v)
		if n == 0 {
			return v
		}
		return r2.Scale(1/n, v)
	})
}

// Scaled returns a copy of f with x components multiplied by k.X and y
// components by k.Y.
func (f *Field) Scaled(k r2.Vec) *Field {
	out := New(f.Dims())
	out.X.Scale(k.X, f.X)
	out.Y.Scale(k.Y, f.Y)
	return out
}

// Offset returns a copy of f with d added to every vector.
func (f *Field) Offset(d r2.Vec) *Field {
	return f.Map(func(v r2.Vec) r2.Vec { return r2.Add(v, d) })
}

// Resized resamples f onto a width x height grid covering the same extent.
func (f *Field) Resized(width, height int) *Field {
	fw, fh := f.Dims()
	if fw == width && fh == height {
		return f
	}
	sx, sy := span(fw, width), span(fh, height)
	out := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, f.Sample(r2.Vec{X: float64(x) * sx, Y: float64(y) * sy}))
		}
	}
	return out
}

func span(from, to int) float64 {
	if to <= 1 {
		return 0
	}
	return float64(from-1) / float64(to-1)
}

// Sum returns the element-wise sum of two fields of equal size.
func Sum(a, b *Field) *Field {
	w, h := a.Dims()
	out := New(w, h)
	out.X.Add(a.X, b.X)
	out.Y.Add(a.Y, b.Y)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
