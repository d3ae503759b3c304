package canvas

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowpaint/paint"
	"github.com/pthm-cable/flowpaint/pigment"
)

func testPalette(n int) []pigment.Pigment {
	all := []pigment.Pigment{
		pigment.FromRGB(0, 33, 133),
		pigment.FromRGB(252, 211, 0),
		pigment.FromRGB(200, 30, 60),
		pigment.FromRGB(255, 255, 255),
	}
	return all[:n]
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, 4, 4)
	assert.ErrorIs(t, err, ErrEmptyPalette)

	_, err = New(testPalette(2), 0, 4)
	assert.ErrorIs(t, err, ErrBadSize)

	_, err = NewFilled(testPalette(2), 4, 4, 2, 1)
	assert.Error(t, err)
}

func TestCellsDoNotAlias(t *testing.T) {
	c, err := New(testPalette(3), 4, 3)
	require.NoError(t, err)

	c.Set(1, 1, paint.Mixture{1, 2, 3})
	assert.Equal(t, paint.Mixture{1, 2, 3}, c.At(1, 1))
	assert.Equal(t, paint.Mixture{0, 0, 0}, c.At(0, 1))
	assert.Equal(t, paint.Mixture{0, 0, 0}, c.At(2, 1))
	assert.Equal(t, 6.0, c.VolumeAt(1, 1))
}

func TestSetClamps(t *testing.T) {
	c, err := New(testPalette(2), 2, 2)
	require.NoError(t, err)

	c.Set(0, 0, paint.Mixture{-1, 0.5})
	assert.Equal(t, paint.Mixture{0, 0.5}, c.At(0, 0))
}

func TestBlankLocations(t *testing.T) {
	c, err := New(testPalette(2), 3, 2)
	require.NoError(t, err)

	c.Set(0, 0, paint.Mixture{1, 0})
	c.Set(2, 1, paint.Mixture{0, 0.25})

	want := []image.Point{{1, 0}, {2, 0}, {0, 1}, {1, 1}}
	assert.Equal(t, want, c.BlankLocations())
	assert.Equal(t, 4, c.BlankCount())
	assert.InDelta(t, 2.0/6.0, c.PaintedFraction(), 1e-12)
}

func TestColorAt(t *testing.T) {
	pal := testPalette(2)
	c, err := NewFilled(pal, 2, 2, 1, 3)
	require.NoError(t, err)
	assert.True(t, pigment.Equal(pal[1], c.ColorAt(1, 1)))
}

func TestFillScenario(t *testing.T) {
	c, err := NewFilled(testPalette(3), 10, 10, 0, 1.0)
	require.NoError(t, err)

	loc := r2.Vec{X: 5, Y: 5}
	stroke := paint.OneColor(3, 1, 1.0)
	region := c.Region(loc, 2.0, 2)
	require.NotEmpty(t, region)

	c.Fill(loc, 2.0, 2, stroke)

	weights := make(map[image.Point]float64, len(region))
	for _, cell := range region {
		weights[image.Pt(cell.X, cell.Y)] = cell.Weight
	}

	// The four cells around the centre lie wholly inside the circle.
	for _, p := range []image.Point{{4, 4}, {5, 4}, {4, 5}, {5, 5}} {
		assert.Equal(t, 1.0, weights[p], "weight at %v", p)
		assert.Equal(t, stroke, c.At(p.X, p.Y), "cell %v", p)
	}

	approx := cmpopts.EquateApprox(0, 1e-12)
	var partial int
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			w := weights[image.Pt(x, y)]
			want := paint.Mixture{1 - w, w, 0}
			if diff := cmp.Diff(want, c.At(x, y), approx); diff != "" {
				t.Errorf("cell (%d,%d) weight %v (-want +got):\n%s", x, y, w, diff)
			}
			if w > 0 && w < 1 {
				partial++
			}
		}
	}
	assert.Positive(t, partial, "expected anti-aliased boundary cells")
}

func TestOverlayAdds(t *testing.T) {
	c, err := NewFilled(testPalette(2), 8, 8, 0, 1.0)
	require.NoError(t, err)

	loc := r2.Vec{X: 4, Y: 4}
	c.Overlay(loc, 1.5, 3, paint.Mixture{0, 2})

	for _, cell := range c.Region(loc, 1.5, 3) {
		got := c.At(cell.X, cell.Y)
		assert.Equal(t, 1.0, got[0])
		assert.InDelta(t, 2*cell.Weight, got[1], 1e-12)
	}
	assert.Equal(t, paint.Mixture{1, 0}, c.At(0, 0))
}

func TestMixRegionHomogenises(t *testing.T) {
	c, err := New(testPalette(2), 12, 12)
	require.NoError(t, err)
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if x < 6 {
				c.Set(x, y, paint.Mixture{1, 0})
			} else {
				c.Set(x, y, paint.Mixture{0, 1})
			}
		}
	}

	loc := r2.Vec{X: 6, Y: 6}
	c.MixRegion(loc, 3, 2)

	var full []paint.Mixture
	for _, cell := range c.Region(loc, 3, 2) {
		if cell.Weight == 1 {
			full = append(full, c.At(cell.X, cell.Y))
		}
	}
	require.NotEmpty(t, full)
	approx := cmpopts.EquateApprox(0, 1e-12)
	for _, m := range full[1:] {
		if diff := cmp.Diff(full[0], m, approx); diff != "" {
			t.Errorf("fully covered cells differ:\n%s", diff)
		}
	}
	// Symmetric footprint over a symmetric split gives an even mix.
	assert.InDelta(t, full[0][0], full[0][1], 1e-9)
}

func TestMixRegionZeroArea(t *testing.T) {
	c, err := NewFilled(testPalette(2), 4, 4, 0, 1)
	require.NoError(t, err)

	c.MixRegion(r2.Vec{X: 2, Y: 2}, 0, 2)
	c.MixRegion(r2.Vec{X: -50, Y: -50}, 2, 2)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, paint.Mixture{1, 0}, c.At(x, y))
		}
	}
}

func TestPaintUnder(t *testing.T) {
	c, err := NewFilled(testPalette(2), 10, 10, 1, 2)
	require.NoError(t, err)

	loc := r2.Vec{X: 3.3, Y: 6.7}
	area := c.RegionArea(loc, 2.5, 3)
	got := c.PaintUnder(loc, 2.5, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 2*area, got[1], 1e-9)
}

func TestNonNegativity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	c, err := NewFilled(testPalette(3), 16, 16, 2, 0.5)
	require.NoError(t, err)

	randMixture := func() paint.Mixture {
		m := paint.New(3)
		for i := range m {
			m[i] = rng.Float64()*4 - 2
		}
		return m
	}

	for i := 0; i < 500; i++ {
		loc := r2.Vec{X: rng.Float64()*20 - 2, Y: rng.Float64()*20 - 2}
		radius := rng.Float64() * 4
		aa := rng.IntN(4)
		switch rng.IntN(3) {
		case 0:
			c.Fill(loc, radius, aa, randMixture())
		case 1:
			c.Overlay(loc, radius, aa, randMixture())
		case 2:
			c.MixRegion(loc, radius, aa)
		}
		if i%50 == 0 {
			c.Diffuse(0.2)
		}
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			for k, v := range c.At(x, y) {
				if v < 0 {
					t.Fatalf("cell (%d,%d) component %d is negative: %v", x, y, k, v)
				}
			}
		}
	}
}

func TestDiffuse(t *testing.T) {
	c, err := New(testPalette(1), 5, 5)
	require.NoError(t, err)
	c.Set(2, 2, paint.Mixture{1})
	c.Set(0, 0, paint.Mixture{3})

	c.Diffuse(0.1)

	assert.InDelta(t, 0.6, c.VolumeAt(2, 2), 1e-12)
	for _, p := range []image.Point{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		assert.InDelta(t, 0.1, c.VolumeAt(p.X, p.Y), 1e-12, "neighbour %v", p)
	}
	assert.Equal(t, 0.0, c.VolumeAt(1, 1))
	// Border cells are never written.
	assert.Equal(t, 3.0, c.VolumeAt(0, 0))
}

func TestDiffuseZeroRateIsNoop(t *testing.T) {
	c, err := New(testPalette(1), 4, 4)
	require.NoError(t, err)
	c.Set(1, 1, paint.Mixture{1})

	c.Diffuse(0)
	assert.Equal(t, 1.0, c.VolumeAt(1, 1))
}
