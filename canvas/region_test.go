package canvas

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestRegionAreaApproximatesCircle(t *testing.T) {
	c, err := New(testPalette(1), 64, 64)
	require.NoError(t, err)

	tests := []struct {
		name   string
		loc    r2.Vec
		radius float64
	}{
		{"centred", r2.Vec{X: 32, Y: 32}, 5},
		{"off grid", r2.Vec{X: 20.37, Y: 41.81}, 7.3},
		{"small", r2.Vec{X: 10.5, Y: 10.5}, 1.2},
	}

	for _, tt := range tests {
		for aa := 0; aa <= 6; aa++ {
			area := c.RegionArea(tt.loc, tt.radius, aa)
			exact := math.Pi * tt.radius * tt.radius
			// Point sampling errs by at most one sub-cell along the perimeter.
			tol := 4 * math.Pi * tt.radius / float64(int(1)<<aa)
			if math.Abs(area-exact) > tol {
				t.Errorf("%s aa=%d: area %v, want %v ± %v", tt.name, aa, area, exact, tol)
			}
		}
	}
}

func TestRegionErrorShrinksWithAALevel(t *testing.T) {
	c, err := New(testPalette(1), 64, 64)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 12))
	var coarse, fine float64
	for i := 0; i < 200; i++ {
		loc := r2.Vec{X: 16 + rng.Float64()*32, Y: 16 + rng.Float64()*32}
		radius := 0.5 + rng.Float64()*6
		exact := math.Pi * radius * radius
		coarse += math.Abs(c.RegionArea(loc, radius, 0) - exact)
		fine += math.Abs(c.RegionArea(loc, radius, 5) - exact)
	}
	// Centre sampling is not monotone per circle, but it converges.
	assert.Less(t, fine, coarse/4)
}

func TestRegionWeightsInUnitRange(t *testing.T) {
	c, err := New(testPalette(1), 20, 20)
	require.NoError(t, err)

	for _, cell := range c.Region(r2.Vec{X: 9.9, Y: 10.2}, 3.7, 3) {
		assert.Greater(t, cell.Weight, 0.0)
		assert.LessOrEqual(t, cell.Weight, 1.0)
	}
}

func TestRegionAALevelZeroIsBinary(t *testing.T) {
	c, err := New(testPalette(1), 20, 20)
	require.NoError(t, err)

	for _, cell := range c.Region(r2.Vec{X: 10.4, Y: 9.6}, 3.3, 0) {
		assert.Equal(t, 1.0, cell.Weight)
	}
}

func TestRegionTinyRadius(t *testing.T) {
	c, err := New(testPalette(1), 5, 5)
	require.NoError(t, err)

	cells := c.Region(r2.Vec{X: 2.5, Y: 2.5}, 0.2, 2)
	require.Len(t, cells, 1)
	assert.Equal(t, Cell{X: 2, Y: 2, Weight: 4.0 / 16.0}, cells[0])

	// Whole-cell sampling hits the centre: one unit-weight cell.
	cells = c.Region(r2.Vec{X: 2.5, Y: 2.5}, 0.2, 0)
	require.Len(t, cells, 1)
	assert.Equal(t, Cell{X: 2, Y: 2, Weight: 1}, cells[0])

	// At level 1 every sub-cell centre is a quarter cell away.
	assert.Empty(t, c.Region(r2.Vec{X: 2.5, Y: 2.5}, 0.2, 1))

	assert.Empty(t, c.Region(r2.Vec{X: 2.5, Y: 2.5}, 0, 2))
	assert.Empty(t, c.Region(r2.Vec{X: 2.5, Y: 2.5}, -1, 2))
}

func TestRegionClipsToCanvas(t *testing.T) {
	c, err := New(testPalette(1), 10, 10)
	require.NoError(t, err)

	corner := c.Region(r2.Vec{X: 0.5, Y: 0.5}, 3, 2)
	for _, cell := range corner {
		assert.True(t, c.In(cell.X, cell.Y), "cell %v outside canvas", cell)
	}
	inside := c.RegionArea(r2.Vec{X: 5.5, Y: 5.5}, 3, 2)
	assert.Less(t, c.RegionArea(r2.Vec{X: 0.5, Y: 0.5}, 3, 2), inside)

	assert.Empty(t, c.Region(r2.Vec{X: -10, Y: 4}, 3, 2))
}

func TestRegionCacheReuse(t *testing.T) {
	c, err := New(testPalette(1), 30, 30)
	require.NoError(t, err)

	a := c.Region(r2.Vec{X: 8.25, Y: 9.5}, 2.5, 3)
	b := c.Region(r2.Vec{X: 18.25, Y: 4.5}, 2.5, 3)

	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, c.Regions().Stats())

	// Same fractional offset: the footprints are translations of each other.
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].X+10, b[i].X)
		assert.Equal(t, a[i].Y-5, b[i].Y)
		assert.Equal(t, a[i].Weight, b[i].Weight)
	}

	c.Region(r2.Vec{X: 8.25, Y: 9.5}, 2.5, 2)
	c.Region(r2.Vec{X: 8.26, Y: 9.5}, 2.5, 3)
	assert.Equal(t, 3, c.Regions().Stats().Entries)
}

func TestRegionCachesAreIndependent(t *testing.T) {
	a, err := New(testPalette(1), 10, 10)
	require.NoError(t, err)
	b, err := New(testPalette(1), 10, 10)
	require.NoError(t, err)

	a.Region(r2.Vec{X: 5, Y: 5}, 2, 2)
	assert.Equal(t, 1, a.Regions().Stats().Entries)
	assert.Equal(t, 0, b.Regions().Stats().Entries)
}
