package canvas

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// regionQuantum is the resolution at which brush offsets and radii are
// bucketed in the region cache.
const regionQuantum = 1e4

// MaxAALevel is the largest supported anti-aliasing level.
// Level L subdivides every cell into (2^L)^2 sub-cells.
const MaxAALevel = 8

// Cell is one cell of a brush footprint together with its coverage weight.
// Weights are in (0, 1]; 1 means the cell lies entirely inside the brush.
type Cell struct {
	X, Y   int
	Weight float64
}

type regionKey struct {
	fx, fy int64
	radius int64
	aa     int
}

// RegionCache memoises brush footprints relative to the containing cell of
// the brush centre. Footprints depend only on the fractional part of the
// centre, so a handful of entries serve a whole run.
//
// A RegionCache is not safe for concurrent use.
type RegionCache struct {
	entries map[regionKey][]Cell
	hits    uint64
	misses  uint64
}

// NewRegionCache returns an empty cache.
func NewRegionCache() *RegionCache {
	return &RegionCache{entries: make(map[regionKey][]Cell)}
}

// CacheStats summarises cache usage.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Stats returns the current cache statistics.
func (rc *RegionCache) Stats() CacheStats {
	return CacheStats{Entries: len(rc.entries), Hits: rc.hits, Misses: rc.misses}
}

// relative returns the footprint of a brush of the given radius centred at
// (fx, fy) inside the unit cell at the origin. Offsets in the result are
// relative to that cell.
func (rc *RegionCache) relative(fx, fy, radius float64, aa int) []Cell {
	key := regionKey{
		fx:     quantize(fx),
		fy:     quantize(fy),
		radius: quantize(radius),
		aa:     aa,
	}
	if cells, ok := rc.entries[key]; ok {
		rc.hits++
		return cells
	}
	rc.misses++

	cells := footprint(
		float64(key.fx)/regionQuantum,
		float64(key.fy)/regionQuantum,
		float64(key.radius)/regionQuantum,
		aa,
	)
	rc.entries[key] = cells
	return cells
}

func quantize(v float64) int64 {
	return int64(math.Round(v * regionQuantum))
}

// footprint computes per-cell coverage of a circle centred at (cx, cy) by
// point-sampling sub-cell centres.
func footprint(cx, cy, radius float64, aa int) []Cell {
	if radius <= 0 {
		return nil
	}

	res := 1 << aa
	sub := 1.0 / float64(res)
	subArea := sub * sub
	rSq := radius * radius

	minX := int(math.Floor(cx - radius))
	maxX := int(math.Ceil(cx + radius))
	minY := int(math.Floor(cy - radius))
	maxY := int(math.Ceil(cy + radius))

	var cells []Cell
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			var w float64
			for sy := 0; sy < res; sy++ {
				dy := float64(y) + (float64(sy)+0.5)*sub - cy
				for sx := 0; sx < res; sx++ {
					dx := float64(x) + (float64(sx)+0.5)*sub - cx
					if dx*dx+dy*dy <= rSq {
						w += subArea
					}
				}
			}
			if w > 0 {
				cells = append(cells, Cell{X: x, Y: y, Weight: w})
			}
		}
	}
	return cells
}

// forRegion calls fn for every in-bounds cell of the footprint of a brush
// centred at loc.
func (c *Canvas) forRegion(loc r2.Vec, radius float64, aa int, fn func(x, y int, w float64)) {
	if radius <= 0 {
		return
	}
	aa = min(max(aa, 0), MaxAALevel)

	ox := math.Floor(loc.X)
	oy := math.Floor(loc.Y)
	originX, originY := int(ox), int(oy)

	for _, cell := range c.regions.relative(loc.X-ox, loc.Y-oy, radius, aa) {
		x, y := originX+cell.X, originY+cell.Y
		if !c.In(x, y) {
			continue
		}
		fn(x, y, cell.Weight)
	}
}

// Region returns the in-bounds footprint of a brush centred at loc, in
// absolute canvas coordinates.
func (c *Canvas) Region(loc r2.Vec, radius float64, aa int) []Cell {
	var cells []Cell
	c.forRegion(loc, radius, aa, func(x, y int, w float64) {
		cells = append(cells, Cell{X: x, Y: y, Weight: w})
	})
	return cells
}

// RegionArea is the total coverage weight of the in-bounds footprint.
func (c *Canvas) RegionArea(loc r2.Vec, radius float64, aa int) float64 {
	var area float64
	c.forRegion(loc, radius, aa, func(_, _ int, w float64) {
		area += w
	})
	return area
}
