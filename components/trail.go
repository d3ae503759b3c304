package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Trail is a bounded FIFO of a particle's most recent positions.
// Pushing onto a full trail evicts the oldest position.
type Trail struct {
	points []r2.Vec
	head   int // index of the oldest point
	n      int
}

// NewTrail returns a trail of the given capacity holding start.
func NewTrail(capacity int, start r2.Vec) Trail {
	t := Trail{points: make([]r2.Vec, max(capacity, 1))}
	t.Push(start)
	return t
}

// Push appends p, evicting the oldest point once the trail is full.
func (t *Trail) Push(p r2.Vec) {
	if t.n < len(t.points) {
		t.points[(t.head+t.n)%len(t.points)] = p
		t.n++
		return
	}
	t.points[t.head] = p
	t.head = (t.head + 1) % len(t.points)
}

// Last returns the most recent position.
func (t *Trail) Last() r2.Vec {
	return t.points[(t.head+t.n-1)%len(t.points)]
}

// Len returns the number of stored positions.
func (t *Trail) Len() int { return t.n }

// Cap returns the trail capacity.
func (t *Trail) Cap() int { return len(t.points) }

// Full reports whether the trail holds Cap positions.
func (t *Trail) Full() bool { return t.n == len(t.points) }

// Points returns the stored positions, oldest first.
func (t *Trail) Points() []r2.Vec {
	out := make([]r2.Vec, t.n)
	for i := range out {
		out[i] = t.points[(t.head+i)%len(t.points)]
	}
	return out
}

// Extent returns the width and height of the axis-aligned bounding box of
// the stored positions.
func (t *Trail) Extent() (width, height float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < t.n; i++ {
		p := t.points[(t.head+i)%len(t.points)]
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if t.n == 0 {
		return 0, 0
	}
	return maxX - minX, maxY - minY
}
