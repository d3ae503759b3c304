package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestTrailEvictsOldest(t *testing.T) {
	tr := NewTrail(3, r2.Vec{X: 0})
	assert.Equal(t, 1, tr.Len())
	assert.False(t, tr.Full())

	for i := 1; i <= 4; i++ {
		tr.Push(r2.Vec{X: float64(i)})
	}

	assert.True(t, tr.Full())
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []r2.Vec{{X: 2}, {X: 3}, {X: 4}}, tr.Points())
	assert.Equal(t, r2.Vec{X: 4}, tr.Last())
}

func TestTrailExtent(t *testing.T) {
	tr := NewTrail(4, r2.Vec{X: 1, Y: 1})
	tr.Push(r2.Vec{X: 3, Y: 0.5})
	tr.Push(r2.Vec{X: 2, Y: 2})

	w, h := tr.Extent()
	assert.Equal(t, 2.0, w)
	assert.Equal(t, 1.5, h)
}

func TestTrailMinimumCapacity(t *testing.T) {
	tr := NewTrail(0, r2.Vec{X: 5})
	assert.Equal(t, 1, tr.Cap())
	tr.Push(r2.Vec{X: 6})
	assert.Equal(t, r2.Vec{X: 6}, tr.Last())
	assert.Equal(t, 1, tr.Len())
}
