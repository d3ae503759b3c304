// Package components defines ECS components for paint particles.
package components

import (
	"github.com/pthm-cable/flowpaint/brush"
)

// Stroke is the paint-carrying state of a particle.
type Stroke struct {
	Brush   *brush.Brush
	Elapsed float64 // brush-local time, advanced by delta_t per step
	Age     int     // steps survived
	Born    int     // iteration of the layer at which the particle spawned
}
