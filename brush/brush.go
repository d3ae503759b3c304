// Package brush implements the paint carrier attached to every particle.
package brush

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/flowpaint/canvas"
	"github.com/pthm-cable/flowpaint/paint"
)

// Mode selects how a brush deposits onto the canvas.
type Mode uint8

const (
	// Overlay adds the brush paint to the canvas.
	Overlay Mode = iota
	// Fill blends the canvas towards the brush paint by coverage.
	Fill
	// Mix smears the paint already on the canvas and deposits nothing.
	Mix
)

var modeNames = [...]string{
	Overlay: "overlay",
	Fill:    "fill",
	Mix:     "mix",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode converts a configuration name into a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("brush: unknown mode %q", s)
}

// Lifetime configures stochastic brush lifespans. A zero Mean means the
// brush never dies of age.
type Lifetime struct {
	Mean    float64
	Stddev  float64
	RampOut float64
}

// Params is the template shared by all brushes of a layer.
type Params struct {
	Radius        float64
	RampIn        float64
	Mixing        bool
	Mode          Mode
	AALevel       int
	TransferCoeff float64
	Lifetime      Lifetime
}

// Brush is a radius plus the paint it carries.
// It starts alive and dies once Apply is called at or past its lifespan.
type Brush struct {
	params   Params
	paint    paint.Mixture
	lifespan float64
	alive    bool
}

// New creates a live brush carrying a copy of m. When params configures a
// lifetime, the lifespan is drawn once from a normal distribution using src
// and clamped to be non-negative.
func New(params Params, m paint.Mixture, src rand.Source) *Brush {
	if len(m) == 0 {
		panic("brush: paint mixture has no palette colours")
	}

	b := &Brush{
		params:   params,
		paint:    m.Clone(),
		lifespan: math.Inf(1),
		alive:    true,
	}
	if params.Lifetime.Mean > 0 {
		dist := distuv.Normal{Mu: params.Lifetime.Mean, Sigma: params.Lifetime.Stddev, Src: src}
		b.lifespan = math.Max(0, dist.Rand())
	}
	return b
}

// Alive reports whether the brush still paints.
func (b *Brush) Alive() bool { return b.alive }

// Paint returns the mixture the brush currently carries. Callers must not modify it.
func (b *Brush) Paint() paint.Mixture { return b.paint }

// Params returns the brush template.
func (b *Brush) Params() Params { return b.params }

// Lifespan returns the sampled lifespan, +Inf for immortal brushes.
func (b *Brush) Lifespan() float64 { return b.lifespan }

// SetLifespan shortens the lifespan. It is used to end strokes together with
// a run of known length; it never extends a lifespan.
func (b *Brush) SetLifespan(l float64) {
	b.lifespan = math.Max(0, math.Min(b.lifespan, l))
}

// Radius returns the effective radius at the given elapsed time.
func (b *Brush) Radius(elapsed float64) float64 {
	r := b.params.Radius

	in := r
	if ramp := b.params.RampIn; ramp > 0 && elapsed < ramp {
		in = lerp(1, r, math.Max(elapsed, 0)/ramp)
	}

	out := r
	if ramp := b.params.Lifetime.RampOut; ramp > 0 && !math.IsInf(b.lifespan, 1) {
		if remaining := b.lifespan - elapsed; remaining < ramp {
			out = lerp(1, r, math.Max(remaining, 0)/ramp)
		}
	}

	return math.Min(in, out)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Apply paints at loc and ages the brush. A dead brush does nothing.
func (b *Brush) Apply(c *canvas.Canvas, loc r2.Vec, elapsed float64) {
	if !b.alive {
		return
	}

	radius := b.Radius(elapsed)
	aa := b.params.AALevel

	if b.params.Mixing {
		sample := c.PaintUnder(loc, radius, aa)
		if sample.Volume() > 0 {
			b.paint = paint.Lerp(paint.Normalize(sample), b.paint, b.params.TransferCoeff)
		}
	}

	switch b.params.Mode {
	case Overlay:
		c.Overlay(loc, radius, aa, b.paint)
	case Fill:
		c.Fill(loc, radius, aa, b.paint)
	case Mix:
		c.MixRegion(loc, radius, aa)
	}

	if elapsed >= b.lifespan {
		b.alive = false
	}
}
