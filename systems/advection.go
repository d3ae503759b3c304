// Package systems runs the particle simulation that paints the canvas.
package systems

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/flowpaint/brush"
	"github.com/pthm-cable/flowpaint/canvas"
	"github.com/pthm-cable/flowpaint/components"
	"github.com/pthm-cable/flowpaint/field"
	"github.com/pthm-cable/flowpaint/paint"
	"github.com/pthm-cable/flowpaint/telemetry"
)

// Jitter perturbs the flow direction by Weight * N(0, Stddev) radians.
type Jitter struct {
	Weight float64
	Stddev float64
}

// Params configures one layer of advection.
type Params struct {
	NumParticles       int
	ParticleVolume     float64
	HistoryLen         int
	DeadAreaSize       float64
	DeltaT             float64
	PopulateWhiteSpace bool
	// Termination above 1 is an iteration count; otherwise it is the painted
	// fraction of the canvas at which the layer stops.
	Termination float64
	// MaxIterations caps fraction-terminated layers. Zero means no cap.
	MaxIterations int
	// PaletteSubset restricts particle colours. Empty means the whole palette.
	PaletteSubset []int
	DiffusionRate float64
	Jitter        Jitter
	Brush         brush.Params
}

// Validate checks params against a palette of k colours.
func (p Params) Validate(k int) error {
	switch {
	case k == 0:
		return canvas.ErrEmptyPalette
	case p.NumParticles < 1:
		return errors.New("advection: num_particles must be at least 1")
	case p.HistoryLen < 1:
		return errors.New("advection: max_particle_history must be at least 1")
	case p.DeltaT <= 0:
		return errors.New("advection: delta_t must be positive")
	case p.Termination <= 0:
		return errors.New("advection: termination must be positive")
	case p.Brush.Radius <= 0:
		return errors.New("advection: brush radius must be positive")
	}
	for _, idx := range p.PaletteSubset {
		if idx < 0 || idx >= k {
			return fmt.Errorf("advection: palette subset index %d out of range [0,%d)", idx, k)
		}
	}
	return nil
}

// IterationLimit returns the fixed run length, or 0 when the layer ends on
// painted fraction.
func (p Params) IterationLimit() int {
	if p.Termination > 1 {
		return int(p.Termination)
	}
	return 0
}

// Reason says why a particle was retired.
type Reason uint8

const (
	ReasonBrushDead Reason = iota
	ReasonOutOfBounds
	ReasonStagnant
	numReasons
)

func (r Reason) String() string {
	switch r {
	case ReasonBrushDead:
		return "brush_dead"
	case ReasonOutOfBounds:
		return "out_of_bounds"
	case ReasonStagnant:
		return "stagnant"
	}
	return fmt.Sprintf("Reason(%d)", r)
}

// Stats counts particle turnover for one layer.
type Stats struct {
	Iterations int
	Spawned    int
	Retired    [numReasons]int
	// Ages holds the step count of every retired particle.
	Ages []float64
}

// TotalRetired sums retirements over all reasons.
func (s Stats) TotalRetired() int {
	n := 0
	for _, c := range s.Retired {
		n += c
	}
	return n
}

// Advection moves paint-carrying particles through a flow field. Each
// particle is an entity with a Stroke and a Trail.
type Advection struct {
	world  *ecs.World
	mapper *ecs.Map2[components.Stroke, components.Trail]
	filter *ecs.Filter2[components.Stroke, components.Trail]

	canvas *canvas.Canvas
	field  *field.Field
	params Params
	colors []int

	rng    *rand.Rand
	jitter distuv.Normal
	perf   *telemetry.PerfCollector

	count int
	stats Stats
}

// New creates an empty advection layer. Call Seed to populate it.
func New(c *canvas.Canvas, f *field.Field, p Params, rng *rand.Rand) (*Advection, error) {
	k := len(c.Palette())
	if err := p.Validate(k); err != nil {
		return nil, err
	}

	colors := p.PaletteSubset
	if len(colors) == 0 {
		colors = make([]int, k)
		for i := range colors {
			colors[i] = i
		}
	}

	world := ecs.NewWorld()
	return &Advection{
		world:  world,
		mapper: ecs.NewMap2[components.Stroke, components.Trail](world),
		filter: ecs.NewFilter2[components.Stroke, components.Trail](world),
		canvas: c,
		field:  f,
		params: p,
		colors: colors,
		rng:    rng,
		jitter: distuv.Normal{Mu: 0, Sigma: p.Jitter.Stddev, Src: rng},
	}, nil
}

// SetPerf attaches a collector that times each iteration's phases.
func (a *Advection) SetPerf(p *telemetry.PerfCollector) { a.perf = p }

// Params returns the layer configuration.
func (a *Advection) Params() Params { return a.params }

// Canvas returns the canvas being painted.
func (a *Advection) Canvas() *canvas.Canvas { return a.canvas }

// Count returns the number of live particles.
func (a *Advection) Count() int { return a.count }

// Iterations returns the number of completed iterations.
func (a *Advection) Iterations() int { return a.stats.Iterations }

// Stats returns a copy of the turnover counters.
func (a *Advection) Stats() Stats {
	s := a.stats
	s.Ages = append([]float64(nil), a.stats.Ages...)
	return s
}

// Seed tops the population up to NumParticles. With PopulateWhiteSpace set
// and fewer than half the cells blank, particles start on blank cells.
func (a *Advection) Seed() {
	a.spawnMissing()
}

// SpawnAt adds one particle at loc with a fresh single-colour brush.
func (a *Advection) SpawnAt(loc r2.Vec) ecs.Entity {
	k := len(a.canvas.Palette())
	color := a.colors[a.rng.IntN(len(a.colors))]
	b := brush.New(a.params.Brush, paint.OneColor(k, color, a.params.ParticleVolume), a.rng)

	// A stroke that would outlive a run of known length ends with it.
	if limit := a.params.IterationLimit(); limit > 0 && !math.IsInf(b.Lifespan(), 1) {
		remaining := float64(limit-a.stats.Iterations) * a.params.DeltaT
		b.SetLifespan(remaining)
	}

	stroke := components.Stroke{Brush: b, Born: a.stats.Iterations}
	trail := components.NewTrail(a.params.HistoryLen, loc)

	a.count++
	a.stats.Spawned++
	return a.mapper.NewEntity(&stroke, &trail)
}

func (a *Advection) randomLoc() r2.Vec {
	return r2.Vec{
		X: a.rng.Float64() * float64(a.canvas.Width()-1),
		Y: a.rng.Float64() * float64(a.canvas.Height()-1),
	}
}

// Done reports whether the layer's termination criterion has been met.
func (a *Advection) Done() bool {
	if limit := a.params.IterationLimit(); limit > 0 {
		return a.stats.Iterations >= limit
	}
	if a.params.MaxIterations > 0 && a.stats.Iterations >= a.params.MaxIterations {
		return true
	}
	return a.canvas.PaintedFraction() >= a.params.Termination
}

// Run steps until Done and returns the number of iterations performed.
func (a *Advection) Run() int {
	start := a.stats.Iterations
	for !a.Done() {
		a.Step()
	}
	return a.stats.Iterations - start
}

// Step performs one iteration: paint and move every particle, retire and
// replace the ones that are finished, then diffuse.
func (a *Advection) Step() {
	a.perf.StartTick()

	a.perf.StartPhase(telemetry.PhasePaint)
	a.paintAndMove()

	a.perf.StartPhase(telemetry.PhaseRetire)
	a.retire()

	a.perf.StartPhase(telemetry.PhaseReplenish)
	a.replenish()

	if a.params.DiffusionRate > 0 {
		a.perf.StartPhase(telemetry.PhaseDiffuse)
		a.canvas.Diffuse(a.params.DiffusionRate)
	}

	a.stats.Iterations++
	a.perf.EndTick()
}

func (a *Advection) paintAndMove() {
	dt := a.params.DeltaT

	query := a.filter.Query()
	for query.Next() {
		stroke, trail := query.Get()

		loc := trail.Last()
		stroke.Brush.Apply(a.canvas, loc, stroke.Elapsed)
		stroke.Elapsed += dt
		stroke.Age++

		v := a.velocity(loc)
		trail.Push(r2.Add(loc, r2.Scale(dt, v)))
	}
}

// velocity samples the field at loc and applies angular jitter, keeping the
// sampled speed.
func (a *Advection) velocity(loc r2.Vec) r2.Vec {
	v := a.field.Sample(loc)
	if a.params.Jitter.Weight == 0 || a.params.Jitter.Stddev == 0 {
		return v
	}
	speed := r2.Norm(v)
	if speed == 0 {
		return v
	}
	theta := math.Atan2(v.Y, v.X) + a.params.Jitter.Weight*a.jitter.Rand()
	return r2.Vec{X: speed * math.Cos(theta), Y: speed * math.Sin(theta)}
}

// retireReason reports whether a particle should be removed and why.
func (a *Advection) retireReason(stroke *components.Stroke, trail *components.Trail) (Reason, bool) {
	if !stroke.Brush.Alive() {
		return ReasonBrushDead, true
	}
	last := trail.Last()
	if last.X < 0 || last.Y < 0 || last.X >= float64(a.canvas.Width()) || last.Y >= float64(a.canvas.Height()) {
		return ReasonOutOfBounds, true
	}
	if trail.Full() {
		w, h := trail.Extent()
		if w < a.params.DeadAreaSize && h < a.params.DeadAreaSize {
			return ReasonStagnant, true
		}
	}
	return 0, false
}

func (a *Advection) retire() {
	// Collect first: entities cannot be removed while the query is open.
	var toRemove []ecs.Entity

	query := a.filter.Query()
	for query.Next() {
		stroke, trail := query.Get()
		reason, done := a.retireReason(stroke, trail)
		if !done {
			continue
		}
		toRemove = append(toRemove, query.Entity())
		a.stats.Retired[reason]++
		a.stats.Ages = append(a.stats.Ages, float64(stroke.Age))
	}

	for _, e := range toRemove {
		a.world.RemoveEntity(e)
		a.count--
	}
}

func (a *Advection) replenish() {
	a.spawnMissing()
}

// spawnMissing spawns particles until the population is back at
// NumParticles, choosing locations from one blank-cell snapshot.
func (a *Advection) spawnMissing() {
	missing := a.params.NumParticles - a.count
	if missing <= 0 {
		return
	}

	blank := a.blankLocations()
	for i := 0; i < missing; i++ {
		if len(blank) > 0 {
			a.SpawnAt(blank[a.rng.IntN(len(blank))])
		} else {
			a.SpawnAt(a.randomLoc())
		}
	}
}

// blankLocations returns the blank cells to spawn on, or nil when spawning
// should be uniform.
func (a *Advection) blankLocations() []r2.Vec {
	if !a.params.PopulateWhiteSpace {
		return nil
	}
	area := a.canvas.Width() * a.canvas.Height()
	if a.canvas.BlankCount() >= area/2 {
		return nil
	}
	var blank []r2.Vec
	for _, p := range a.canvas.BlankLocations() {
		blank = append(blank, r2.Vec{X: float64(p.X), Y: float64(p.Y)})
	}
	return blank
}

// Particle is a read-only view of one particle for display.
type Particle struct {
	Position r2.Vec
	Paint    paint.Mixture
	Radius   float64
	// Trail holds the recent positions, oldest first, ending at Position.
	Trail []r2.Vec
}

// Particles calls fn for every live particle.
func (a *Advection) Particles(fn func(p Particle)) {
	query := a.filter.Query()
	for query.Next() {
		stroke, trail := query.Get()
		fn(Particle{
			Position: trail.Last(),
			Paint:    stroke.Brush.Paint(),
			Radius:   stroke.Brush.Radius(stroke.Elapsed),
			Trail:    trail.Points(),
		})
	}
}
