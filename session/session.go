// Package session runs a configured painting: palette, canvas, one
// advection pass per layer, progress logging and run output.
package session

import (
	"fmt"
	"image"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowpaint/brush"
	"github.com/pthm-cable/flowpaint/canvas"
	"github.com/pthm-cable/flowpaint/config"
	"github.com/pthm-cable/flowpaint/field"
	"github.com/pthm-cable/flowpaint/paint"
	"github.com/pthm-cable/flowpaint/render"
	"github.com/pthm-cable/flowpaint/systems"
	"github.com/pthm-cable/flowpaint/telemetry"
)

// Options holds settings that come from the command line rather than the
// config file.
type Options struct {
	Logger *zap.Logger
	// OutputDir overrides telemetry.output_dir when set.
	OutputDir string
	// PerfWindow is the number of iterations perf stats average over.
	PerfWindow int
}

// Session owns the canvas and the layers painted onto it in order.
type Session struct {
	cfg *config.Config
	log *zap.Logger
	rng *rand.Rand

	canvas *canvas.Canvas
	layers []*systems.Advection
	layer  int

	iterations int
	perf       *telemetry.PerfCollector
	output     *telemetry.OutputManager
	err        error
}

// New builds the canvas and every layer's flow field. The first layer is
// seeded and ready to step.
func New(cfg *config.Config, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PerfWindow <= 0 {
		opts.PerfWindow = 100
	}

	s := &Session{
		cfg:  cfg,
		log:  log,
		rng:  rand.New(rand.NewPCG(cfg.Derived.Seed, cfg.Derived.Seed^0x9e3779b97f4a7c15)),
		perf: telemetry.NewPerfCollector(opts.PerfWindow),
	}

	c, err := newCanvas(cfg)
	if err != nil {
		return nil, err
	}
	s.canvas = c

	for i, l := range cfg.Layers {
		f, err := field.Build(l.Flow.Def, l.Flow.Dimensions[0], l.Flow.Dimensions[1], s.rng)
		if err != nil {
			return nil, fmt.Errorf("layer %d field: %w", i, err)
		}
		p, err := l.SystemParams()
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		a, err := systems.New(c, f.Resized(c.Width(), c.Height()), p, s.rng)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		a.SetPerf(s.perf)
		s.layers = append(s.layers, a)
	}

	outDir := cfg.Telemetry.OutputDir
	if opts.OutputDir != "" {
		outDir = opts.OutputDir
	}
	if s.output, err = telemetry.NewOutputManager(outDir); err != nil {
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, err
	}

	log.Info("session ready",
		zap.Uint64("seed", cfg.Derived.Seed),
		zap.Int("width", c.Width()),
		zap.Int("height", c.Height()),
		zap.Int("colors", len(c.Palette())),
		zap.Int("layers", len(s.layers)),
		zap.String("output_dir", s.output.Dir()),
		zap.String("run_id", s.output.RunID()),
	)

	s.layers[0].Seed()
	return s, nil
}

func newCanvas(cfg *config.Config) (*canvas.Canvas, error) {
	palette := cfg.Derived.Palette
	w, h := cfg.Derived.Width, cfg.Derived.Height

	switch {
	case cfg.Canvas.SourceImage != "":
		img, err := render.ReadFile(cfg.Canvas.SourceImage)
		if err != nil {
			return nil, err
		}
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			img = render.ScaleTo(img, w, h)
		}
		return render.CanvasFromImage(img, palette, cfg.Canvas.BackgroundVolume)
	case cfg.Canvas.Background >= 0:
		return canvas.NewFilled(palette, w, h, cfg.Canvas.Background, cfg.Canvas.BackgroundVolume)
	default:
		return canvas.New(palette, w, h)
	}
}

// Canvas returns the canvas being painted.
func (s *Session) Canvas() *canvas.Canvas { return s.canvas }

// Config returns the run configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Perf returns the iteration timing collector.
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }

// Iterations returns the number of iterations run over all layers.
func (s *Session) Iterations() int { return s.iterations }

// Layer returns the index of the layer being painted. It equals the number
// of layers once the session is done.
func (s *Session) Layer() int { return s.layer }

// Current returns the layer being painted, or nil when done.
func (s *Session) Current() *systems.Advection {
	if s.Done() {
		return nil
	}
	return s.layers[s.layer]
}

// Done reports whether every layer has finished.
func (s *Session) Done() bool { return s.layer >= len(s.layers) }

// Err returns the first output error seen. Output errors do not stop painting.
func (s *Session) Err() error { return s.err }

// Progress estimates how far the current layer is towards its termination
// criterion, in [0, 1].
func (s *Session) Progress() float64 {
	a := s.Current()
	if a == nil {
		return 1
	}
	p := a.Params()
	var v float64
	if limit := p.IterationLimit(); limit > 0 {
		v = float64(a.Iterations()) / float64(limit)
	} else {
		v = s.canvas.PaintedFraction() / p.Termination
	}
	return min(v, 1)
}

// Step runs one iteration of the current layer, moving on to the next layer
// once it finishes. It returns false when there is nothing left to paint.
func (s *Session) Step() bool {
	for !s.Done() && s.layers[s.layer].Done() {
		s.finishLayer()
	}
	if s.Done() {
		return false
	}

	a := s.layers[s.layer]
	a.Step()
	s.iterations++

	if every := s.cfg.Telemetry.LogEvery; every > 0 && a.Iterations()%every == 0 {
		s.logProgress(a)
	}
	if a.Done() {
		s.finishLayer()
	}
	return true
}

// Run steps until every layer is done and returns the first output error.
func (s *Session) Run() error {
	for s.Step() {
	}
	return s.err
}

// Render rasterises the canvas with the configured background and alpha.
func (s *Session) Render() *image.RGBA {
	return render.ToImage(s.canvas, s.cfg.Output.AlphaThreshold, s.cfg.Derived.Background)
}

// PaintAt presses a brush from the current layer's template onto the canvas
// at loc, carrying colour index color.
func (s *Session) PaintAt(loc r2.Vec, color int) {
	a := s.Current()
	if a == nil {
		a = s.layers[len(s.layers)-1]
	}
	p := a.Params()
	m := paint.OneColor(len(s.canvas.Palette()), color, p.ParticleVolume)
	brush.New(p.Brush, m, s.rng).Apply(s.canvas, loc, 0)
}

// Close releases run output files.
func (s *Session) Close() error {
	return s.output.Close()
}

func (s *Session) progressRecord(a *systems.Advection) telemetry.ProgressRecord {
	st := a.Stats()
	return telemetry.ProgressRecord{
		Layer:           s.layer,
		Iteration:       st.Iterations,
		PaintedPct:      s.canvas.PaintedFraction() * 100,
		Particles:       a.Count(),
		Spawned:         st.Spawned,
		RetiredDead:     st.Retired[systems.ReasonBrushDead],
		RetiredOutside:  st.Retired[systems.ReasonOutOfBounds],
		RetiredStagnant: st.Retired[systems.ReasonStagnant],
	}
}

func (s *Session) logProgress(a *systems.Advection) {
	rec := s.progressRecord(a)
	perf := s.perf.Stats()
	s.log.Info("progress", zap.Object("layer", rec), zap.Object("perf", perf))

	s.record(s.output.WriteProgress(rec))
	s.record(s.output.WritePerf(perf, rec.Layer, rec.Iteration))
}

func (s *Session) finishLayer() {
	a := s.layers[s.layer]
	st := a.Stats()

	sum := telemetry.LayerSummary{
		Layer:      s.layer,
		Iterations: st.Iterations,
		PaintedPct: s.canvas.PaintedFraction() * 100,
		Spawned:    st.Spawned,
		Retired:    st.TotalRetired(),
	}
	sum.AgeMean, sum.AgeStd, sum.AgeP10, sum.AgeP50, sum.AgeP90 = telemetry.ComputeAgeStats(st.Ages)
	cache := s.canvas.Regions().Stats()
	sum.RegionEntries, sum.RegionHits, sum.RegionMisses = cache.Entries, cache.Hits, cache.Misses

	s.log.Info("layer done", zap.Object("summary", sum))
	s.record(s.output.WriteLayer(sum))

	s.layer++
	if !s.Done() {
		s.layers[s.layer].Seed()
	}
}

func (s *Session) record(err error) {
	if err == nil {
		return
	}
	s.log.Error("writing run output", zap.Error(err))
	if s.err == nil {
		s.err = err
	}
}
