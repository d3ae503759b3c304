// Package config provides configuration loading and access for a painting run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flowpaint/brush"
	"github.com/pthm-cable/flowpaint/canvas"
	"github.com/pthm-cable/flowpaint/field"
	"github.com/pthm-cable/flowpaint/pigment"
	"github.com/pthm-cable/flowpaint/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	RandSeed  uint64          `yaml:"rand_seed"`
	Palette   []string        `yaml:"palette"`
	Canvas    CanvasConfig    `yaml:"canvas"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Layers    []LayerConfig   `yaml:"layers"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// CanvasConfig holds the painting surface settings.
type CanvasConfig struct {
	Width            int     `yaml:"width"`             // 0 = first layer's field width
	Height           int     `yaml:"height"`            // 0 = first layer's field height
	Background       int     `yaml:"background"`        // palette index to pre-fill with, -1 = blank
	BackgroundVolume float64 `yaml:"background_volume"` // paint volume of the pre-fill
	SourceImage      string  `yaml:"source_image"`      // optional image mapped onto the palette
}

// OutputConfig holds rendering settings.
type OutputConfig struct {
	CanvasColor    string  `yaml:"canvas_color"`
	AlphaThreshold float64 `yaml:"alpha_threshold"` // 0 = opaque
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console | json
	File       string `yaml:"file"`   // optional rotating JSON log
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// TelemetryConfig holds run output settings.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"` // empty = no CSV output
	LogEvery  int    `yaml:"log_every"`  // iterations between progress records
}

// LayerConfig is one pass of particles over its own flow field.
type LayerConfig struct {
	Flow   FlowConfig   `yaml:"flow"`
	Params ParamsConfig `yaml:"params"`
}

// FlowConfig describes the layer's flow field.
type FlowConfig struct {
	Dimensions []int      `yaml:"dimensions"` // [width, height]
	Def        *field.Def `yaml:"def"`
}

// ParamsConfig holds the particle parameters of a layer.
type ParamsConfig struct {
	ParticleVolume     float64      `yaml:"particle_volume"`
	MaxParticleHistory int          `yaml:"max_particle_history"`
	DeadParticleArea   float64      `yaml:"dead_particle_area_sz"`
	DeltaT             float64      `yaml:"delta_t"`
	NumParticles       int          `yaml:"num_particles"`
	PopulateWhiteSpace bool         `yaml:"populate_white_space"`
	Termination        float64      `yaml:"termination"`    // >1 iterations, <=1 painted fraction
	MaxIterations      int          `yaml:"max_iterations"` // cap for fraction runs, 0 = none
	PaletteSubset      []int        `yaml:"palette_subset"`
	DiffusionRate      float64      `yaml:"diffusion_rate"`
	Jitter             JitterConfig `yaml:"jitter"`
	Brush              BrushConfig  `yaml:"brush"`
}

// JitterConfig perturbs the flow direction of every step.
type JitterConfig struct {
	Weight float64 `yaml:"weight"`
	Stddev float64 `yaml:"stddev"`
}

// BrushConfig is the brush template of a layer.
type BrushConfig struct {
	Radius         float64        `yaml:"radius"`
	RampInTime     float64        `yaml:"radius_ramp_in_time"`
	Mix            bool           `yaml:"mix"`
	Mode           string         `yaml:"mode"` // overlay | fill | mix
	AALevel        int            `yaml:"aa_level"`
	TransferCoeff  float64        `yaml:"paint_transfer_coeff"`
	StrokeLifetime LifetimeConfig `yaml:"stroke_lifetime"`
}

// LifetimeConfig configures brush lifespans. Mean 0 = immortal.
type LifetimeConfig struct {
	Mean        float64 `yaml:"mean"`
	Stddev      float64 `yaml:"stddev"`
	RampOutTime float64 `yaml:"ramp_out_time"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Seed       uint64
	Width      int
	Height     int
	Palette    []pigment.Pigment
	Background pigment.Pigment
}

// plainLayer decodes without the defaulting hook.
type plainLayer LayerConfig

// UnmarshalYAML decodes a layer over the default layer, so a layer only
// needs to name the settings it changes.
func (l *LayerConfig) UnmarshalYAML(node *yaml.Node) error {
	p, err := defaultLayer()
	if err != nil {
		return err
	}
	// A definition tree replaces the default tree rather than merging into it.
	def := p.Flow.Def
	p.Flow.Def = nil
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Flow.Def == nil {
		p.Flow.Def = def
	}
	*l = LayerConfig(p)
	return nil
}

func defaultLayer() (plainLayer, error) {
	var d struct {
		Layer plainLayer `yaml:"layer_defaults"`
	}
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		return plainLayer{}, fmt.Errorf("parsing embedded layer defaults: %w", err)
	}
	return d.Layer, nil
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse merges data over the embedded defaults, validates the result and
// computes derived values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	// Unmarshal into same struct - only overwrites fields present in data
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config. Invalid
// colours are left for Validate to report.
func (c *Config) computeDerived() {
	// A clock seed is written back so the snapshot reproduces the run.
	if c.RandSeed == 0 {
		c.RandSeed = uint64(time.Now().UnixNano())
	}
	c.Derived.Seed = c.RandSeed

	c.Derived.Width, c.Derived.Height = c.Canvas.Width, c.Canvas.Height
	if len(c.Layers) > 0 && len(c.Layers[0].Flow.Dimensions) == 2 {
		if c.Derived.Width == 0 {
			c.Derived.Width = c.Layers[0].Flow.Dimensions[0]
		}
		if c.Derived.Height == 0 {
			c.Derived.Height = c.Layers[0].Flow.Dimensions[1]
		}
	}

	c.Derived.Palette = c.Derived.Palette[:0]
	for _, hex := range c.Palette {
		p, err := pigment.FromHex(hex)
		if err != nil {
			continue
		}
		c.Derived.Palette = append(c.Derived.Palette, p)
	}
	c.Derived.Background, _ = pigment.FromHex(c.Output.CanvasColor)
}

// SetSeed overrides the configured random seed.
func (c *Config) SetSeed(seed uint64) {
	c.RandSeed = seed
	c.Derived.Seed = seed
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Palette) == 0 {
		return canvas.ErrEmptyPalette
	}
	for i, hex := range c.Palette {
		if _, err := pigment.FromHex(hex); err != nil {
			return fmt.Errorf("palette[%d]: %w", i, err)
		}
	}
	if _, err := pigment.FromHex(c.Output.CanvasColor); err != nil {
		return fmt.Errorf("output.canvas_color: %w", err)
	}
	if c.Output.AlphaThreshold < 0 {
		return errors.New("output.alpha_threshold must not be negative")
	}
	if c.Canvas.Background >= len(c.Palette) || c.Canvas.Background < -1 {
		return fmt.Errorf("canvas.background: index %d out of range", c.Canvas.Background)
	}
	if c.Telemetry.LogEvery < 0 {
		return errors.New("telemetry.log_every must not be negative")
	}
	if len(c.Layers) == 0 {
		return errors.New("no layers configured")
	}

	for i, l := range c.Layers {
		if err := l.validate(len(c.Palette)); err != nil {
			return fmt.Errorf("layers[%d]: %w", i, err)
		}
		if i > 0 && !equalDims(l.Flow.Dimensions, c.Layers[0].Flow.Dimensions) {
			return fmt.Errorf("layers[%d]: flow dimensions %v differ from layers[0] %v",
				i, l.Flow.Dimensions, c.Layers[0].Flow.Dimensions)
		}
	}
	if c.Derived.Width < 1 || c.Derived.Height < 1 {
		return canvas.ErrBadSize
	}
	return nil
}

func (l LayerConfig) validate(k int) error {
	if len(l.Flow.Dimensions) != 2 || l.Flow.Dimensions[0] < 1 || l.Flow.Dimensions[1] < 1 {
		return fmt.Errorf("flow.dimensions must be [width, height], got %v", l.Flow.Dimensions)
	}
	if err := l.Flow.Def.Validate(); err != nil {
		return fmt.Errorf("flow.def: %w", err)
	}
	b := l.Params.Brush
	if b.AALevel < 0 || b.AALevel > canvas.MaxAALevel {
		return fmt.Errorf("brush.aa_level must be in 0..%d, got %d", canvas.MaxAALevel, b.AALevel)
	}
	p, err := l.SystemParams()
	if err != nil {
		return err
	}
	return p.Validate(k)
}

func equalDims(a, b []int) bool {
	return len(a) == 2 && len(b) == 2 && a[0] == b[0] && a[1] == b[1]
}

// BrushParams converts the brush template.
func (b BrushConfig) BrushParams() (brush.Params, error) {
	mode, err := brush.ParseMode(b.Mode)
	if err != nil {
		return brush.Params{}, err
	}
	return brush.Params{
		Radius:        b.Radius,
		RampIn:        b.RampInTime,
		Mixing:        b.Mix,
		Mode:          mode,
		AALevel:       b.AALevel,
		TransferCoeff: b.TransferCoeff,
		Lifetime: brush.Lifetime{
			Mean:    b.StrokeLifetime.Mean,
			Stddev:  b.StrokeLifetime.Stddev,
			RampOut: b.StrokeLifetime.RampOutTime,
		},
	}, nil
}

// SystemParams converts the layer into advection parameters.
func (l LayerConfig) SystemParams() (systems.Params, error) {
	bp, err := l.Params.Brush.BrushParams()
	if err != nil {
		return systems.Params{}, err
	}
	p := l.Params
	return systems.Params{
		NumParticles:       p.NumParticles,
		ParticleVolume:     p.ParticleVolume,
		HistoryLen:         p.MaxParticleHistory,
		DeadAreaSize:       p.DeadParticleArea,
		DeltaT:             p.DeltaT,
		PopulateWhiteSpace: p.PopulateWhiteSpace,
		Termination:        p.Termination,
		MaxIterations:      p.MaxIterations,
		PaletteSubset:      p.PaletteSubset,
		DiffusionRate:      p.DiffusionRate,
		Jitter:             systems.Jitter{Weight: p.Jitter.Weight, Stddev: p.Jitter.Stddev},
		Brush:              bp,
	}, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
