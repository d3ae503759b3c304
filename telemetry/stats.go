package telemetry

import (
	"slices"

	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/stat"
)

// ProgressRecord is one logged point of a running layer.
type ProgressRecord struct {
	Layer     int `csv:"layer"`
	Iteration int `csv:"iteration"`

	// Canvas state
	PaintedPct float64 `csv:"painted_pct"`

	// Particle turnover so far
	Particles       int `csv:"particles"`
	Spawned         int `csv:"spawned"`
	RetiredDead     int `csv:"retired_dead"`
	RetiredOutside  int `csv:"retired_outside"`
	RetiredStagnant int `csv:"retired_stagnant"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (r ProgressRecord) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("layer", r.Layer)
	enc.AddInt("iteration", r.Iteration)
	enc.AddFloat64("painted_pct", r.PaintedPct)
	enc.AddInt("particles", r.Particles)
	enc.AddInt("spawned", r.Spawned)
	enc.AddInt("retired_dead", r.RetiredDead)
	enc.AddInt("retired_outside", r.RetiredOutside)
	enc.AddInt("retired_stagnant", r.RetiredStagnant)
	return nil
}

// LayerSummary describes a finished layer.
type LayerSummary struct {
	Layer      int     `csv:"layer"`
	Iterations int     `csv:"iterations"`
	PaintedPct float64 `csv:"painted_pct"`
	Spawned    int     `csv:"spawned"`
	Retired    int     `csv:"retired"`

	// Particle lifetimes in steps
	AgeMean float64 `csv:"age_mean"`
	AgeStd  float64 `csv:"age_std"`
	AgeP10  float64 `csv:"age_p10"`
	AgeP50  float64 `csv:"age_p50"`
	AgeP90  float64 `csv:"age_p90"`

	// Brush footprint cache, cumulative over the run
	RegionEntries int    `csv:"region_entries"`
	RegionHits    uint64 `csv:"region_hits"`
	RegionMisses  uint64 `csv:"region_misses"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s LayerSummary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("layer", s.Layer)
	enc.AddInt("iterations", s.Iterations)
	enc.AddFloat64("painted_pct", s.PaintedPct)
	enc.AddInt("spawned", s.Spawned)
	enc.AddInt("retired", s.Retired)
	enc.AddFloat64("age_mean", s.AgeMean)
	enc.AddFloat64("age_std", s.AgeStd)
	enc.AddFloat64("age_p10", s.AgeP10)
	enc.AddFloat64("age_p50", s.AgeP50)
	enc.AddFloat64("age_p90", s.AgeP90)
	enc.AddInt("region_entries", s.RegionEntries)
	enc.AddUint64("region_hits", s.RegionHits)
	enc.AddUint64("region_misses", s.RegionMisses)
	return nil
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeAgeStats calculates mean, sample standard deviation and percentiles.
func ComputeAgeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	switch len(values) {
	case 0:
		return 0, 0, 0, 0, 0
	case 1:
		v := values[0]
		return v, 0, v, v, v
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}
