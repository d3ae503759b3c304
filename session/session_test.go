package session

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowpaint/config"
	"github.com/pthm-cable/flowpaint/render"
)

const twoLayers = `
rand_seed: 11
palette: ["#264653", "#e76f51"]
telemetry: {log_every: 10}
layers:
  - flow:
      dimensions: [24, 16]
      def: {op: circular, type: clockwise}
    params:
      num_particles: 8
      termination: 30
      palette_subset: [0]
      brush: {radius: 1.5}
  - flow:
      dimensions: [24, 16]
      def: {op: constant, value: [1, 0.25]}
    params:
      num_particles: 8
      termination: 20
      palette_subset: [1]
      brush: {radius: 1.5, mode: overlay}
`

func loadConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

func TestRunPaintsEveryLayer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s, err := New(loadConfig(t, twoLayers), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 0, s.Layer())
	require.NoError(t, s.Run())

	assert.True(t, s.Done())
	assert.Nil(t, s.Current())
	assert.Equal(t, 2, s.Layer())
	assert.Equal(t, 50, s.Iterations())
	assert.Equal(t, 1.0, s.Progress())
	assert.False(t, s.Step())

	// Both layers left their colour somewhere.
	c := s.Canvas()
	var first, second bool
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			m := c.At(x, y)
			first = first || m[0] > 0
			second = second || m[1] > 0
		}
	}
	assert.True(t, first)
	assert.True(t, second)

	assert.Equal(t, 1, logs.FilterMessage("session ready").Len())
	assert.Equal(t, 2, logs.FilterMessage("layer done").Len())
	for _, entry := range logs.FilterMessage("layer done").All() {
		summary, ok := entry.ContextMap()["summary"].(map[string]interface{})
		require.True(t, ok)
		assert.Positive(t, summary["region_misses"])
		assert.Contains(t, summary, "age_p90")
	}
	// 30/10 + 20/10 progress points
	assert.Equal(t, 5, logs.FilterMessage("progress").Len())
}

func TestSeedReproducesImage(t *testing.T) {
	run := func() []byte {
		s, err := New(loadConfig(t, twoLayers), Options{})
		require.NoError(t, err)
		require.NoError(t, s.Run())
		return s.Render().Pix
	}
	assert.Equal(t, run(), run())
}

func TestProgressIterationLayer(t *testing.T) {
	s, err := New(loadConfig(t, twoLayers), Options{})
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		require.True(t, s.Step())
	}
	assert.InDelta(t, 0.5, s.Progress(), 1e-9)
}

func TestOutputDirectory(t *testing.T) {
	root := t.TempDir()
	core, logs := observer.New(zap.InfoLevel)
	s, err := New(loadConfig(t, twoLayers), Options{OutputDir: root, Logger: zap.New(core)})
	require.NoError(t, err)
	require.NoError(t, s.Run())
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	dir := filepath.Join(root, entries[0].Name())

	ready := logs.FilterMessage("session ready").All()
	require.Len(t, ready, 1)
	assert.Equal(t, entries[0].Name(), ready[0].ContextMap()["run_id"])

	for _, name := range []string{"config.yaml", "progress.csv", "layers.csv", "perf.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	layers, err := os.ReadFile(filepath.Join(dir, "layers.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(layers)), "\n"), 3)

	// The snapshot loads back into the same run.
	again, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), again.Derived.Seed)
}

func TestBackgroundFill(t *testing.T) {
	cfg := loadConfig(t, twoLayers+"canvas: {background: 1, background_volume: 2}\n")
	s, err := New(cfg, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2.0, s.Canvas().At(5, 5)[1])
	assert.Equal(t, 1.0, s.Canvas().PaintedFraction())
}

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestSourceImage(t *testing.T) {
	img := render.ScaleTo(solid(color.RGBA{231, 111, 81, 255}), 12, 8)
	path := filepath.Join(t.TempDir(), "src.png")
	require.NoError(t, render.WriteFile(path, img))

	cfg := loadConfig(t, twoLayers+"canvas: {source_image: "+path+"}\n")
	s, err := New(cfg, Options{})
	require.NoError(t, err)

	c := s.Canvas()
	assert.Equal(t, 24, c.Width())
	assert.Equal(t, []float64{0, 1}, []float64(c.At(20, 10)))
}

func TestFieldResizedToCanvas(t *testing.T) {
	cfg := loadConfig(t, twoLayers+"canvas: {width: 48, height: 32}\n")
	s, err := New(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 48, s.Canvas().Width())
	require.NoError(t, s.Run())
}

func TestPaintAt(t *testing.T) {
	s, err := New(loadConfig(t, twoLayers), Options{})
	require.NoError(t, err)

	s.PaintAt(r2.Vec{X: 10, Y: 8}, 1)
	m := s.Canvas().At(10, 8)
	assert.Zero(t, m[0])
	assert.Positive(t, m[1])
}
