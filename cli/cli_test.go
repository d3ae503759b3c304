package cli

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/flowpaint/render"
)

const smallParams = `
rand_seed: 5
palette: ["#264653", "#e9c46a"]
logging: {level: warn}
telemetry: {log_every: 0}
layers:
  - flow:
      dimensions: [20, 12]
      def: {op: circular, type: counterclockwise}
    params:
      num_particles: 6
      termination: 25
      brush: {radius: 1.5}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeParams(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallParams), 0644))
	return path
}

func TestRenderWritesImage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	_, err := run(t, "render", writeParams(t), out, "--output-dir", filepath.Join(dir, "runs"))
	require.NoError(t, err)

	img, err := render.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 12), img.Bounds())

	runs, err := os.ReadDir(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRenderSeedFlagIsDeterministic(t *testing.T) {
	params := writeParams(t)
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.bmp"), filepath.Join(dir, "b.bmp")

	_, err := run(t, "render", params, a, "--seed", "77")
	require.NoError(t, err)
	_, err = run(t, "render", params, b, "--seed", "77")
	require.NoError(t, err)

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestRenderRejectsFormatBeforePainting(t *testing.T) {
	_, err := run(t, "render", "does-not-exist.yaml", filepath.Join(t.TempDir(), "out.jpg"))
	assert.ErrorIs(t, err, render.ErrUnsupportedFormat)
}

func TestRenderBadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("palette: []\n"), 0644))
	_, err := run(t, "render", path, filepath.Join(t.TempDir(), "out.png"))
	assert.Error(t, err)
}

func TestArgCounts(t *testing.T) {
	for _, args := range [][]string{
		{"render", "only-one.yaml"},
		{"preview"},
		{"palette"},
	} {
		_, err := run(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestPaletteCommand(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(2, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(3, 0, color.RGBA{0, 0, 255, 255})
	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, render.WriteFile(path, img))

	out, err := run(t, "palette", path, "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, strings.Fields(out))

	_, err = run(t, "palette", path, "-n", "0")
	assert.Error(t, err)
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
