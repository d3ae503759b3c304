// Flow field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flowpaint/field"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	gridSize     = 256
)

// noiseParams holds the slider state.
type noiseParams struct {
	Simplex  bool
	Octaves  int
	Freq     float32
	Exponent float32
	Seed     uint64
}

func defaultParams() noiseParams {
	return noiseParams{Octaves: 4, Freq: 3, Exponent: 1, Seed: 12345}
}

func (p noiseParams) def() *field.Def {
	op := field.OpPerlin
	if p.Simplex {
		op = field.OpSimplex
	}
	return &field.Def{
		Op:       op,
		Octaves:  p.Octaves,
		Freq:     math.Round(float64(p.Freq)*10) / 10,
		Exponent: math.Round(float64(p.Exponent)*100) / 100,
	}
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams()

	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var f *field.Field
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			var err error
			f, err = field.Build(params.def(), gridSize, gridSize, rand.New(rand.NewPCG(params.Seed, params.Seed)))
			if err != nil {
				panic(err)
			}
			updateTexture(texture, f)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		drawArrows(f)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		minMag, maxMag, avgMag := magnitudes(f)
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("|v| min: %.3f  max: %.3f  avg: %.3f", minMag, maxMag, avgMag), 15, statsY, 16, rl.DarkGray)
		rl.DrawText("Hue = direction, brightness = speed", 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Noise Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, lo, hi string, value, min, max float32, format string) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				lo, hi, value, min, max,
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		if v := slider("Frequency (noise cycles across the field)", "0.5", "12", params.Freq, 0.5, 12, "%.1f"); v != params.Freq {
			params.Freq = v
			needsRegen = true
		}
		if v := int(slider("Octaves (0 = single octave)", "0", "8", float32(params.Octaves), 0, 8, "%.0f")); v != params.Octaves {
			params.Octaves = v
			needsRegen = true
		}
		if !params.Simplex {
			if v := slider("Exponent (shapes the noise curve)", "0.2", "4.0", params.Exponent, 0.2, 4, "%.2f"); v != params.Exponent {
				params.Exponent = v
				needsRegen = true
			}
		}
		if v := uint64(slider("Seed", "0", "99999", float32(params.Seed), 0, 99999, "%.0f")); v != params.Seed {
			params.Seed = v
			needsRegen = true
		}
		panelY += 10

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(params.Simplex, "Use Perlin", "Use Simplex")) {
			params.Simplex = !params.Simplex
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = uint64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		panelY += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		snippet := defYAML(params)
		rl.DrawText("Layer flow def:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(snippet, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func defYAML(p noiseParams) string {
	out, err := yaml.Marshal(struct {
		Def *field.Def `yaml:"def"`
	}{p.def()})
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func magnitudes(f *field.Field) (lo, hi, avg float64) {
	lo = math.Inf(1)
	var sum float64
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			v := f.At(x, y)
			m := math.Hypot(v.X, v.Y)
			lo, hi = math.Min(lo, m), math.Max(hi, m)
			sum += m
		}
	}
	return lo, hi, sum / (gridSize * gridSize)
}

// drawArrows overlays a sparse grid of direction strokes.
func drawArrows(f *field.Field) {
	const step = 16
	scale := float64(previewSize) / gridSize
	for y := step / 2; y < gridSize; y += step {
		for x := step / 2; x < gridSize; x += step {
			v := f.At(x, y)
			sx := 10 + float64(x)*scale
			sy := 10 + float64(y)*scale
			rl.DrawLine(int32(sx), int32(sy), int32(sx+v.X*12), int32(sy+v.Y*12), rl.Black)
		}
	}
}

// updateTexture colours each cell by flow direction and speed.
func updateTexture(texture rl.Texture2D, f *field.Field) {
	pixels := make([]color.RGBA, gridSize*gridSize)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			v := f.At(x, y)
			hue := math.Atan2(v.Y, v.X)*180/math.Pi + 180
			speed := math.Min(math.Hypot(v.X, v.Y), 1)
			r, g, b := colorful.Hsv(hue, 0.7, 0.3+0.7*speed).Clamped().RGB255()
			pixels[y*gridSize+x] = color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	rl.UpdateTexture(texture, pixels)
}
