// Package preview shows a running session in a raylib window.
package preview

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowpaint/camera"
	"github.com/pthm-cable/flowpaint/render"
	"github.com/pthm-cable/flowpaint/session"
	"github.com/pthm-cable/flowpaint/systems"
	"github.com/pthm-cable/flowpaint/telemetry"
)

const (
	windowWidth  = 1280
	windowHeight = 800
	panelHeight  = 48
	maxPerFrame  = 200
)

// Options configures the preview window.
type Options struct {
	StepsPerFrame int
	// SavePath is where the Save button writes the current image.
	SavePath string
	Logger   *zap.Logger
}

// Viewer holds window state for one session.
type Viewer struct {
	s    *session.Session
	log  *zap.Logger
	opts Options

	cam     *camera.Camera
	texture rl.Texture2D
	pixels  []color.RGBA

	paused        bool
	stepOnce      bool
	stepsPerFrame int
	paintColor    int
	showParticles bool
}

// Run opens the window and steps s until the window is closed. Painting
// continues from wherever the session is.
func Run(s *session.Session, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.StepsPerFrame < 1 {
		opts.StepsPerFrame = 1
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(windowWidth, windowHeight, "flowpaint")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	c := s.Canvas()
	v := &Viewer{
		s:             s,
		log:           log,
		opts:          opts,
		cam:           camera.New(windowWidth, windowHeight-panelHeight, float32(c.Width()), float32(c.Height())),
		pixels:        make([]color.RGBA, c.Width()*c.Height()),
		stepsPerFrame: opts.StepsPerFrame,
		showParticles: true,
	}

	img := rl.GenImageColor(c.Width(), c.Height(), rl.White)
	v.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(v.texture)
	rl.SetTextureFilter(v.texture, rl.FilterPoint)

	for !rl.WindowShouldClose() {
		s.Perf().RecordFrame()
		v.handleInput()

		for i := 0; i < frameSteps(v.paused, v.stepOnce, v.stepsPerFrame); i++ {
			if !s.Step() {
				break
			}
		}
		v.stepOnce = false

		v.updateTexture()
		v.draw()
	}
	return s.Err()
}

// frameSteps is the number of iterations to run this frame.
func frameSteps(paused, stepOnce bool, perFrame int) int {
	switch {
	case stepOnce:
		return 1
	case paused:
		return 0
	}
	return perFrame
}

func (v *Viewer) handleInput() {
	if rl.IsWindowResized() {
		v.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()-panelHeight))
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		v.stepOnce = true
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showParticles = !v.showParticles
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.paintColor = nextColor(v.paintColor, len(v.s.Canvas().Palette()))
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}

	mouse := rl.GetMousePosition()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		// Zoom toward/away from cursor position
		v.cam.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}

	// Left drag paints, except over the control panel.
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) && mouse.Y < v.cam.ViewportH {
		wx, wy := v.cam.ScreenToWorld(mouse.X, mouse.Y)
		if v.cam.Contains(wx, wy) {
			v.s.PaintAt(r2.Vec{X: float64(wx), Y: float64(wy)}, v.paintColor)
		}
	}
}

func nextColor(current, k int) int {
	return (current + 1) % k
}

func (v *Viewer) updateTexture() {
	img := v.s.Render()
	for i := range v.pixels {
		v.pixels[i] = color.RGBA{img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], 255}
	}
	rl.UpdateTexture(v.texture, v.pixels)
}

func (v *Viewer) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.DarkGray)

	x, y, w, h := v.cam.CanvasRect()
	rl.DrawTexturePro(
		v.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(v.texture.Width), Height: float32(v.texture.Height)},
		rl.Rectangle{X: x, Y: y, Width: w, Height: h},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)

	if v.showParticles {
		v.drawParticles()
	}
	v.drawPanel()

	rl.EndDrawing()
}

func (v *Viewer) drawParticles() {
	a := v.s.Current()
	if a == nil {
		return
	}
	palette := v.s.Canvas().Palette()
	a.Particles(func(p systems.Particle) {
		sx, sy := v.cam.WorldToScreen(float32(p.Position.X), float32(p.Position.Y))
		c := p.Paint.Color(palette).RGBA()
		col := rl.NewColor(c.R, c.G, c.B, 200)
		for i := 1; i < len(p.Trail); i++ {
			ax, ay := v.cam.WorldToScreen(float32(p.Trail[i-1].X), float32(p.Trail[i-1].Y))
			bx, by := v.cam.WorldToScreen(float32(p.Trail[i].X), float32(p.Trail[i].Y))
			rl.DrawLineV(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, rl.Fade(col, 0.5))
		}
		rl.DrawCircleLines(int32(sx), int32(sy), float32(p.Radius)*v.cam.Zoom, col)
	})
}

func (v *Viewer) drawPanel() {
	top := v.cam.ViewportH
	width := float32(rl.GetScreenWidth())
	rl.DrawRectangle(0, int32(top), int32(width), panelHeight, rl.RayWhite)

	px := float32(10)
	py := top + 10

	if gui.Button(rl.Rectangle{X: px, Y: py, Width: 80, Height: 28}, toggleText(v.paused, "Resume", "Pause")) {
		v.paused = !v.paused
	}
	px += 90
	if gui.Button(rl.Rectangle{X: px, Y: py, Width: 60, Height: 28}, "Step") {
		v.stepOnce = true
	}
	px += 70
	if gui.Button(rl.Rectangle{X: px, Y: py, Width: 60, Height: 28}, "Save") {
		v.save()
	}
	px += 80

	rl.DrawText("steps/frame", int32(px), int32(py+7), 14, rl.Gray)
	px += 90
	v.stepsPerFrame = int(gui.SliderBar(
		rl.Rectangle{X: px, Y: py + 4, Width: 160, Height: 20},
		"", fmt.Sprintf("%d", v.stepsPerFrame),
		float32(v.stepsPerFrame), 1, maxPerFrame,
	))
	px += 200

	layers := len(v.s.Config().Layers)
	label := fmt.Sprintf("layer %d/%d", min(v.s.Layer()+1, layers), layers)
	gui.ProgressBar(
		rl.Rectangle{X: px + 70, Y: py + 4, Width: 220, Height: 20},
		label, fmt.Sprintf("%.0f%%", v.s.Progress()*100),
		float32(v.s.Progress()), 0, 1,
	)
	px += 340

	// Current paint colour swatch
	pc := v.s.Canvas().Palette()[v.paintColor].RGBA()
	rl.DrawRectangle(int32(px), int32(py), 28, 28, rl.NewColor(pc.R, pc.G, pc.B, 255))
	rl.DrawText(statusText(v.s.Iterations(), v.s.Perf().Stats()), int32(px+40), int32(py+7), 14, rl.DarkGray)
}

func (v *Viewer) save() {
	path := v.opts.SavePath
	if path == "" {
		path = fmt.Sprintf("flowpaint-%d.png", v.s.Iterations())
	}
	if err := render.WriteFile(path, v.s.Render()); err != nil {
		v.log.Error("saving image", zap.String("path", path), zap.Error(err))
		return
	}
	v.log.Info("saved image", zap.String("path", path))
}

func statusText(iterations int, perf telemetry.PerfStats) string {
	return fmt.Sprintf("iter %d  %.0f fps  %.0f it/s", iterations, perf.FPS, perf.TicksPerSecond)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
