// Package render turns canvases into images and images into canvases.
package render

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/flowpaint/canvas"
	"github.com/pthm-cable/flowpaint/paint"
	"github.com/pthm-cable/flowpaint/pigment"
)

// ToImage rasterises the canvas. With a positive alphaThreshold, cells
// holding less paint than the threshold are blended towards background in
// pigment space, in proportion to their volume.
func ToImage(c *canvas.Canvas, alphaThreshold float64, background pigment.Pigment) *image.RGBA {
	img := image.NewRGBA(c.Bounds())
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			img.SetRGBA(x, y, CellColor(c, x, y, alphaThreshold, background))
		}
	}
	return img
}

// CellColor is the rendered colour of one canvas cell.
func CellColor(c *canvas.Canvas, x, y int, alphaThreshold float64, background pigment.Pigment) color.RGBA {
	p := c.ColorAt(x, y)
	if alphaThreshold > 0 {
		alpha := 1.0
		if vol := c.VolumeAt(x, y); vol < alphaThreshold {
			alpha = vol / alphaThreshold
		}
		p = pigment.Mix(background, 1-alpha, p, alpha)
	}
	return p.RGBA()
}

// CanvasFromImage builds a canvas the size of img in which every cell holds
// volume of the palette colour nearest to the pixel, measured in CIE Lab.
func CanvasFromImage(img image.Image, palette []pigment.Pigment, volume float64) (*canvas.Canvas, error) {
	b := img.Bounds()
	c, err := canvas.New(palette, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	targets := make([]colorful.Color, len(palette))
	for i, p := range palette {
		targets[i], _ = colorful.MakeColor(p.RGBA())
	}

	// Photographs repeat colours heavily; memoise the nearest match.
	nearest := make(map[color.RGBA]int)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			px.A = 255
			idx, ok := nearest[px]
			if !ok {
				idx = NearestColor(px, targets)
				nearest[px] = idx
			}
			c.Set(x, y, paint.OneColor(len(palette), idx, volume))
		}
	}
	return c, nil
}

// NearestColor returns the index of the palette entry closest to px in Lab.
func NearestColor(px color.Color, palette []colorful.Color) int {
	target, _ := colorful.MakeColor(px)
	best, bestDist := -1, 0.0
	for i, p := range palette {
		if d := target.DistanceLab(p); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Hex formats a colour as "#rrggbb".
func Hex(c color.RGBA) string {
	cc, _ := colorful.MakeColor(c)
	return cc.Hex()
}
