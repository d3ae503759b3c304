package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for output paths that are neither PNG nor BMP.
var ErrUnsupportedFormat = errors.New("render: unsupported image format")

// CheckPath reports whether WriteFile can encode to path.
func CheckPath(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".bmp":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// WriteFile encodes img to path, choosing PNG or BMP from the extension.
func WriteFile(path string, img image.Image) (err error) {
	if err := CheckPath(path); err != nil {
		return err
	}
	encode := func(f *os.File) error { return png.Encode(f, img) }
	if strings.ToLower(filepath.Ext(path)) == ".bmp" {
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := encode(f); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes a PNG, JPEG or BMP image.
func ReadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// ScaleTo resamples img to width x height.
func ScaleTo(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// TopColors returns up to n of the most frequent opaque colours in img,
// most frequent first. Ties are broken by colour value.
func TopColors(img image.Image, n int) []color.RGBA {
	counts := make(map[color.RGBA]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			px.A = 255
			counts[px]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	slices.SortFunc(colors, func(a, b color.RGBA) int {
		if d := counts[b] - counts[a]; d != 0 {
			return d
		}
		return int(pack(a)) - int(pack(b))
	})

	if len(colors) > n {
		colors = colors[:n]
	}
	return colors
}

func pack(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
