package field

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// NoiseParams configures octave noise fields.
type NoiseParams struct {
	Octaves int
	// Freq is the number of base noise periods across the longer canvas side.
	Freq float64
	// Exponent shapes the [0,1] noise before it is mapped to [-1,1].
	Exponent   float64
	Normalized bool
}

// Uniform returns a field holding v everywhere.
func Uniform(width, height int, v r2.Vec) *Field {
	f := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Set(x, y, v)
		}
	}
	return f
}

// FromNoise builds a field whose x and y components come from two noise
// sources sampled over the canvas.
func FromNoise(width, height int, nx, ny Noise2D, p NoiseParams) *Field {
	scale := p.Freq / float64(max(width, height))
	exp := p.Exponent
	if exp == 0 {
		exp = 1
	}
	component := func(n Noise2D, x, y int) float64 {
		v := Octave(n, float64(x)*scale, float64(y)*scale, p.Octaves)
		return 2*math.Pow(v, exp) - 1
	}

	f := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Set(x, y, r2.Vec{X: component(nx, x, y), Y: component(ny, x, y)})
		}
	}
	if p.Normalized {
		return f.Normalized()
	}
	return f
}

// Perlin builds a Perlin noise field from two seeds.
func Perlin(width, height int, seedX, seedY uint64, p NoiseParams) *Field {
	return FromNoise(width, height, NewPerlinNoise(seedX), NewPerlinNoise(seedY), p)
}

// Simplex builds an OpenSimplex noise field from two seeds.
func Simplex(width, height int, seedX, seedY int64, p NoiseParams) *Field {
	return FromNoise(width, height, opensimplex.NewNormalized(seedX), opensimplex.NewNormalized(seedY), p)
}

// Rotation describes the direction of a circular or elliptic field.
type Rotation uint8

const (
	Outward Rotation = iota
	Inward
	Clockwise
	Counterclockwise
)

var rotationNames = [...]string{
	Outward:          "outward",
	Inward:           "inward",
	Clockwise:        "clockwise",
	Counterclockwise: "counterclockwise",
}

func (r Rotation) String() string {
	if int(r) < len(rotationNames) {
		return rotationNames[r]
	}
	return fmt.Sprintf("Rotation(%d)", r)
}

// ParseRotation converts a configuration name into a Rotation.
func ParseRotation(s string) (Rotation, error) {
	for i, name := range rotationNames {
		if name == s {
			return Rotation(i), nil
		}
	}
	return 0, fmt.Errorf("field: unknown circle type %q", s)
}

func (r Rotation) orient(outward r2.Vec) r2.Vec {
	switch r {
	case Inward:
		return r2.Scale(-1, outward)
	case Clockwise:
		return r2.Vec{X: outward.Y, Y: -outward.X}
	case Counterclockwise:
		return r2.Vec{X: -outward.Y, Y: outward.X}
	default:
		return outward
	}
}

// Circular returns unit vectors around the canvas centre.
func Circular(width, height int, r Rotation) *Field {
	return radial(width, height, r, 1, 1)
}

// Elliptic is Circular with streamlines following ellipses that share the
// canvas aspect ratio.
func Elliptic(width, height int, r Rotation) *Field {
	a := float64(width) / 2
	b := float64(height) / 2
	return radial(width, height, r, 1/(a*a), 1/(b*b))
}

// radial orients the normalised gradient of kx*dx^2 + ky*dy^2.
func radial(width, height int, r Rotation, kx, ky float64) *Field {
	centre := r2.Vec{X: float64(width) / 2, Y: float64(height) / 2}
	f := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := r2.Sub(r2.Vec{X: float64(x), Y: float64(y)}, centre)
			grad := r2.Vec{X: kx * d.X, Y: ky * d.Y}
			n := r2.Norm(grad)
			if n == 0 {
				continue
			}
			f.Set(x, y, r.orient(r2.Scale(1/n, grad)))
		}
	}
	return f
}
