package field

import (
	"math"
	"math/rand/v2"
)

// Noise2D is a coherent noise source with values in [0, 1].
// github.com/ojrac/opensimplex-go's normalized generators satisfy it.
type Noise2D interface {
	Eval2(x, y float64) float64
}

// PerlinNoise generates classic improved Perlin noise.
type PerlinNoise struct {
	perm [512]int
}

// NewPerlinNoise creates a new Perlin noise generator.
func NewPerlinNoise(seed uint64) *PerlinNoise {
	p := &PerlinNoise{}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	rng.Shuffle(len(perm), func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})

	// Duplicate so corner hashes never need wrapping
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}

	return p
}

// Noise3D returns a noise value in roughly [-1, 1] for 3D coordinates.
func (p *PerlinNoise) Noise3D(x, y, z float64) float64 {
	// Find unit cube
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	Z := int(math.Floor(z)) & 255

	// Find relative position in cube
	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)

	u := fade(x)
	v := fade(y)
	w := fade(z)

	// Hash coordinates of cube corners
	A := p.perm[X] + Y
	AA := p.perm[A] + Z
	AB := p.perm[A+1] + Z
	B := p.perm[X+1] + Y
	BA := p.perm[B] + Z
	BB := p.perm[B+1] + Z

	return lerp(w, lerp(v, lerp(u, grad3D(p.perm[AA], x, y, z),
		grad3D(p.perm[BA], x-1, y, z)),
		lerp(u, grad3D(p.perm[AB], x, y-1, z),
			grad3D(p.perm[BB], x-1, y-1, z))),
		lerp(v, lerp(u, grad3D(p.perm[AA+1], x, y, z-1),
			grad3D(p.perm[BA+1], x-1, y, z-1)),
			lerp(u, grad3D(p.perm[AB+1], x, y-1, z-1),
				grad3D(p.perm[BB+1], x-1, y-1, z-1))))
}

// Noise2D returns a noise value in roughly [-1, 1] for 2D coordinates.
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	return p.Noise3D(x, y, 0)
}

// Eval2 returns Noise2D remapped to [0, 1].
func (p *PerlinNoise) Eval2(x, y float64) float64 {
	return clamp(0.5*p.Noise2D(x, y)+0.5, 0, 1)
}

// Octave sums octaves of n, doubling frequency and halving amplitude each
// time. The result stays in [0, 1].
func Octave(n Noise2D, x, y float64, octaves int) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for i := 0; i < max(octaves, 1); i++ {
		sum += amp * n.Eval2(x*freq, y*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad3D(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
