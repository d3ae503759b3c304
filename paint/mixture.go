// Package paint provides paint mixtures: per-palette volumes of pigment.
package paint

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/flowpaint/pigment"
)

// Mixture holds one volume per palette colour.
// Component i is how much of palette colour i is present.
// Operations that combine two mixtures panic when their lengths differ.
type Mixture []float64

// New returns an empty mixture for a palette of k colours.
func New(k int) Mixture {
	return make(Mixture, k)
}

// OneColor returns a mixture holding vol of palette colour index only.
func OneColor(k, index int, vol float64) Mixture {
	m := New(k)
	m[index] = vol
	return m
}

// Clone returns an independent copy of m.
func (m Mixture) Clone() Mixture {
	out := make(Mixture, len(m))
	copy(out, m)
	return out
}

// Volume is the total paint volume of the mixture.
func (m Mixture) Volume() float64 {
	return floats.Sum(m)
}

// Scale returns k*m.
func Scale(k float64, m Mixture) Mixture {
	out := make(Mixture, len(m))
	floats.ScaleTo(out, k, m)
	return out
}

// Add returns a+b.
func Add(a, b Mixture) Mixture {
	out := make(Mixture, len(a))
	floats.AddTo(out, a, b)
	return out
}

// Sub returns a-b. The result may have negative components.
func Sub(a, b Mixture) Mixture {
	out := make(Mixture, len(a))
	floats.SubTo(out, a, b)
	return out
}

// Lerp returns (1-t)*a + t*b.
func Lerp(a, b Mixture, t float64) Mixture {
	out := Scale(1-t, a)
	floats.AddScaled(out, t, b)
	return out
}

// AddScaled adds k*src to m in place.
func (m Mixture) AddScaled(k float64, src Mixture) {
	floats.AddScaled(m, k, src)
}

// Normalize returns m scaled to unit volume, or a copy of m if it has no volume.
func Normalize(m Mixture) Mixture {
	vol := m.Volume()
	if vol == 0 {
		return m.Clone()
	}
	return Scale(1/vol, m)
}

// ClampNonNegative replaces negative components with zero, in place.
func (m Mixture) ClampNonNegative() {
	for i, v := range m {
		if v < 0 {
			m[i] = 0
		}
	}
}

// Color returns the effective pigment of the mixture for the given palette.
func (m Mixture) Color(palette []pigment.Pigment) pigment.Pigment {
	if len(palette) != len(m) {
		panic(fmt.Sprintf("paint: mixture has %d components, palette has %d", len(m), len(palette)))
	}
	parts := make([]pigment.Part, len(m))
	for i, vol := range m {
		parts[i] = pigment.Part{Pigment: palette[i], Volume: vol}
	}
	p, err := pigment.MixMany(parts)
	if err != nil {
		panic(err)
	}
	return p
}

func (m Mixture) String() string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = fmt.Sprintf("%.4g", v)
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}
