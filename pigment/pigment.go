// Package pigment provides a latent colour space in which weighted sums of
// colours behave like mixed paint rather than mixed light.
//
// A Pigment holds the concentrations of four primary pigments followed by an
// sRGB residual. Decoding mixes the primaries with a three-band
// Kubelka-Munk model and adds the residual back, so any sRGB colour survives
// an encode/decode round trip while mixtures of latents still darken and
// shift hue the way paint does (blue and yellow make green, not grey).
package pigment

import (
	"errors"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// LatentSize is the number of scalar channels in a Pigment.
const LatentSize = 7

const (
	numPrimaries = 4
	residualBase = numPrimaries

	// epsilon is the per-channel tolerance used by Equal.
	epsilon = 0.000005
)

// Pigment is the latent representation of a paint colour.
// Pigments are plain values; linear combinations of pigments are valid pigments.
type Pigment [LatentSize]float64

// Part is a pigment together with the volume it contributes to a mix.
type Part struct {
	Pigment Pigment
	Volume  float64
}

// ErrEmptyMix is returned by MixMany when there is nothing to mix.
var ErrEmptyMix = errors.New("pigment: cannot mix an empty set of pigments")

// primary describes a base pigment by its absorption/scattering ratio in the
// red, green and blue bands.
type primary struct {
	name string
	ks   [3]float64
}

// Masstone reflectances (linear, per band) of the four base pigments.
var primaries = [numPrimaries]primary{
	newPrimary("phthalo", 0.02, 0.30, 0.62),
	newPrimary("quinacridone", 0.60, 0.03, 0.28),
	newPrimary("hansa", 0.86, 0.72, 0.03),
	newPrimary("titanium", 0.97, 0.97, 0.96),
}

func newPrimary(name string, r, g, b float64) primary {
	return primary{name: name, ks: [3]float64{ksRatio(r), ksRatio(g), ksRatio(b)}}
}

// ksRatio inverts the Kubelka-Munk reflectance of an opaque layer.
func ksRatio(reflectance float64) float64 {
	return (1 - reflectance) * (1 - reflectance) / (2 * reflectance)
}

// kmReflectance is the reflectance of an opaque layer with the given K/S.
func kmReflectance(ks float64) float64 {
	return 1 + ks - math.Sqrt(ks*ks+2*ks)
}

// baseColor returns the sRGB colour produced by mixing the primaries in the
// given concentrations. Concentrations need not sum to one; a zero total is
// bare paper.
func baseColor(conc []float64) colorful.Color {
	var total float64
	for _, c := range conc {
		total += c
	}
	if total <= 0 {
		return colorful.Color{R: 1, G: 1, B: 1}
	}

	var ks [3]float64
	for i, c := range conc {
		for band := range ks {
			ks[band] += c * primaries[i].ks[band]
		}
	}
	return colorful.LinearRgb(
		kmReflectance(ks[0]/total),
		kmReflectance(ks[1]/total),
		kmReflectance(ks[2]/total),
	)
}

// FromRGB encodes an 8-bit sRGB colour.
func FromRGB(r, g, b uint8) Pigment {
	return encode(colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	})
}

// FromColor encodes any image/color value, ignoring alpha.
func FromColor(c color.Color) Pigment {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return FromRGB(rgba.R, rgba.G, rgba.B)
}

// FromHex encodes a "#rrggbb" string.
func FromHex(s string) (Pigment, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Pigment{}, err
	}
	return encode(c), nil
}

func encode(target colorful.Color) Pigment {
	conc := fitConcentrations(target)
	base := baseColor(conc[:])

	var p Pigment
	copy(p[:numPrimaries], conc[:])
	p[residualBase+0] = target.R - base.R
	p[residualBase+1] = target.G - base.G
	p[residualBase+2] = target.B - base.B
	return p
}

// RGB decodes the pigment to 8-bit sRGB.
func (p Pigment) RGB() (r, g, b uint8) {
	base := baseColor(p[:numPrimaries])
	c := colorful.Color{
		R: base.R + p[residualBase+0],
		G: base.G + p[residualBase+1],
		B: base.B + p[residualBase+2],
	}
	return c.Clamped().RGB255()
}

// RGBA decodes the pigment to an opaque color.RGBA.
func (p Pigment) RGBA() color.RGBA {
	r, g, b := p.RGB()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Scale returns k*p.
func (p Pigment) Scale(k float64) Pigment {
	for i := range p {
		p[i] *= k
	}
	return p
}

// Add returns p+q.
func (p Pigment) Add(q Pigment) Pigment {
	for i := range p {
		p[i] += q[i]
	}
	return p
}

// Equal reports whether two pigments match within a small per-channel tolerance.
func Equal(a, b Pigment) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

// Mix returns the volume-weighted average of two pigments.
// If both volumes are zero, a is returned unchanged.
func Mix(a Pigment, aVol float64, b Pigment, bVol float64) Pigment {
	vol := aVol + bVol
	if vol == 0 {
		return a
	}
	return a.Scale(aVol).Add(b.Scale(bVol)).Scale(1 / vol)
}

// MixMany returns the volume-weighted average of any number of pigments.
// A zero total volume yields the zero pigment, which decodes to bare paper.
func MixMany(parts []Part) (Pigment, error) {
	if len(parts) == 0 {
		return Pigment{}, ErrEmptyMix
	}

	var mixed Pigment
	var total float64
	for _, part := range parts {
		for i := range mixed {
			mixed[i] += part.Pigment[i] * part.Volume
		}
		total += part.Volume
	}
	if total > 0 {
		mixed = mixed.Scale(1 / total)
	}
	return mixed, nil
}
