package pigment

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestRoundTrip(t *testing.T) {
	samples := []color.RGBA{
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
		{0, 33, 133, 255},
		{252, 211, 0, 255},
		{38, 70, 83, 255},
		{42, 157, 143, 255},
		{233, 196, 106, 255},
		{128, 128, 128, 255},
		{17, 200, 77, 255},
	}

	for _, s := range samples {
		r, g, b := FromRGB(s.R, s.G, s.B).RGB()
		if absDiff(r, s.R) > 2 || absDiff(g, s.G) > 2 || absDiff(b, s.B) > 2 {
			t.Errorf("round trip of %v gave (%d, %d, %d)", s, r, g, b)
		}
	}
}

func TestConcentrationsOnSimplex(t *testing.T) {
	p := FromRGB(200, 40, 90)

	var sum float64
	for i := 0; i < numPrimaries; i++ {
		assert.GreaterOrEqual(t, p[i], 0.0)
		sum += p[i]
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFromHex(t *testing.T) {
	p, err := FromHex("#2a9d8f")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{42, 157, 143, 255}, p.RGBA())

	_, err = FromHex("not-a-colour")
	assert.Error(t, err)
}

func TestMix(t *testing.T) {
	a := FromRGB(0, 33, 133)
	b := FromRGB(252, 211, 0)

	tests := []struct {
		name       string
		aVol, bVol float64
		want       Pigment
	}{
		{"all a", 1, 0, a},
		{"all b", 0, 2, b},
		{"zero volume keeps a", 0, 0, a},
		{"equal parts", 1, 1, a.Add(b).Scale(0.5)},
		{"weighted", 3, 1, a.Scale(0.75).Add(b.Scale(0.25))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mix(a, tt.aVol, b, tt.bVol)
			if !Equal(got, tt.want) {
				t.Errorf("Mix(a, %v, b, %v) = %v, want %v", tt.aVol, tt.bVol, got, tt.want)
			}
		})
	}
}

func TestMixSelfIsIdentity(t *testing.T) {
	a := FromRGB(233, 196, 106)
	assert.True(t, Equal(a, Mix(a, 0.3, a, 0.9)))
}

func TestMixMany(t *testing.T) {
	a := FromRGB(255, 0, 0)
	b := FromRGB(0, 0, 255)
	c := FromRGB(255, 255, 255)

	got, err := MixMany([]Part{{a, 2}, {b, 1}, {c, 1}})
	require.NoError(t, err)

	want := a.Scale(0.5).Add(b.Scale(0.25)).Add(c.Scale(0.25))
	assert.True(t, Equal(got, want), "got %v want %v", got, want)

	two, err := MixMany([]Part{{a, 1}, {b, 3}})
	require.NoError(t, err)
	assert.True(t, Equal(two, Mix(a, 1, b, 3)))
}

func TestMixManyEmpty(t *testing.T) {
	_, err := MixMany(nil)
	assert.ErrorIs(t, err, ErrEmptyMix)
}

func TestMixManyZeroVolumeIsPaper(t *testing.T) {
	got, err := MixMany([]Part{{FromRGB(10, 20, 30), 0}})
	require.NoError(t, err)
	assert.Equal(t, Pigment{}, got)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, got.RGBA())
}

func TestEqualTolerance(t *testing.T) {
	a := FromRGB(90, 90, 200)
	b := a
	b[2] += epsilon / 2
	assert.True(t, Equal(a, b))

	b[2] += epsilon * 2
	assert.False(t, Equal(a, b))
}
