package tone

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := color.NRGBA{R: 60, G: 60, B: 60, A: 255}
			if (x/4+y/4)%2 == 0 {
				c = color.NRGBA{R: 190, G: 190, B: 190, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestTone_Parse(t *testing.T) {
	p, err := Parse(strings.NewReader(`{"brightness": 20, "warmth": -10, "mood": "cozy"}`))
	require.NoError(t, err)
	assert.Equal(t, Params{Brightness: 20, Warmth: -10}, p)

	_, err = Parse(strings.NewReader(`{"softness": 1.5}`))
	assert.ErrorContains(t, err, "Softness must be at most 1")

	_, err = Parse(strings.NewReader(`{"contrast": -120}`))
	assert.ErrorContains(t, err, "Contrast must be at least -100")

	_, err = Parse(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestTone_ZeroIsIdentity(t *testing.T) {
	src := checker()
	out := Apply(src, Params{})
	assert.Equal(t, src.Pix, out.Pix)
	assert.True(t, Params{}.IsZero())
}

func TestTone_BrightnessContrast(t *testing.T) {
	src := imaging.New(2, 1, color.NRGBA{R: 100, G: 200, B: 250, A: 128})

	out := Apply(src, Params{Brightness: 30})
	assert.Equal(t, color.NRGBA{R: 130, G: 230, B: 255, A: 128}, out.NRGBAAt(0, 0))

	out = Apply(src, Params{Contrast: 50})
	assert.Equal(t, color.NRGBA{R: 150, G: 255, B: 255, A: 128}, out.NRGBAAt(0, 0))

	out = Apply(src, Params{Contrast: -100, Brightness: -10})
	assert.Equal(t, color.NRGBA{R: 0, G: 0, B: 0, A: 128}, out.NRGBAAt(0, 0))
}

func TestTone_Warmth(t *testing.T) {
	src := imaging.New(1, 1, color.NRGBA{R: 100, G: 100, B: 30, A: 255})
	out := Apply(src, Params{Warmth: 40})
	assert.Equal(t, color.NRGBA{R: 140, G: 100, B: 0, A: 255}, out.NRGBAAt(0, 0))

	out = Apply(src, Params{Warmth: -40})
	assert.Equal(t, color.NRGBA{R: 60, G: 100, B: 70, A: 255}, out.NRGBAAt(0, 0))
}

func TestTone_SoftnessAndSharpness(t *testing.T) {
	src := checker()
	contrast := func(img *image.NRGBA) int {
		return int(img.NRGBAAt(3, 3).R) - int(img.NRGBAAt(4, 3).R)
	}

	soft := Apply(src, Params{Softness: 0.5})
	assert.Less(t, contrast(soft), contrast(src))

	sharp := Apply(src, Params{Sharpness: 1})
	assert.Greater(t, contrast(sharp), contrast(src))

	// too little softness for a kernel wider than one pixel
	assert.Equal(t, src.Pix, Apply(src, Params{Softness: 0.01}).Pix)
}
