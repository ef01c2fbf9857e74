package imop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func TestComp_Basic(t *testing.T) {
	assert := assert.New(t)

	op := InitOp()
	assert.Equal(SrcOver, op.Get())

	op.Set(Copy)
	assert.Equal(Copy, op.Get())

	op.Set("unsupported_composite_operation")
	assert.Equal(Copy, op.Get())
}

func TestComp_MaskedDraw(t *testing.T) {
	assert := assert.New(t)

	cyan := color.NRGBA{R: 33, G: 150, B: 243, A: 255}
	magenta := color.NRGBA{R: 233, G: 30, B: 99, A: 255}

	dst := uniform(10, 10, magenta)
	src := uniform(4, 4, cyan)

	mask := NewMask(4, 4)
	mask.Set(0, 0, 1)
	mask.Set(1, 0, 0.5)

	Blend(dst, src, mask, image.Pt(2, 2))

	assert.Equal(cyan, dst.NRGBAAt(2, 2))
	assert.Equal(color.NRGBA{R: 133, G: 90, B: 171, A: 255}, dst.NRGBAAt(3, 2))
	// zero coverage keeps the destination
	assert.Equal(magenta, dst.NRGBAAt(4, 4))
	// outside the patch
	assert.Equal(magenta, dst.NRGBAAt(0, 0))
}

func TestComp_Ops(t *testing.T) {
	assert := assert.New(t)

	transparent := color.NRGBA{}
	cyan := color.NRGBA{R: 33, G: 150, B: 243, A: 255}
	magenta := color.NRGBA{R: 233, G: 30, B: 99, A: 255}

	src := uniform(2, 1, transparent)
	src.SetNRGBA(0, 0, cyan)

	op := InitOp()
	dst := uniform(2, 1, magenta)
	op.Draw(dst, src, nil, image.Point{})
	assert.Equal(cyan, dst.NRGBAAt(0, 0))
	assert.Equal(magenta, dst.NRGBAAt(1, 0))

	op.Set(Copy)
	dst = uniform(2, 1, magenta)
	op.Draw(dst, src, nil, image.Point{})
	assert.Equal(cyan, dst.NRGBAAt(0, 0))
	assert.Equal(uint8(0), dst.NRGBAAt(1, 0).A)

	op.Set(DstOver)
	dst = uniform(2, 1, magenta)
	op.Draw(dst, src, nil, image.Point{})
	assert.Equal(magenta, dst.NRGBAAt(0, 0))
	assert.Equal(magenta, dst.NRGBAAt(1, 0))
}

func TestComp_ClipsToDestination(t *testing.T) {
	assert := assert.New(t)

	dst := uniform(4, 4, color.NRGBA{A: 255})
	src := uniform(4, 4, color.NRGBA{R: 255, A: 255})

	assert.NotPanics(func() {
		Blend(dst, src, nil, image.Pt(2, 2))
		Blend(dst, src, nil, image.Pt(-10, -10))
	})
	assert.Equal(uint8(255), dst.NRGBAAt(3, 3).R)
	assert.Equal(uint8(0), dst.NRGBAAt(1, 1).R)
}
