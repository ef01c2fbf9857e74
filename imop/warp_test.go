package imop

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 90, A: 255})
		}
	}
	return img
}

func TestRemap_Reflect(t *testing.T) {
	testCases := []struct {
		i, n, want int
	}{
		{-1, 5, 0},
		{-2, 5, 1},
		{5, 5, 4},
		{6, 5, 3},
		{12, 5, 2},
		{-7, 5, 3},
		{3, 1, 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, reflect(tc.i, tc.n), "reflect(%d, %d)", tc.i, tc.n)
	}
}

func TestRemap_Identity(t *testing.T) {
	src := ramp(12, 8)
	out := Remap(src, NewIdentityField(12, 8))
	assert.Equal(t, src.Pix, out.Pix)
}

func TestRemap_ShiftAndBorder(t *testing.T) {
	src := ramp(12, 8)
	f := NewIdentityField(12, 8)
	for i := range f.Y {
		f.Y[i] -= 1.5
	}
	out := Remap(src, f)

	// row 4 samples halfway between rows 2 and 3
	assert.Equal(t, uint8(25), out.NRGBAAt(0, 4).G)
	// row 0 samples y=-1.5 which mirrors to rows 0 and 1
	assert.Equal(t, uint8(5), out.NRGBAAt(0, 0).G)
	assert.Equal(t, uint8(255), out.NRGBAAt(0, 0).A)
}

func TestInpaint_UniformFill(t *testing.T) {
	bg := color.NRGBA{R: 100, G: 150, B: 200, A: 255}
	src := uniform(20, 20, bg)
	mask := NewMask(20, 20)
	for y := 7; y < 13; y++ {
		for x := 7; x < 13; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			mask.Set(x, y, 1)
		}
	}

	out, err := Telea{}.Inpaint(src, mask, 3)
	require.NoError(t, err)
	for y := 7; y < 13; y++ {
		for x := 7; x < 13; x++ {
			c := out.NRGBAAt(x, y)
			assert.InDelta(t, 100, c.R, 1, "R at %d,%d", x, y)
			assert.InDelta(t, 150, c.G, 1, "G at %d,%d", x, y)
			assert.InDelta(t, 200, c.B, 1, "B at %d,%d", x, y)
		}
	}
	// the source image is not touched
	assert.Equal(t, uint8(255), src.NRGBAAt(10, 10).R)
	// known pixels are kept
	assert.Equal(t, bg, out.NRGBAAt(0, 0))
}

func TestInpaint_Gradient(t *testing.T) {
	src := ramp(20, 20)
	mask := NewMask(20, 20)
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			src.SetNRGBA(x, y, color.NRGBA{A: 255})
			mask.Set(x, y, 1)
		}
	}

	out, err := Telea{}.Inpaint(src, mask, 3)
	require.NoError(t, err)
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			r := out.NRGBAAt(x, y).R
			assert.True(t, r >= 50 && r <= 140, "R=%d at %d,%d", r, x, y)
		}
	}
}

func TestInpaint_MaskMismatch(t *testing.T) {
	_, err := Telea{}.Inpaint(uniform(4, 4, color.NRGBA{}), NewMask(3, 3), 3)
	assert.Error(t, err)
}

func TestClone_IdenticalPatch(t *testing.T) {
	dst := ramp(30, 30)
	src := image.NewNRGBA(image.Rect(0, 0, 10, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 10; x++ {
			src.SetNRGBA(x, y, dst.NRGBAAt(x+5, y+6))
		}
	}
	mask := NewMask(10, 8)
	mask.FillEllipse(5, 4, 5, 4)

	before := append([]uint8(nil), dst.Pix...)
	require.NoError(t, NewPoisson().SeamlessClone(src, dst, mask, image.Pt(5, 6)))
	assert.Equal(t, before, dst.Pix)
}

func TestClone_MatchesBoundary(t *testing.T) {
	dst := uniform(30, 30, color.NRGBA{R: 50, G: 50, B: 50, A: 200})
	src := uniform(20, 20, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	mask := NewMask(20, 20)
	for i := range mask.Pix {
		mask.Pix[i] = 1
	}

	require.NoError(t, NewPoisson().SeamlessClone(src, dst, mask, image.Pt(5, 5)))

	// a flat patch carries no gradient, so the boundary value wins
	c := dst.NRGBAAt(15, 15)
	assert.InDelta(t, 50, c.R, 1)
	assert.Equal(t, uint8(200), c.A)
	// the patch border is never rewritten
	assert.Equal(t, uint8(50), dst.NRGBAAt(5, 5).R)
}

func TestClone_Errors(t *testing.T) {
	p := NewPoisson()
	dst := uniform(10, 10, color.NRGBA{})
	src := uniform(6, 6, color.NRGBA{})

	assert.Error(t, p.SeamlessClone(src, dst, NewMask(5, 5), image.Point{}))
	assert.Error(t, p.SeamlessClone(src, dst, NewMask(6, 6), image.Pt(7, 7)))
	assert.NoError(t, p.SeamlessClone(src, dst, NewMask(6, 6), image.Pt(2, 2)))
}

func TestBackend_Lookup(t *testing.T) {
	b, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBackend, b.Name)
	assert.IsType(t, Telea{}, b.Inpainter)
	assert.IsType(t, Bilinear{}, b.Remapper)
	assert.IsType(t, MaxFilter{}, b.Dilator)

	m := NewMask(9, 9)
	m.Set(4, 4, 1)
	d, err := b.Dilator.Dilate(m, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, m.Dilate(3, 2).Pix, d.Pix)

	src := ramp(12, 8)
	out, err := b.Remapper.Remap(src, NewIdentityField(12, 8))
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)

	_, err = Lookup("nope")
	assert.Error(t, err)

	Register(Backend{Name: "test", Inpainter: Telea{}, Cloner: NewPoisson()})
	assert.Contains(t, Backends(), "test")
}
