package smile

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mouthImage renders a 200×200 face-like texture: a vertical skin gradient with a
// dark lip line between the mouth corners.
func mouthImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			c := color.NRGBA{R: uint8(150 + y/4), G: uint8(110 + x/5), B: 90, A: 255}
			if x >= 80 && x <= 120 && y >= 117 && y <= 123 {
				c = color.NRGBA{R: 120, G: 40, B: 50, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func mouthFace(left, right, upper, lower landmark.Point) landmark.Face {
	f := landmark.Blank(landmark.MediaPipe)
	f.Set(landmark.MPMouthLeft, left)
	f.Set(landmark.MPMouthRight, right)
	f.Set(landmark.MPUpperLip, upper)
	f.Set(landmark.MPLowerLip, lower)
	return f
}

func scenarioFace() landmark.Face {
	return mouthFace(
		landmark.Point{X: 80, Y: 120}, landmark.Point{X: 120, Y: 120},
		landmark.Point{X: 100, Y: 110}, landmark.Point{X: 100, Y: 130},
	)
}

// changedOutside returns the first pixel outside r that differs between a and b.
func changedOutside(a, b *image.NRGBA, r image.Rectangle) (image.Point, bool) {
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := image.Pt(x, y)
			if p.In(r) {
				continue
			}
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				return p, true
			}
		}
	}
	return image.Point{}, false
}

func TestSmile_Region(t *testing.T) {
	roi, err := NewWarper(6).Region(image.Rect(0, 0, 200, 200), scenarioFace())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(70, 100, 130, 140), roi)

	// clamped at the image border
	face := mouthFace(
		landmark.Point{X: 2, Y: 5}, landmark.Point{X: 30, Y: 5},
		landmark.Point{X: 16, Y: 0}, landmark.Point{X: 16, Y: 10},
	)
	roi, err = NewWarper(6).Region(image.Rect(0, 0, 200, 200), face)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 25), roi)
}

func TestSmile_ScenarioStaysInRegion(t *testing.T) {
	img := mouthImage()
	orig := imaging.Clone(img)

	out := NewWarper(6).Warp(img, scenarioFace())
	require.Equal(t, orig.Bounds(), out.Bounds())

	p, changed := changedOutside(orig, out, image.Rect(60, 80, 141, 161))
	assert.False(t, changed, "pixel %v changed outside the mouth region", p)
	p, changed = changedOutside(orig, out, image.Rect(70, 100, 130, 140))
	assert.False(t, changed, "pixel %v changed outside the mouth region", p)

	assert.NotEqual(t, orig.Pix, out.Pix, "the lip line must be lifted")
	// rows sample from above, so the middle of the lip line sinks below the
	// anchored corners and the skin under it darkens
	assert.Less(t, out.NRGBAAt(100, 125).G, orig.NRGBAAt(100, 125).G)
	assert.Equal(t, orig.NRGBAAt(71, 120).G, out.NRGBAAt(71, 120).G)
}

func TestSmile_ZeroIntensityIsIdentity(t *testing.T) {
	for _, v := range []float64{0, math.NaN(), math.Inf(1)} {
		img := mouthImage()
		orig := imaging.Clone(img)
		require.NoError(t, NewWarper(v).WarpMouth(img, scenarioFace()))
		assert.Equal(t, orig.Pix, img.Pix, "intensity %v", v)
	}
}

func TestSmile_HalfStepsDifferFromFullStep(t *testing.T) {
	face := scenarioFace()
	roi := image.Rect(70, 100, 130, 140)

	twice := mouthImage()
	NewWarper(3).Warp(twice, face)
	NewWarper(3).Warp(twice, face)

	once := mouthImage()
	NewWarper(6).Warp(once, face)

	assert.NotEqual(t, twice.Pix, once.Pix)

	orig := mouthImage()
	_, changed := changedOutside(orig, twice, roi)
	assert.False(t, changed)
	_, changed = changedOutside(orig, once, roi)
	assert.False(t, changed)
}

func TestSmile_Field(t *testing.T) {
	f := Field(60, 40, 10, 50, 6)

	assert.Equal(t, float32(5), f.Y[5*60+5], "outside the corners")
	assert.Equal(t, float32(5), f.Y[5*60+10], "left corner is anchored")
	assert.InDelta(t, 5-6, f.Y[5*60+30], 1e-6, "full lift in the middle")
	assert.InDelta(t, 5, f.Y[5*60+50], 1e-5, "right corner is anchored")
	assert.Equal(t, float32(30), f.X[5*60+30], "columns are never displaced")

	// coincident corners give the identity
	id := Field(4, 4, 2, 2, 6)
	assert.Equal(t, imop.NewIdentityField(4, 4).Y, id.Y)
}

func TestSmile_Degenerate(t *testing.T) {
	img := mouthImage()
	orig := imaging.Clone(img)
	w := NewWarper(6)

	sameX := mouthFace(
		landmark.Point{X: 100, Y: 120}, landmark.Point{X: 100, Y: 120},
		landmark.Point{X: 100, Y: 120}, landmark.Point{X: 100, Y: 120},
	)
	assert.ErrorIs(t, w.WarpMouth(img, sameX), ErrGeometry)

	outside := mouthFace(
		landmark.Point{X: -400, Y: -300}, landmark.Point{X: -360, Y: -300},
		landmark.Point{X: -380, Y: -310}, landmark.Point{X: -380, Y: -290},
	)
	assert.ErrorIs(t, w.WarpMouth(img, outside), ErrGeometry)

	short := landmark.NewFace(landmark.MediaPipe, make([]landmark.Point, 100))
	err := w.WarpMouth(img, short)
	assert.ErrorIs(t, err, ErrInsufficientDetail)
	assert.ErrorIs(t, err, landmark.ErrMissingLandmarks)

	assert.Equal(t, orig.Pix, img.Pix)
}

type failingCloner struct{}

func (failingCloner) SeamlessClone(src, dst *image.NRGBA, mask *imop.Mask, at image.Point) error {
	dst.Pix[0] = ^dst.Pix[0]
	return errors.New("boom")
}

func TestSmile_BackendFailureLeavesImage(t *testing.T) {
	img := mouthImage()
	orig := imaging.Clone(img)

	w := NewWarper(6)
	w.Cloner = failingCloner{}
	assert.Error(t, w.WarpMouth(img, scenarioFace()))
	assert.Equal(t, orig.Pix, img.Pix)
}

type failingRemapper struct{}

func (failingRemapper) Remap(src *image.NRGBA, f *imop.Field) (*image.NRGBA, error) {
	return nil, errors.New("boom")
}

func TestSmile_RemapFailureLeavesImage(t *testing.T) {
	img := mouthImage()
	orig := imaging.Clone(img)

	w := NewWarper(6)
	w.Remapper = failingRemapper{}
	assert.ErrorContains(t, w.WarpMouth(img, scenarioFace()), "remap failed")
	assert.Equal(t, orig.Pix, img.Pix)
}

func TestSmile_NeverPanics(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		img := imaging.New(80, 60, color.NRGBA{R: 90, G: 60, B: 40, A: 255})
		face := landmark.Blank(landmark.Pigo)
		for j := range face.Points {
			face.Points[j] = landmark.Point{X: rnd.Intn(300) - 100, Y: rnd.Intn(300) - 100}
		}
		intensity := rnd.Float64()*200 - 100

		assert.NotPanics(t, func() {
			out := NewWarper(intensity).Warp(img, face)
			assert.Equal(t, image.Rect(0, 0, 80, 60), out.Bounds())
		})
	}
}
