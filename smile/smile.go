// Package smile amplifies a smile by lifting the middle of the mouth while the
// corners stay anchored, then blends the warped region back in the gradient domain.
package smile

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

var (
	// ErrInsufficientDetail is reported when the mouth landmarks are missing.
	ErrInsufficientDetail = errors.New("insufficient landmark detail")
	// ErrGeometry is reported for an empty mouth region or coincident mouth corners.
	ErrGeometry = errors.New("degenerate mouth geometry")
)

// Default tunables.
const (
	DefaultIntensity = 6.0
	DefaultMargin    = 20
	DefaultHeight    = 40
)

// Warper lifts the middle of the mouth by up to Intensity pixels.
type Warper struct {
	// Intensity is the displacement at the middle of the mouth, in pixels.
	Intensity float64
	// Margin widens the region beyond the corner span.
	Margin int
	// Height is the fixed height of the region.
	Height int

	Cloner   imop.Cloner
	Remapper imop.Remapper
	Logger   *zap.Logger
}

// NewWarper returns a Warper with the default region size and the pure Go cloner.
func NewWarper(intensity float64) *Warper {
	return &Warper{
		Intensity: intensity,
		Margin:    DefaultMargin,
		Height:    DefaultHeight,
		Cloner:    imop.NewPoisson(),
		Remapper:  imop.Bilinear{},
		Logger:    zap.NewNop(),
	}
}

// Warp applies the smile warp in place. When the mouth cannot be warped the image
// is left as it was; Warp never fails.
func (s *Warper) Warp(img *image.NRGBA, face landmark.Face) *image.NRGBA {
	if err := s.WarpMouth(img, face); err != nil {
		s.logger().Debug("smile skipped", zap.String("reason", err.Error()))
	}
	return img
}

// geometry holds the mouth measures the warp is driven by.
type geometry struct {
	roi         image.Rectangle
	left, right int
}

func (s *Warper) geometry(bounds image.Rectangle, face landmark.Face) (geometry, error) {
	m, err := face.Mouth()
	if err != nil {
		return geometry{}, fmt.Errorf("%w: %w", ErrInsufficientDetail, err)
	}

	// The vertical center comes from the lips rather than the corners so the
	// region does not drift when the corners are already raised.
	cx := utils.FloorDiv(m.Left.X+m.Right.X, 2)
	cy := utils.FloorDiv(m.Upper.Y+m.Lower.Y, 2)
	w := m.Right.X - m.Left.X + s.Margin
	h := s.Height

	roi := image.Rect(
		cx-utils.FloorDiv(w, 2), cy-utils.FloorDiv(h, 2),
		cx+utils.FloorDiv(w, 2), cy+utils.FloorDiv(h, 2),
	).Intersect(bounds)
	if roi.Empty() {
		return geometry{}, fmt.Errorf("%w: empty mouth region", ErrGeometry)
	}
	if m.Right.X == m.Left.X {
		return geometry{}, fmt.Errorf("%w: mouth corners share x=%d", ErrGeometry, m.Left.X)
	}
	return geometry{roi: roi, left: m.Left.X, right: m.Right.X}, nil
}

// Region returns the region of the image the warp reads and writes.
func (s *Warper) Region(bounds image.Rectangle, face landmark.Face) (image.Rectangle, error) {
	g, err := s.geometry(bounds, face)
	if err != nil {
		return image.Rectangle{}, err
	}
	return g.roi, nil
}

// WarpMouth applies the smile warp in place. On error the image is unchanged.
func (s *Warper) WarpMouth(img *image.NRGBA, face landmark.Face) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrGeometry, r)
		}
	}()

	g, err := s.geometry(img.Bounds(), face)
	if err != nil {
		return err
	}
	roi := imaging.Crop(img, g.roi)
	w, h := g.roi.Dx(), g.roi.Dy()

	field := Field(w, h, g.left-g.roi.Min.X, g.right-g.roi.Min.X, finite(s.Intensity))
	warped, err := s.remapper().Remap(roi, field)
	if err != nil {
		return fmt.Errorf("remap failed: %w", err)
	}

	mask := imop.NewMask(w, h)
	mask.FillEllipse(float64(w/2), float64(h/2), float64(w/2), float64(h/2))

	// Clone into a copy so a failing backend leaves img untouched.
	out := imaging.Clone(roi)
	if err := s.cloner().SeamlessClone(warped, out, mask, image.Point{}); err != nil {
		return fmt.Errorf("seamless clone failed: %w", err)
	}
	for y := 0; y < h; y++ {
		copy(img.Pix[img.PixOffset(g.roi.Min.X, g.roi.Min.Y+y):], out.Pix[y*out.Stride:y*out.Stride+w*4])
	}
	return nil
}

// Field builds the displacement field of a w×h region whose mouth corners sit at
// columns left and right: every row of column x samples from y - sin(πt)·intensity,
// with t the relative position of x between the corners. Columns outside the
// corner span are not displaced.
func Field(w, h, left, right int, intensity float64) *imop.Field {
	f := imop.NewIdentityField(w, h)
	if right == left {
		return f
	}
	for x := 0; x < w; x++ {
		if x < left || x > right {
			continue
		}
		t := float64(x-left) / float64(right-left)
		lift := float32(math.Sin(math.Pi*t) * intensity)
		for y := 0; y < h; y++ {
			f.Y[y*w+x] -= lift
		}
	}
	return f
}

func (s *Warper) cloner() imop.Cloner {
	if s.Cloner == nil {
		return imop.NewPoisson()
	}
	return s.Cloner
}

func (s *Warper) remapper() imop.Remapper {
	if s.Remapper == nil {
		return imop.Bilinear{}
	}
	return s.Remapper
}

func (s *Warper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
