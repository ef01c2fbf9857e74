// Package gaze redirects the gaze of a face toward the camera by relocating
// each iris to the geometric center of its eye opening.
//
// The iris is lifted out of the eye, the hole is inpainted with sclera texture,
// and the iris chip is composited back at its new position through the eye
// contour, so the eyelids and the skin around the eye are never touched.
package gaze

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

var (
	// ErrEyeClosed is reported when the eye aspect ratio is under the closed threshold.
	ErrEyeClosed = errors.New("eye is closed")
	// ErrInsufficientDetail is reported when the landmark set lacks the contour or iris points.
	ErrInsufficientDetail = errors.New("insufficient landmark detail")
	// ErrGeometry is reported when a region or the iris placement is degenerate.
	ErrGeometry = errors.New("degenerate eye geometry")
)

// Default tunables.
const (
	DefaultIntensity       = 1.0
	DefaultClosedThreshold = 0.2
	DefaultPaddingScale    = 2.5
	DefaultGamma           = 0.6
	DefaultInpaintRadius   = 3
)

// sharpen is a mild unsharp kernel applied to the relocated iris.
var sharpen = [9]float64{
	-1, -1, -1,
	-1, 9, -1,
	-1, -1, -1,
}

// Corrector relocates the irises of a face.
type Corrector struct {
	// Intensity scales the displacement toward the eye center:
	// 0 keeps the iris in place, 1 centers it, values above 1 overshoot.
	Intensity float64
	// ClosedThreshold is the eye aspect ratio under which an eye is left untouched.
	ClosedThreshold float64
	// RadiusScale enlarges the measured iris radius to cover the limbus.
	RadiusScale float64
	// PaddingScale pads the eye region by this multiple of the iris radius.
	PaddingScale float64
	// Gamma is applied to the iris chip; values under 1 darken the pupil.
	Gamma float64
	// InpaintRadius is the neighbourhood used to synthesize the uncovered sclera.
	InpaintRadius int

	Inpainter imop.Inpainter
	Dilator   imop.Dilator
	Logger    *zap.Logger
}

// NewCorrector returns a Corrector with the default tunables and the pure Go inpainter.
func NewCorrector(intensity float64) *Corrector {
	return &Corrector{
		Intensity:       intensity,
		ClosedThreshold: DefaultClosedThreshold,
		RadiusScale:     landmark.IrisCoverage,
		PaddingScale:    DefaultPaddingScale,
		Gamma:           DefaultGamma,
		InpaintRadius:   DefaultInpaintRadius,
		Inpainter:       imop.Telea{},
		Dilator:         imop.MaxFilter{},
		Logger:          zap.NewNop(),
	}
}

// Correct relocates the left iris, then the right one, in place. An eye that cannot
// be corrected is left as it was; Correct never fails.
func (c *Corrector) Correct(img *image.NRGBA, face landmark.Face) *image.NRGBA {
	for _, side := range []landmark.Side{landmark.Left, landmark.Right} {
		if err := c.CorrectEye(img, face, side); err != nil {
			c.logger().Debug("eye skipped",
				zap.Stringer("eye", side),
				zap.String("reason", err.Error()),
			)
		}
	}
	return img
}

// Region returns the region of the image the correction of one eye reads and writes.
func (c *Corrector) Region(bounds image.Rectangle, face landmark.Face, side landmark.Side) (image.Rectangle, error) {
	eye, err := face.Eye(side)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %w", ErrInsufficientDetail, err)
	}
	if eye.Iris == nil {
		return image.Rectangle{}, fmt.Errorf("%w: no iris landmarks", ErrInsufficientDetail)
	}
	r := landmark.IrisRadius(*eye.Iris, c.RadiusScale)
	roi := landmark.RegionFromPoints(bounds, eye.Contour, int(float64(r)*c.PaddingScale))
	if roi.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: empty eye region", ErrGeometry)
	}
	return roi, nil
}

// CorrectEye relocates the iris of one eye in place. On error the image is unchanged.
func (c *Corrector) CorrectEye(img *image.NRGBA, face landmark.Face, side landmark.Side) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrGeometry, r)
		}
	}()

	eye, err := face.Eye(side)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientDetail, err)
	}
	if ear := landmark.EyeAspectRatio(eye); ear < c.ClosedThreshold {
		return fmt.Errorf("%w: aspect ratio %.3f", ErrEyeClosed, ear)
	}
	if eye.Iris == nil {
		return fmt.Errorf("%w: no iris landmarks", ErrInsufficientDetail)
	}

	radius := landmark.IrisRadius(*eye.Iris, c.RadiusScale)
	if radius < 1 {
		return fmt.Errorf("%w: iris radius %d", ErrGeometry, radius)
	}
	roi := landmark.RegionFromPoints(img.Bounds(), eye.Contour, int(float64(radius)*c.PaddingScale))
	if roi.Empty() {
		return fmt.Errorf("%w: empty eye region", ErrGeometry)
	}

	patch, err := c.relocate(imaging.Crop(img, roi), roi.Min, eye, side, radius)
	if err != nil {
		return err
	}
	draw.Draw(img, roi, patch, image.Point{}, draw.Src)
	return nil
}

// relocate runs the iris relocation on the cropped eye region whose top-left
// corner sits at origin in the full image. It returns the rewritten region.
func (c *Corrector) relocate(roi *image.NRGBA, origin image.Point, eye landmark.Eye, side landmark.Side, radius int) (*image.NRGBA, error) {
	w, h := roi.Bounds().Dx(), roi.Bounds().Dy()

	contour := make([]image.Point, len(eye.Contour))
	for i, p := range eye.Contour {
		contour[i] = image.Pt(p.X, p.Y).Sub(origin)
	}
	sclera := imop.NewMask(w, h)
	sclera.FillPolygon(contour)

	ix, iy := eye.Iris.Center.X-origin.X, eye.Iris.Center.Y-origin.Y
	iris := imop.NewMask(w, h)
	iris.FillCircle(float64(ix), float64(iy), float64(radius), false)

	// The dilated iris may cover the eyelids; the sclera keeps the fill inside the eye.
	grown, err := c.dilator().Dilate(iris, 5, 3)
	if err != nil {
		return nil, fmt.Errorf("dilate failed: %w", err)
	}
	hole := grown.Intersect(sclera)
	clean, err := c.inpainter().Inpaint(roi, hole, c.InpaintRadius)
	if err != nil {
		return nil, fmt.Errorf("inpaint failed: %w", err)
	}

	tx, ty := eye.Center()
	intensity := finite(c.Intensity)
	dx := (tx - float64(eye.Iris.Center.X)) * intensity
	dy := (ty - float64(eye.Iris.Center.Y)) * intensity
	nx, ny := truncate(float64(ix)+dx), truncate(float64(iy)+dy)

	// The chip is read from the region before inpainting and must lie inside it.
	src := image.Rect(ix-radius, iy-radius, ix+radius, iy+radius)
	if !src.In(roi.Bounds()) {
		return nil, fmt.Errorf("%w: iris chip %v outside eye region", ErrGeometry, src)
	}
	chip := imaging.Crop(roi, src)

	// The destination may be partially clipped by the region.
	dst := image.Rect(nx-radius, ny-radius, nx+radius, ny+radius)
	placed := dst.Intersect(roi.Bounds())
	if placed.Empty() {
		return nil, fmt.Errorf("%w: iris target %v outside eye region", ErrGeometry, dst)
	}
	visible := placed.Sub(dst.Min)

	enhanced := c.enhance(imaging.Crop(chip, visible), radius, side, visible.Min)

	// Soft iris outline restricted to the visible part of the chip.
	disc := imop.NewMask(2*radius, 2*radius)
	disc.FillCircle(float64(radius), float64(radius), float64(radius-1), true)
	disc = disc.Gaussian3x3(1)

	mask := imop.NewMask(placed.Dx(), placed.Dy())
	for y := 0; y < placed.Dy(); y++ {
		for x := 0; x < placed.Dx(); x++ {
			m := sclera.At(placed.Min.X+x, placed.Min.Y+y) * disc.At(visible.Min.X+x, visible.Min.Y+y)
			mask.Set(x, y, m)
		}
	}
	imop.Blend(clean, enhanced, mask, placed.Min)

	return clean, nil
}

// enhance darkens and sharpens the chip, then adds a catchlight in its upper
// quadrant facing the nose. offset is the position of the visible part inside the full chip.
func (c *Corrector) enhance(chip *image.NRGBA, radius int, side landmark.Side, offset image.Point) *image.NRGBA {
	out := imaging.AdjustGamma(chip, c.Gamma)
	out = imaging.Convolve3x3(out, sharpen, nil)

	shift := int(float64(radius) * 0.25)
	cx, cy := radius+shift-offset.X, radius-shift-offset.Y
	if side == landmark.Right {
		cx = radius - shift - offset.X
	}
	b := out.Bounds()
	if cx < 0 || cy < 0 || cx >= b.Dx() || cy >= b.Dy() {
		return out
	}

	highlight := imop.NewMask(b.Dx(), b.Dy())
	highlight.FillCircle(float64(cx), float64(cy), float64(max(1, int(float64(radius)*0.12))), true)
	white := imaging.New(b.Dx(), b.Dy(), color.White)
	imop.Blend(out, white, highlight, image.Point{})
	return out
}

func (c *Corrector) inpainter() imop.Inpainter {
	if c.Inpainter == nil {
		return imop.Telea{}
	}
	return c.Inpainter
}

func (c *Corrector) dilator() imop.Dilator {
	if c.Dilator == nil {
		return imop.MaxFilter{}
	}
	return c.Dilator
}

func (c *Corrector) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// truncate converts toward zero, saturating far outside any image.
func truncate(v float64) int {
	const limit = 1 << 30
	return int(math.Max(-limit, math.Min(v, limit)))
}
