//go:build gocv

package opencv

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

func init() {
	imop.Register(imop.Backend{
		Name:      Name,
		Inpainter: Inpainter{},
		Cloner:    Cloner{},
		Remapper:  Remapper{},
		Dilator:   Dilator{},
	})
}

// Inpainter wraps cv::inpaint with the Telea method.
type Inpainter struct{}

// Inpaint implements imop.Inpainter.
func (Inpainter) Inpaint(src *image.NRGBA, mask *imop.Mask, radius int) (*image.NRGBA, error) {
	in, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("opencv: could not convert image: %w", err)
	}
	defer in.Close()

	m, err := maskToMat(mask)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.Inpaint(in, m, &out, float32(radius), gocv.Telea)
	if out.Empty() {
		return nil, errors.New("opencv: inpaint produced an empty image")
	}

	res, err := matToNRGBA(out)
	if err != nil {
		return nil, err
	}
	copyAlpha(res, src)
	return res, nil
}

// Cloner wraps cv::seamlessClone in normal cloning mode.
type Cloner struct{}

// SeamlessClone implements imop.Cloner.
func (Cloner) SeamlessClone(src, dst *image.NRGBA, mask *imop.Mask, at image.Point) error {
	area := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	if !area.In(dst.Bounds()) {
		return fmt.Errorf("opencv: clone area %v exceeds destination %v", area, dst.Bounds())
	}

	s, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return fmt.Errorf("opencv: could not convert patch: %w", err)
	}
	defer s.Close()
	d, err := gocv.ImageToMatRGB(dst)
	if err != nil {
		return fmt.Errorf("opencv: could not convert destination: %w", err)
	}
	defer d.Close()
	m, err := maskToMat(mask)
	if err != nil {
		return err
	}
	defer m.Close()

	blend := gocv.NewMat()
	defer blend.Close()
	center := area.Min.Add(area.Size().Div(2)).Sub(dst.Bounds().Min)
	gocv.SeamlessClone(s, d, m, center, &blend, gocv.NormalClone)
	if blend.Empty() {
		return errors.New("opencv: seamless clone produced an empty image")
	}

	res, err := matToNRGBA(blend)
	if err != nil {
		return err
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			c := res.NRGBAAt(x-dst.Bounds().Min.X, y-dst.Bounds().Min.Y)
			c.A = dst.NRGBAAt(x, y).A
			dst.SetNRGBA(x, y, c)
		}
	}
	return nil
}

// Remapper wraps cv::remap with bilinear interpolation and a reflected border.
type Remapper struct{}

// Remap implements imop.Remapper.
func (Remapper) Remap(src *image.NRGBA, f *imop.Field) (*image.NRGBA, error) {
	in, err := gocv.ImageToMatRGBA(src)
	if err != nil {
		return nil, fmt.Errorf("opencv: could not convert image: %w", err)
	}
	defer in.Close()

	mapX := gocv.NewMatWithSize(f.H, f.W, gocv.MatTypeCV32F)
	defer mapX.Close()
	mapY := gocv.NewMatWithSize(f.H, f.W, gocv.MatTypeCV32F)
	defer mapY.Close()
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			sx, sy := f.X[y*f.W+x], f.Y[y*f.W+x]
			if !finite(sx) || !finite(sy) {
				sx, sy = float32(x), float32(y)
			}
			mapX.SetFloatAt(y, x, sx)
			mapY.SetFloatAt(y, x, sy)
		}
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.Remap(in, &out, &mapX, &mapY, gocv.InterpolationLinear, gocv.BorderReflect, color.RGBA{})
	if out.Empty() {
		return nil, errors.New("opencv: remap produced an empty image")
	}
	return matToNRGBA(out)
}

// Dilator wraps cv::dilate with a rectangular structuring element.
type Dilator struct{}

// Dilate implements imop.Dilator.
func (Dilator) Dilate(m *imop.Mask, ksize, iterations int) (*imop.Mask, error) {
	out := m.Clone()
	if ksize/2 <= 0 || iterations <= 0 || m.Rect.Empty() {
		return out, nil
	}
	w, h := m.Rect.Dx(), m.Rect.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer mat.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mat.SetFloatAt(y, x, m.Pix[y*m.Stride+x])
		}
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(ksize, ksize))
	defer kernel.Close()
	for i := 0; i < iterations; i++ {
		gocv.Dilate(mat, &mat, kernel)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = mat.GetFloatAt(y, x)
		}
	}
	return out, nil
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func maskToMat(mask *imop.Mask) (gocv.Mat, error) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = uint8(math.Round(float64(mask.Pix[y*mask.Stride+x]) * 255))
		}
	}
	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("opencv: could not build mask: %w", err)
	}
	return m, nil
}

func matToNRGBA(m gocv.Mat) (*image.NRGBA, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv: could not convert result: %w", err)
	}
	return imaging.Clone(img), nil
}

func copyAlpha(dst, src *image.NRGBA) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[dst.PixOffset(x, y)+3] = src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}
}
