package imop

import (
	"image"
	"image/color"
	"math"
)

// maxCoord bounds sample coordinates so huge displacements cannot overflow int.
const maxCoord = 1 << 24

// Field is a dense sampling map: the pixel (x, y) of the output is read from
// the source at (X[i], Y[i]) with i = y*W + x.
type Field struct {
	W, H int
	X, Y []float32
}

// NewIdentityField returns a field that maps every pixel onto itself.
func NewIdentityField(w, h int) *Field {
	f := &Field{W: w, H: h, X: make([]float32, w*h), Y: make([]float32, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.X[y*w+x] = float32(x)
			f.Y[y*w+x] = float32(y)
		}
	}
	return f
}

// Remap resamples src through the field using bilinear interpolation.
// Samples falling outside src are mirrored back inside, edge pixel repeated
// (the fedcba|abcdef|fedcba scheme), so the output never gains blank borders.
func Remap(src *image.NRGBA, f *Field) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, f.W, f.H))
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return dst
	}

	at := func(x, y int) color.NRGBA {
		return src.NRGBAAt(b.Min.X+reflect(x, w), b.Min.Y+reflect(y, h))
	}

	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			sx, sy := float64(f.X[y*f.W+x]), float64(f.Y[y*f.W+x])
			if math.IsNaN(sx) || math.IsNaN(sy) || math.IsInf(sx, 0) || math.IsInf(sy, 0) {
				sx, sy = float64(x), float64(y)
			}
			sx = math.Max(-maxCoord, math.Min(sx, maxCoord))
			sy = math.Max(-maxCoord, math.Min(sy, maxCoord))
			x0, y0 := math.Floor(sx), math.Floor(sy)
			fx, fy := sx-x0, sy-y0
			ix, iy := int(x0), int(y0)

			c00, c10 := at(ix, iy), at(ix+1, iy)
			c01, c11 := at(ix, iy+1), at(ix+1, iy+1)

			lerp := func(a, b, c, d uint8) uint8 {
				top := float64(a)*(1-fx) + float64(b)*fx
				bot := float64(c)*(1-fx) + float64(d)*fx
				return toByte((top*(1-fy) + bot*fy) / 255)
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: lerp(c00.R, c10.R, c01.R, c11.R),
				G: lerp(c00.G, c10.G, c01.G, c11.G),
				B: lerp(c00.B, c10.B, c01.B, c11.B),
				A: lerp(c00.A, c10.A, c01.A, c11.A),
			})
		}
	}
	return dst
}

// reflect folds the index i back into [0, n).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
