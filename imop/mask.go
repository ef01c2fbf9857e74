// Package imop implements the image operations shared by the warp engines:
// coverage masks, masked compositing, remapping, inpainting and seamless cloning.
package imop

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// Mask is a single channel coverage grid with values in [0, 1].
// Hard masks only hold 0 and 1; blurred or anti-aliased masks hold fractions.
type Mask struct {
	Pix    []float32
	Stride int
	Rect   image.Rectangle
}

// NewMask returns an empty mask of the given width and height, with origin (0, 0).
func NewMask(w, h int) *Mask {
	w, h = max(w, 0), max(h, 0)
	return &Mask{
		Pix:    make([]float32, w*h),
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

// Bounds returns the domain of the mask.
func (m *Mask) Bounds() image.Rectangle { return m.Rect }

// At returns the coverage at (x, y), 0 outside the mask.
func (m *Mask) At(x, y int) float32 {
	if !(image.Point{x, y}.In(m.Rect)) {
		return 0
	}
	return m.Pix[(y-m.Rect.Min.Y)*m.Stride+(x-m.Rect.Min.X)]
}

// Set stores the coverage at (x, y), clamped to [0, 1].
func (m *Mask) Set(x, y int, v float32) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	m.Pix[(y-m.Rect.Min.Y)*m.Stride+(x-m.Rect.Min.X)] = min(max(v, 0), 1)
}

// Clone returns a deep copy of m.
func (m *Mask) Clone() *Mask {
	c := *m
	c.Pix = append([]float32(nil), m.Pix...)
	return &c
}

// Count returns the number of pixels with non zero coverage.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v > 0 {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is covered.
func (m *Mask) Empty() bool { return m.Count() == 0 }

// FillPolygon marks the pixels whose centers fall inside the closed polygon,
// edges included.
func (m *Mask) FillPolygon(pts []image.Point) {
	if len(pts) < 3 || m.Rect.Empty() {
		return
	}
	w, h := m.Rect.Dx(), m.Rect.Dy()
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src

	// Vertices sit on pixel centers so an edge through a row of centers
	// covers exactly half of each of those pixels.
	origin := m.Rect.Min
	z.MoveTo(float32(pts[0].X-origin.X)+0.5, float32(pts[0].Y-origin.Y)+0.5)
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-origin.X)+0.5, float32(p.Y-origin.Y)+0.5)
	}
	z.ClosePath()

	cov := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if cov.AlphaAt(x, y).A >= 127 {
				m.Pix[y*m.Stride+x] = 1
			}
		}
	}
	// The outline itself belongs to the polygon.
	for i := range pts {
		m.drawLine(pts[i], pts[(i+1)%len(pts)])
	}
}

// drawLine marks the pixels of a Bresenham segment.
func (m *Mask) drawLine(a, b image.Point) {
	dx, dy := utils.Abs(b.X-a.X), -utils.Abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	for {
		m.Set(a.X, a.Y, 1)
		if a == b {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			a.X += sx
		}
		if e2 <= dx {
			err += dx
			a.Y += sy
		}
	}
}

// FillCircle covers the disc of radius r centered on (cx, cy). With antialias
// set, pixels straddling the rim receive fractional coverage.
func (m *Mask) FillCircle(cx, cy, r float64, antialias bool) {
	if r < 0 || math.IsNaN(r) {
		return
	}
	b := m.Rect
	x0 := max(b.Min.X, int(math.Floor(cx-r-1)))
	x1 := min(b.Max.X, int(math.Ceil(cx+r+2)))
	y0 := max(b.Min.Y, int(math.Floor(cy-r-1)))
	y1 := min(b.Max.Y, int(math.Ceil(cy+r+2)))

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			var v float64
			if antialias {
				v = math.Min(math.Max(r+0.5-d, 0), 1)
			} else if d <= r {
				v = 1
			}
			if v > 0 {
				i := (y-b.Min.Y)*m.Stride + (x - b.Min.X)
				m.Pix[i] = max(m.Pix[i], float32(v))
			}
		}
	}
}

// FillEllipse covers the axis aligned ellipse with semi axes (ax, ay) centered on (cx, cy).
func (m *Mask) FillEllipse(cx, cy, ax, ay float64) {
	b := m.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			var inside bool
			switch {
			case ax <= 0 && ay <= 0:
				inside = dx == 0 && dy == 0
			case ax <= 0:
				inside = dx == 0 && math.Abs(dy) <= ay
			case ay <= 0:
				inside = dy == 0 && math.Abs(dx) <= ax
			default:
				inside = (dx*dx)/(ax*ax)+(dy*dy)/(ay*ay) <= 1
			}
			if inside {
				m.Pix[(y-b.Min.Y)*m.Stride+(x-b.Min.X)] = 1
			}
		}
	}
}

// Dilate grows the mask with a square ksize×ksize structuring element,
// iterations times. Pixels outside the mask do not contribute.
func (m *Mask) Dilate(ksize, iterations int) *Mask {
	out := m.Clone()
	r := ksize / 2
	if r <= 0 {
		return out
	}
	w, h := m.Rect.Dx(), m.Rect.Dy()
	tmp := make([]float32, len(out.Pix))
	for it := 0; it < iterations; it++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var v float32
				for k := max(0, x-r); k <= min(w-1, x+r); k++ {
					v = max(v, out.Pix[y*out.Stride+k])
				}
				tmp[y*out.Stride+x] = v
			}
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var v float32
				for k := max(0, y-r); k <= min(h-1, y+r); k++ {
					v = max(v, tmp[k*out.Stride+x])
				}
				out.Pix[y*out.Stride+x] = v
			}
		}
	}
	return out
}

// Intersect returns the pixelwise minimum of m and o.
func (m *Mask) Intersect(o *Mask) *Mask {
	out := NewMask(m.Rect.Dx(), m.Rect.Dy())
	out.Rect = m.Rect
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			out.Set(x, y, min(m.At(x, y), o.At(x, y)))
		}
	}
	return out
}

// Mul returns the pixelwise product of m and o.
func (m *Mask) Mul(o *Mask) *Mask {
	out := NewMask(m.Rect.Dx(), m.Rect.Dy())
	out.Rect = m.Rect
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			out.Set(x, y, m.At(x, y)*o.At(x, y))
		}
	}
	return out
}

// Gaussian3x3 smooths the mask with a normalized 3×3 Gaussian kernel of the given sigma.
func (m *Mask) Gaussian3x3(sigma float64) *Mask {
	if sigma <= 0 || m.Rect.Empty() {
		return m.Clone()
	}
	var kernel [9]float64
	for i := range kernel {
		dx, dy := float64(i%3-1), float64(i/3-1)
		kernel[i] = math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
	}
	blurred := imaging.Convolve3x3(m.Gray(), kernel, &imaging.ConvolveOptions{Normalize: true})

	out := NewMask(m.Rect.Dx(), m.Rect.Dy())
	out.Rect = m.Rect
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			out.Pix[y*out.Stride+x] = float32(blurred.Pix[y*blurred.Stride+x*4]) / 255
		}
	}
	return out
}

// Gray renders the mask as an 8-bit grayscale image with origin (0, 0).
func (m *Mask) Gray() *image.Gray {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := m.Pix[y*m.Stride+x]
			gray.SetGray(x, y, color.Gray{Y: uint8(math.Round(float64(v) * 255))})
		}
	}
	return gray
}

