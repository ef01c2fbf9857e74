package imop

import (
	"fmt"
	"image"
	"math"
)

// Poisson seamlessly clones a patch into a destination image by solving the
// Poisson equation over the masked area: the result keeps the gradients of the
// patch while matching the destination along the mask boundary (normal cloning,
// Pérez et al. 2003). The linear system is solved with successive over-relaxation.
type Poisson struct {
	// Omega is the over-relaxation factor, in (0, 2).
	Omega float64
	// Tolerance stops the solver once no pixel moves by more than this amount.
	Tolerance float64
	// MaxIterations bounds the solver for degenerate inputs.
	MaxIterations int
}

// NewPoisson returns a solver with defaults suited to patches of a few thousand pixels.
func NewPoisson() *Poisson {
	return &Poisson{
		Omega:         1.9,
		Tolerance:     0.01,
		MaxIterations: 5000,
	}
}

// SeamlessClone blends src into dst with its top-left corner at the point at.
// The mask has the size of src; only covered pixels that are not on the patch
// border are rewritten, so the border always supplies boundary values.
// The alpha channel of dst is preserved.
func (p *Poisson) SeamlessClone(src, dst *image.NRGBA, mask *Mask, at image.Point) error {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if mask.Rect.Dx() != w || mask.Rect.Dy() != h {
		return fmt.Errorf("clone mask is %v, patch is %dx%d", mask.Rect.Size(), w, h)
	}
	area := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	if !area.In(dst.Bounds()) {
		return fmt.Errorf("clone area %v exceeds destination %v", area, dst.Bounds())
	}

	// Unknowns: covered interior pixels of the patch.
	index := make([]int, w*h)
	var pixels []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			index[y*w+x] = -1
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				continue
			}
			if mask.Pix[y*mask.Stride+x] >= 0.5 {
				index[y*w+x] = len(pixels)
				pixels = append(pixels, image.Pt(x, y))
			}
		}
	}
	if len(pixels) == 0 {
		return nil
	}

	omega, tol, iters := p.Omega, p.Tolerance, p.MaxIterations
	if omega <= 0 || omega >= 2 {
		omega = 1.9
	}
	if tol <= 0 {
		tol = 0.01
	}
	if iters <= 0 {
		iters = 5000
	}

	srcAt := func(x, y, c int) float64 {
		return float64(src.Pix[src.PixOffset(sb.Min.X+x, sb.Min.Y+y)+c])
	}
	dstAt := func(x, y, c int) float64 {
		return float64(dst.Pix[dst.PixOffset(at.X+x, at.Y+y)+c])
	}

	for c := 0; c < 3; c++ {
		// Right hand side: the guidance field divergence plus the fixed boundary values.
		f := make([]float64, len(pixels))
		rhs := make([]float64, len(pixels))
		for i, px := range pixels {
			f[i] = srcAt(px.X, px.Y, c)
			sp := f[i]
			for _, d := range neighbours {
				qx, qy := px.X+d.X, px.Y+d.Y
				rhs[i] += sp - srcAt(qx, qy, c)
				if index[qy*w+qx] < 0 {
					rhs[i] += dstAt(qx, qy, c)
				}
			}
		}

		for it := 0; it < iters; it++ {
			var delta float64
			for i, px := range pixels {
				sum := rhs[i]
				for _, d := range neighbours {
					if j := index[(px.Y+d.Y)*w+px.X+d.X]; j >= 0 {
						sum += f[j]
					}
				}
				next := f[i] + omega*(sum/4-f[i])
				delta = math.Max(delta, math.Abs(next-f[i]))
				f[i] = next
			}
			if delta < tol {
				break
			}
		}

		for i, px := range pixels {
			o := dst.PixOffset(at.X+px.X, at.Y+px.Y)
			dst.Pix[o+c] = uint8(math.Max(0, math.Min(255, math.Round(f[i]))))
		}
	}
	return nil
}
