package imop

import (
	"image"
	"image/color"
	"math"

	"github.com/Ak-arsha/Picture-Perfect/utils"
)

// Supported composition operations.
const (
	Copy    = "copy"
	SrcOver = "src_over"
	DstOver = "dst_over"
)

// Composite draws a source image over a destination through a coverage mask,
// using the selected Porter-Duff operation. SrcOver is the default one.
type Composite struct {
	current string
	ops     []string
}

// InitOp initializes a new composition operation.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops:     []string{Copy, SrcOver, DstOver},
	}
}

// Set changes the current composition operation. Unsupported operations are ignored.
func (op *Composite) Set(cop string) {
	if utils.Contains(op.ops, cop) {
		op.current = cop
	}
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites src over the region of dst starting at the point at. The mask has the
// size of src and scales the effect per pixel: 0 keeps dst, 1 applies the full operation.
// Pixels falling outside dst are discarded.
func (op *Composite) Draw(dst, src *image.NRGBA, mask *Mask, at image.Point) {
	sb := src.Bounds()
	area := image.Rectangle{Min: at, Max: at.Add(sb.Size())}.Intersect(dst.Bounds())

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			sx, sy := x-at.X, y-at.Y
			m := float64(1)
			if mask != nil {
				m = float64(mask.At(mask.Rect.Min.X+sx, mask.Rect.Min.Y+sy))
			}
			if m <= 0 {
				continue
			}

			s := src.NRGBAAt(sb.Min.X+sx, sb.Min.Y+sy)
			d := dst.NRGBAAt(x, y)

			rs, gs, bs, as := float64(s.R)/255, float64(s.G)/255, float64(s.B)/255, float64(s.A)/255
			rb, gb, bb, ab := float64(d.R)/255, float64(d.G)/255, float64(d.B)/255, float64(d.A)/255

			var rn, gn, bn, an float64
			switch op.current {
			case Copy:
				rn, gn, bn, an = rs, gs, bs, as
			case SrcOver:
				an = as + ab*(1-as)
				if an > 0 {
					rn = (as*rs + ab*rb*(1-as)) / an
					gn = (as*gs + ab*gb*(1-as)) / an
					bn = (as*bs + ab*bb*(1-as)) / an
				}
			case DstOver:
				an = ab + as*(1-ab)
				if an > 0 {
					rn = (ab*rb + as*rs*(1-ab)) / an
					gn = (ab*gb + as*gs*(1-ab)) / an
					bn = (ab*bb + as*bs*(1-ab)) / an
				}
			}

			// coverage weighted blend between the composed and the original pixel
			dst.SetNRGBA(x, y, color.NRGBA{
				R: toByte(m*rn + (1-m)*rb),
				G: toByte(m*gn + (1-m)*gb),
				B: toByte(m*bn + (1-m)*bb),
				A: toByte(m*an + (1-m)*ab),
			})
		}
	}
}

// Blend alpha blends src over dst at the given point through mask.
func Blend(dst, src *image.NRGBA, mask *Mask, at image.Point) {
	InitOp().Draw(dst, src, mask, at)
}

func toByte(v float64) uint8 {
	return uint8(utils.Clamp(math.Round(v*255), 0, 255))
}
