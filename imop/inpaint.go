package imop

import (
	"container/heap"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Pixel states of the fast marching method.
const (
	known uint8 = iota
	band
	inside
)

const infinity = 1e6

// Telea fills masked pixels with the fast marching inpainting method of
// A. Telea (2004): the hole is filled from its boundary inwards, each pixel
// estimated from the known pixels within the inpainting radius, weighted by
// direction, distance and level set proximity.
type Telea struct{}

// Inpaint returns a copy of src where every pixel covered by mask is synthesized
// from its surroundings. The mask must have the size of src.
func (Telea) Inpaint(src *image.NRGBA, mask *Mask, radius int) (*image.NRGBA, error) {
	out := imaging.Clone(src)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if mask.Rect.Dx() != w || mask.Rect.Dy() != h {
		return nil, fmt.Errorf("inpaint mask is %v, image is %dx%d", mask.Rect.Size(), w, h)
	}
	if radius < 1 {
		radius = 1
	}

	fm := newMarcher(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Stride+x] > 0 {
				fm.flag[y*w+x] = inside
				fm.t[y*w+x] = infinity
			}
		}
	}
	// The narrow band is the ring of known pixels 4-adjacent to the hole.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fm.flag[y*w+x] != known {
				continue
			}
			for _, d := range neighbours {
				nx, ny := x+d.X, y+d.Y
				if fm.in(nx, ny) && fm.flag[ny*w+nx] == inside {
					fm.flag[y*w+x] = band
					heap.Push(&fm.queue, &bandPixel{x: x, y: y, t: 0, seq: fm.next()})
					break
				}
			}
		}
	}

	for fm.queue.Len() > 0 {
		p := heap.Pop(&fm.queue).(*bandPixel)
		fm.flag[p.y*w+p.x] = known

		for _, d := range neighbours {
			x, y := p.x+d.X, p.y+d.Y
			if !fm.in(x, y) || fm.flag[y*w+x] != inside {
				continue
			}
			t := min(
				fm.solve(x-1, y, x, y-1),
				fm.solve(x+1, y, x, y-1),
				fm.solve(x-1, y, x, y+1),
				fm.solve(x+1, y, x, y+1),
			)
			fm.t[y*w+x] = t
			fm.fill(out, x, y, radius)
			fm.flag[y*w+x] = band
			heap.Push(&fm.queue, &bandPixel{x: x, y: y, t: t, seq: fm.next()})
		}
	}
	return out, nil
}

var neighbours = [4]image.Point{{-1, 0}, {0, -1}, {1, 0}, {0, 1}}

type marcher struct {
	w, h  int
	flag  []uint8
	t     []float64
	queue bandQueue
	seq   int
}

func newMarcher(w, h int) *marcher {
	return &marcher{
		w:    w,
		h:    h,
		flag: make([]uint8, w*h),
		t:    make([]float64, w*h),
	}
}

func (fm *marcher) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < fm.w && y < fm.h
}

func (fm *marcher) next() int {
	fm.seq++
	return fm.seq
}

func (fm *marcher) isKnown(x, y int) bool {
	return fm.in(x, y) && fm.flag[y*fm.w+x] == known
}

// solve returns the arrival time at the pixel shared by the two given
// neighbours, from the eikonal equation |∇T| = 1.
func (fm *marcher) solve(x1, y1, x2, y2 int) float64 {
	k1, k2 := fm.isKnown(x1, y1), fm.isKnown(x2, y2)
	switch {
	case k1 && k2:
		t1, t2 := fm.t[y1*fm.w+x1], fm.t[y2*fm.w+x2]
		d := 2 - (t1-t2)*(t1-t2)
		if d < 0 {
			return 1 + min(t1, t2)
		}
		r := math.Sqrt(d)
		s := (t1 + t2 - r) / 2
		if s >= t1 && s >= t2 {
			return s
		}
		s += r
		if s >= t1 && s >= t2 {
			return s
		}
		return infinity
	case k1:
		return 1 + fm.t[y1*fm.w+x1]
	case k2:
		return 1 + fm.t[y2*fm.w+x2]
	}
	return infinity
}

// available reports whether the pixel holds a usable value.
func (fm *marcher) available(x, y int) bool {
	return fm.in(x, y) && fm.flag[y*fm.w+x] != inside
}

// gradT returns the gradient of the arrival time at (x, y).
func (fm *marcher) gradT(x, y int) (gx, gy float64) {
	t := fm.t[y*fm.w+x]
	at := func(x, y int) float64 { return fm.t[y*fm.w+x] }
	gx = fm.diff(x, y, 1, 0, t, at)
	gy = fm.diff(x, y, 0, 1, t, at)
	return gx, gy
}

// diff takes a central difference along (dx, dy) when both sides are available,
// a one sided difference when only one is, and 0 otherwise.
func (fm *marcher) diff(x, y, dx, dy int, c float64, at func(x, y int) float64) float64 {
	next, prev := fm.available(x+dx, y+dy), fm.available(x-dx, y-dy)
	switch {
	case next && prev:
		return (at(x+dx, y+dy) - at(x-dx, y-dy)) / 2
	case next:
		return at(x+dx, y+dy) - c
	case prev:
		return c - at(x-dx, y-dy)
	}
	return 0
}

// fill estimates the pixel (x, y) of img from its known neighbourhood.
func (fm *marcher) fill(img *image.NRGBA, x, y, radius int) {
	gtx, gty := fm.gradT(x, y)
	t := fm.t[y*fm.w+x]

	var ia, jx, jy [4]float64
	var s [4]float64

	for ny := y - radius; ny <= y+radius; ny++ {
		for nx := x - radius; nx <= x+radius; nx++ {
			if !fm.available(nx, ny) {
				continue
			}
			rx, ry := float64(x-nx), float64(y-ny)
			r2 := rx*rx + ry*ry
			if r2 == 0 || r2 > float64(radius*radius) {
				continue
			}
			dst := 1 / (r2 * math.Sqrt(r2))
			lev := 1 / (1 + math.Abs(fm.t[ny*fm.w+nx]-t))
			dir := rx*gtx + ry*gty
			if math.Abs(dir) <= 0.01 {
				dir = 1e-6
			}
			wt := math.Abs(dst * lev * dir)

			i := img.PixOffset(nx, ny)
			for c := 0; c < 4; c++ {
				at := func(x, y int) float64 { return float64(img.Pix[img.PixOffset(x, y)+c]) }
				v := float64(img.Pix[i+c])
				gix := fm.diff(nx, ny, 1, 0, v, at)
				giy := fm.diff(nx, ny, 0, 1, v, at)

				ia[c] += wt * v
				jx[c] -= wt * gix * rx
				jy[c] -= wt * giy * ry
				s[c] += wt
			}
		}
	}

	o := img.PixOffset(x, y)
	for c := 0; c < 4; c++ {
		if s[c] == 0 {
			continue
		}
		v := ia[c]/s[c] + (jx[c]+jy[c])/(math.Sqrt(jx[c]*jx[c]+jy[c]*jy[c])+1e-20)
		img.Pix[o+c] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
}

type bandPixel struct {
	x, y  int
	t     float64
	seq   int
	index int
}

// bandQueue is a min-heap of band pixels ordered by arrival time,
// first in first out among equal times.
type bandQueue []*bandPixel

func (q bandQueue) Len() int { return len(q) }

func (q bandQueue) Less(i, j int) bool {
	if q[i].t == q[j].t {
		return q[i].seq < q[j].seq
	}
	return q[i].t < q[j].t
}

func (q bandQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *bandQueue) Push(x any) {
	p := x.(*bandPixel)
	p.index = len(*q)
	*q = append(*q, p)
}

func (q *bandQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return p
}
