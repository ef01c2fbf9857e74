package landmark

import (
	"image"
	"math"
)

// RegionFromPoints returns the bounding box of pts expanded by padding on all
// sides and clamped to bounds. The result is empty when pts is empty or when
// clamping collapses the box.
func RegionFromPoints(bounds image.Rectangle, pts []Point, padding int) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	r := image.Rect(minX-padding, minY-padding, maxX+padding, maxY+padding)
	r = r.Intersect(bounds)
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// Region returns the padded, clamped bounding box of the landmarks at indices.
// A missing index yields an empty region.
func (f Face) Region(bounds image.Rectangle, indices []int, padding int) image.Rectangle {
	pts, err := f.Select(indices...)
	if err != nil {
		return image.Rectangle{}
	}
	return RegionFromPoints(bounds, pts, padding)
}

// EyeAspectRatio is the mean of the two vertical lid distances over the corner
// distance. Lower values mean a more closed eye; 0 for a degenerate eye.
func EyeAspectRatio(eye Eye) float64 {
	h := eye.Inner.Dist(eye.Outer)
	if h == 0 {
		return 0
	}
	v1 := eye.Lids[0][0].Dist(eye.Lids[0][1])
	v2 := eye.Lids[1][0].Dist(eye.Lids[1][1])
	return (v1 + v2) / (2 * h)
}

// EyeAspectRatio resolves the eye on side and returns its aspect ratio.
func (f Face) EyeAspectRatio(side Side) (float64, error) {
	eye, err := f.Eye(side)
	if err != nil {
		return 0, err
	}
	return EyeAspectRatio(eye), nil
}

// IrisCoverage is the factor applied to the measured iris radius so the mask
// covers the limbus.
const IrisCoverage = 1.05

// IrisRadius returns the iris radius in whole pixels: the truncated mean distance
// from the center to the four perimeter points, scaled by coverage and truncated again.
func IrisRadius(iris Iris, coverage float64) int {
	var sum float64
	for _, p := range iris.Perimeter {
		sum += iris.Center.Dist(p)
	}
	r := int(sum / float64(len(iris.Perimeter)))
	scaled := float64(r) * coverage
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return r
	}
	return int(scaled)
}

// Disjoint reports whether no two of the non-empty rectangles overlap.
func Disjoint(rects ...image.Rectangle) bool {
	for i := range rects {
		if rects[i].Empty() {
			continue
		}
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				return false
			}
		}
	}
	return true
}

// Bounds returns the smallest rectangle containing all points of the face.
func (f Face) Bounds() image.Rectangle {
	if len(f.Points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: image.Pt(f.Points[0].X, f.Points[0].Y)}
	r.Max = r.Min.Add(image.Pt(1, 1))
	for _, p := range f.Points[1:] {
		r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}
	return r
}
