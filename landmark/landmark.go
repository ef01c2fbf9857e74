// Package landmark models the ordered facial landmark sets produced by an external
// detector and derives the geometry the warp engines work with: regions of interest,
// eye openness, iris size.
//
// A landmark set is positional: the meaning of each index is fixed by the detector.
// That contract is captured in a Layout table, so supporting a different detector
// only requires a new table.
package landmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMissingLandmarks is returned when a set does not carry an index a routine needs.
var ErrMissingLandmarks = errors.New("landmark set is missing required points")

// Point is a landmark position in image pixel coordinates.
type Point struct {
	X, Y int
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y))
}

// Side selects one of the two eyes, as seen in the image: Left is the eye closer to x=0.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// IrisLayout indexes the iris refinement points of one eye.
type IrisLayout struct {
	Center    int
	Perimeter [4]int
}

// EyeLayout indexes the points describing one eye.
type EyeLayout struct {
	Inner, Outer int
	// Contour is an ordered ring tracing the eye opening.
	Contour []int
	// Lids holds two (upper, lower) eyelid pairs used for the eye aspect ratio.
	Lids [2][2]int
	// Iris is nil for detectors without iris refinement.
	Iris *IrisLayout
}

// MouthLayout indexes the points describing the mouth.
type MouthLayout struct {
	Left, Right  int
	Upper, Lower int
}

// Layout is the index table of one landmark detector.
type Layout struct {
	Name  string
	Size  int
	Eyes  [2]EyeLayout
	Mouth MouthLayout
}

// Face is the landmark set of a single detected face.
type Face struct {
	Points []Point
	Layout *Layout
}

// NewFace pairs a point list with the layout it was produced with.
func NewFace(layout *Layout, pts []Point) Face {
	return Face{Points: pts, Layout: layout}
}

// At returns the point at index i, if the set carries it.
func (f Face) At(i int) (Point, bool) {
	if i < 0 || i >= len(f.Points) {
		return Point{}, false
	}
	return f.Points[i], true
}

// Has reports whether every index is present in the set.
func (f Face) Has(indices ...int) bool {
	for _, i := range indices {
		if i < 0 || i >= len(f.Points) {
			return false
		}
	}
	return true
}

// Select returns the points at the given indices.
func (f Face) Select(indices ...int) ([]Point, error) {
	pts := make([]Point, 0, len(indices))
	for _, i := range indices {
		p, ok := f.At(i)
		if !ok {
			return nil, fmt.Errorf("%w: index %d of %d", ErrMissingLandmarks, i, len(f.Points))
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// Iris is the resolved iris of one eye.
type Iris struct {
	Center    Point
	Perimeter [4]Point
}

// Eye is the resolved geometry of one eye.
type Eye struct {
	Side         Side
	Inner, Outer Point
	Contour      []Point
	Lids         [2][2]Point
	// Iris is nil when the landmark set carries no iris refinement data.
	Iris *Iris
}

// Center returns the midpoint of the eye corners, the geometric center of the eye opening.
func (e Eye) Center() (x, y float64) {
	return float64(e.Inner.X+e.Outer.X) / 2, float64(e.Inner.Y+e.Outer.Y) / 2
}

// Eye resolves the points of one eye. The corners, the contour ring and the lid pairs
// are required; the iris is optional and left nil when its points are absent.
func (f Face) Eye(side Side) (Eye, error) {
	if f.Layout == nil {
		return Eye{}, fmt.Errorf("%w: no layout", ErrMissingLandmarks)
	}
	l := f.Layout.Eyes[side]
	if len(l.Contour) < 3 {
		return Eye{}, fmt.Errorf("%w: %s layout has no %s eye contour", ErrMissingLandmarks, f.Layout.Name, side)
	}

	corners, err := f.Select(l.Inner, l.Outer)
	if err != nil {
		return Eye{}, err
	}
	contour, err := f.Select(l.Contour...)
	if err != nil {
		return Eye{}, err
	}
	lids, err := f.Select(l.Lids[0][0], l.Lids[0][1], l.Lids[1][0], l.Lids[1][1])
	if err != nil {
		return Eye{}, err
	}

	eye := Eye{
		Side:    side,
		Inner:   corners[0],
		Outer:   corners[1],
		Contour: contour,
		Lids:    [2][2]Point{{lids[0], lids[1]}, {lids[2], lids[3]}},
	}

	if l.Iris != nil {
		indices := append([]int{l.Iris.Center}, l.Iris.Perimeter[:]...)
		if pts, err := f.Select(indices...); err == nil {
			eye.Iris = &Iris{Center: pts[0]}
			copy(eye.Iris.Perimeter[:], pts[1:])
		}
	}
	return eye, nil
}

// Mouth is the resolved geometry of the mouth.
type Mouth struct {
	Left, Right  Point
	Upper, Lower Point
}

// Mouth resolves the mouth corners and lip extremes. The corners are returned
// ordered by x, whatever order the detector emitted them in.
func (f Face) Mouth() (Mouth, error) {
	if f.Layout == nil {
		return Mouth{}, fmt.Errorf("%w: no layout", ErrMissingLandmarks)
	}
	l := f.Layout.Mouth
	pts, err := f.Select(l.Left, l.Right, l.Upper, l.Lower)
	if err != nil {
		return Mouth{}, err
	}
	m := Mouth{Left: pts[0], Right: pts[1], Upper: pts[2], Lower: pts[3]}
	if m.Left.X > m.Right.X {
		m.Left, m.Right = m.Right, m.Left
	}
	return m, nil
}

// MarshalJSON encodes p as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array. Fractional coordinates,
// as emitted by normalised detectors scaled to pixels, are truncated.
func (p *Point) UnmarshalJSON(b []byte) error {
	var xy []float64
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("landmark point must have 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = int(xy[0]), int(xy[1])
	return nil
}

// Blank returns a set of layout.Size points, all at the origin, to be filled with Set.
func Blank(layout *Layout) Face {
	return Face{Points: make([]Point, layout.Size), Layout: layout}
}

// Set moves the point at index i. It is a no-op for indices outside the set.
func (f Face) Set(i int, p Point) {
	if i >= 0 && i < len(f.Points) {
		f.Points[i] = p
	}
}
