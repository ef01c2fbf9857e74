package picperfect

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/Ak-arsha/Picture-Perfect/landmark"
	pigo "github.com/esimov/pigo/core"
)

// Cascade file layout expected under the directory given to NewFaceFinder.
const (
	FaceCascade     = "facefinder"
	PupilCascade    = "puploc"
	LandmarkCascade = "lps"
)

// Facial landmark point cascades used to assemble the pigo layout. The eye and mouth
// corner cascades are run twice, once mirrored, to get both sides of the face.
const (
	eyeOuterCascade    = "lp46"
	eyeInnerCascade    = "lp44"
	mouthCornerCascade = "lp84"
)

var lipCascades = []string{"lp93", "lp82", "lp81"}

// FaceFinder detects faces with pigo and places the points of the landmark.Pigo
// layout: pupils, eye corners, mouth corners and lips.
type FaceFinder struct {
	MinSize int
	// MaxSize of 0 uses the smaller image dimension.
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	// MinQuality discards detections with a lower score.
	MinQuality float32
	// Perturbs is the number of perturbations of the pupil and landmark detectors.
	Perturbs int

	face   *pigo.Pigo
	pupils *pigo.PuplocCascade
	points map[string][]*pigo.FlpCascade
}

// NewFaceFinder unpacks the face, pupil and landmark point cascades from dir.
func NewFaceFinder(dir string) (*FaceFinder, error) {
	faceData, err := os.ReadFile(filepath.Join(dir, FaceCascade))
	if err != nil {
		return nil, fmt.Errorf("error reading the face cascade file: %w", err)
	}
	face, err := pigo.NewPigo().Unpack(faceData)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the face cascade file: %w", err)
	}

	pupilData, err := os.ReadFile(filepath.Join(dir, PupilCascade))
	if err != nil {
		return nil, fmt.Errorf("error reading the pupil cascade file: %w", err)
	}
	pl := pigo.NewPuplocCascade()
	pupils, err := pl.UnpackCascade(pupilData)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the pupil cascade file: %w", err)
	}

	points, err := pupils.ReadCascadeDir(filepath.Join(dir, LandmarkCascade))
	if err != nil {
		return nil, fmt.Errorf("error reading the facial landmark cascades: %w", err)
	}
	for _, name := range append([]string{eyeOuterCascade, eyeInnerCascade, mouthCornerCascade}, lipCascades...) {
		if len(points[name]) == 0 {
			return nil, fmt.Errorf("facial landmark cascade %q is missing", name)
		}
	}

	return &FaceFinder{
		MinSize:      60,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5,
		Perturbs:     63,
		face:         face,
		pupils:       pupils,
		points:       points,
	}, nil
}

// Detect returns the landmarks of every face found in img, ordered by detection score.
func (f *FaceFinder) Detect(img *image.NRGBA) ([]landmark.Face, error) {
	if f.face == nil || f.pupils == nil {
		return nil, errors.New("face finder is not initialized")
	}
	cols, rows := img.Bounds().Dx(), img.Bounds().Dy()
	params := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(img),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
	maxSize := f.MaxSize
	if maxSize <= 0 {
		maxSize = min(rows, cols)
	}

	dets := f.face.RunCascade(pigo.CascadeParams{
		MinSize:     f.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: f.ShiftFactor,
		ScaleFactor: f.ScaleFactor,
		ImageParams: params,
	}, 0.0)
	dets = f.face.ClusterDetections(dets, f.IoUThreshold)

	var faces []landmark.Face
	for _, det := range dets {
		if det.Q < f.MinQuality {
			continue
		}
		if face, ok := f.landmarks(det, params); ok {
			faces = append(faces, face)
		}
	}
	return faces, nil
}

// landmarks localises the pupils inside the detection and derives the remaining
// points from them. It reports false when a point could not be placed.
func (f *FaceFinder) landmarks(det pigo.Detection, params pigo.ImageParams) (landmark.Face, bool) {
	scale := float64(det.Scale)
	left := f.pupils.RunDetector(pigo.Puploc{
		Row:      det.Row - int(0.075*scale),
		Col:      det.Col - int(0.175*scale),
		Scale:    float32(scale) * 0.25,
		Perturbs: f.Perturbs,
	}, params, 0.0, false)
	right := f.pupils.RunDetector(pigo.Puploc{
		Row:      det.Row - int(0.075*scale),
		Col:      det.Col + int(0.185*scale),
		Scale:    float32(scale) * 0.25,
		Perturbs: f.Perturbs,
	}, params, 0.0, false)
	if !found(left) || !found(right) {
		return landmark.Face{}, false
	}

	face := landmark.Blank(landmark.Pigo)
	face.Set(landmark.PigoLeftPupil, toPoint(left))
	face.Set(landmark.PigoRightPupil, toPoint(right))

	pair := func(cascade string) (a, b landmark.Point, ok bool) {
		flpc := f.points[cascade][0]
		p1 := flpc.GetLandmarkPoint(left, right, params, f.Perturbs, false)
		p2 := flpc.GetLandmarkPoint(left, right, params, f.Perturbs, true)
		if !found(p1) || !found(p2) {
			return a, b, false
		}
		a, b = toPoint(p1), toPoint(p2)
		if a.X > b.X {
			a, b = b, a
		}
		return a, b, true
	}

	lo, ro, ok := pair(eyeOuterCascade)
	if !ok {
		return face, false
	}
	li, ri, ok := pair(eyeInnerCascade)
	if !ok {
		return face, false
	}
	ml, mr, ok := pair(mouthCornerCascade)
	if !ok {
		return face, false
	}
	face.Set(landmark.PigoLeftEyeOuter, lo)
	face.Set(landmark.PigoLeftEyeInner, li)
	face.Set(landmark.PigoRightEyeOuter, ro)
	face.Set(landmark.PigoRightEyeInner, ri)
	face.Set(landmark.PigoMouthLeft, ml)
	face.Set(landmark.PigoMouthRight, mr)

	var lips []landmark.Point
	for _, name := range lipCascades {
		p := f.points[name][0].GetLandmarkPoint(left, right, params, f.Perturbs, false)
		if found(p) {
			lips = append(lips, toPoint(p))
		}
	}
	if len(lips) == 0 {
		return face, false
	}
	upper, lower := lips[0], lips[0]
	for _, p := range lips[1:] {
		if p.Y < upper.Y {
			upper = p
		}
		if p.Y > lower.Y {
			lower = p
		}
	}
	cx := (ml.X + mr.X) / 2
	face.Set(landmark.PigoUpperLip, landmark.Point{X: cx, Y: upper.Y})
	face.Set(landmark.PigoLowerLip, landmark.Point{X: cx, Y: lower.Y})
	return face, true
}

func found(p *pigo.Puploc) bool {
	return p != nil && p.Row > 0 && p.Col > 0
}

func toPoint(p *pigo.Puploc) landmark.Point {
	return landmark.Point{X: p.Col, Y: p.Row}
}
