package picperfect

import (
	"fmt"
	"image"
	"io"

	"github.com/Ak-arsha/Picture-Perfect/gaze"
	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/Ak-arsha/Picture-Perfect/smile"
	"github.com/Ak-arsha/Picture-Perfect/tone"
	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OverlapPolicy decides what happens when the mouth region of a face overlaps one of
// its eye regions. Both engines read and write their region, so an overlap means the
// smile warp would see the already corrected eye.
type OverlapPolicy int

const (
	// SkipSmile leaves the mouth untouched and logs a warning.
	SkipSmile OverlapPolicy = iota
	// Allow runs the smile warp anyway.
	Allow
)

func (o OverlapPolicy) String() string {
	switch o {
	case SkipSmile:
		return "skip-smile"
	case Allow:
		return "allow"
	}
	return fmt.Sprintf("OverlapPolicy(%d)", int(o))
}

// ParseOverlapPolicy maps the CLI and query string spelling of a policy.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "skip-smile":
		return SkipSmile, nil
	case "allow":
		return Allow, nil
	}
	return 0, fmt.Errorf("unknown overlap policy %q", s)
}

// Detector finds the faces of an image and returns one landmark set per face.
type Detector interface {
	Detect(img *image.NRGBA) ([]landmark.Face, error)
}

// Processor options
type Processor struct {
	// GazeIntensity drives the iris relocation; nominally 0..2.
	GazeIntensity float64
	// SmileIntensity is the lift at the middle of the mouth in pixels; nominally 0..10.
	SmileIntensity float64
	// Tone holds the global adjustments applied after the face enhancements.
	Tone tone.Params
	// Backend names the inpainting and cloning implementation, see imop.Backends.
	Backend string
	Overlap OverlapPolicy
	// FaceWorkers above 1 enhances faces concurrently when their regions are disjoint.
	FaceWorkers int

	// Faces, when not nil, are used instead of running the Detector.
	Faces    []landmark.Face
	Detector Detector
	// Format forces the output encoding (".png", "out.jpg"); by default it follows
	// the destination file name.
	Format string

	Logger  *zap.Logger
	Spinner *utils.Spinner
}

// Result is an enhanced image together with the number of faces it was enhanced for.
type Result struct {
	Image *image.NRGBA
	Faces int
}

// Process decodes the image from r, enhances it and encodes the result into w.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, err := Decode(r)
	if err != nil {
		return err
	}
	res, err := p.Render(src)
	if err != nil {
		return err
	}
	return Encode(w, res.Image, p.Format)
}

// Render enhances a decoded image: landmarks are taken from Faces or the Detector,
// every face goes through Enhance and the tone adjustments are applied last.
// The source image is never modified.
func (p *Processor) Render(src image.Image) (*Result, error) {
	if _, err := imop.Lookup(p.Backend); err != nil {
		return nil, err
	}
	if err := p.Tone.Validate(); err != nil {
		return nil, err
	}

	img := imaging.Clone(src)

	faces := p.Faces
	if faces == nil && p.Detector != nil {
		var err error
		if faces, err = p.Detector.Detect(img); err != nil {
			return nil, fmt.Errorf("face detection failed: %w", err)
		}
	}
	if len(faces) == 0 {
		p.logger().Warn("no faces found, only the tone adjustments are applied")
	}

	img = p.Enhance(img, faces)
	if !p.Tone.IsZero() {
		img = tone.Apply(img, p.Tone)
	}
	return &Result{Image: img, Faces: len(faces)}, nil
}

// Enhance corrects the gaze of every face, left eye then right eye, then warps its
// smile. The image is modified in place and returned; a feature that cannot be
// enhanced is left as it was.
func (p *Processor) Enhance(img *image.NRGBA, faces []landmark.Face) *image.NRGBA {
	backend, err := imop.Lookup(p.Backend)
	if err != nil {
		p.logger().Warn("falling back to the default backend", zap.Error(err))
		backend, _ = imop.Lookup(imop.DefaultBackend)
	}

	footprints := make([]image.Rectangle, len(faces))
	for i, face := range faces {
		footprints[i] = p.footprint(img.Bounds(), face)
	}

	if p.FaceWorkers <= 1 || len(faces) < 2 || !landmark.Disjoint(footprints...) {
		for i, face := range faces {
			p.enhanceFace(img, i, face, backend)
		}
		return img
	}

	// The regions do not overlap, so every face writes its own pixels.
	var g errgroup.Group
	g.SetLimit(p.FaceWorkers)
	for i, face := range faces {
		i, face := i, face
		g.Go(func() error {
			p.enhanceFace(img, i, face, backend)
			return nil
		})
	}
	g.Wait()
	return img
}

func (p *Processor) enhanceFace(img *image.NRGBA, i int, face landmark.Face, backend imop.Backend) {
	log := p.logger().With(zap.Int("face", i))
	corrector, warper := p.engines(backend, log)

	skipSmile := false
	if p.Overlap == SkipSmile {
		if mouth, err := warper.Region(img.Bounds(), face); err == nil {
			for _, side := range []landmark.Side{landmark.Left, landmark.Right} {
				eye, err := corrector.Region(img.Bounds(), face, side)
				if err == nil && eye.Overlaps(mouth) {
					log.Warn("smile skipped",
						zap.String("reason", "mouth region overlaps the eye region"),
						zap.Stringer("eye", side),
					)
					skipSmile = true
					break
				}
			}
		}
	}

	corrector.Correct(img, face)
	if !skipSmile {
		warper.Warp(img, face)
	}
}

// footprint is the union of the regions the engines may touch for one face.
func (p *Processor) footprint(bounds image.Rectangle, face landmark.Face) image.Rectangle {
	corrector, warper := p.engines(imop.Backend{}, zap.NewNop())

	var fp image.Rectangle
	for _, side := range []landmark.Side{landmark.Left, landmark.Right} {
		if r, err := corrector.Region(bounds, face, side); err == nil {
			fp = fp.Union(r)
		}
	}
	if r, err := warper.Region(bounds, face); err == nil {
		fp = fp.Union(r)
	}
	return fp
}

func (p *Processor) engines(backend imop.Backend, log *zap.Logger) (*gaze.Corrector, *smile.Warper) {
	corrector := gaze.NewCorrector(p.GazeIntensity)
	corrector.Logger = log
	if backend.Inpainter != nil {
		corrector.Inpainter = backend.Inpainter
	}
	if backend.Dilator != nil {
		corrector.Dilator = backend.Dilator
	}

	warper := smile.NewWarper(p.SmileIntensity)
	warper.Logger = log
	if backend.Cloner != nil {
		warper.Cloner = backend.Cloner
	}
	if backend.Remapper != nil {
		warper.Remapper = backend.Remapper
	}
	return corrector, warper
}

func (p *Processor) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
