package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	picperfect "github.com/Ak-arsha/Picture-Perfect"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/Ak-arsha/Picture-Perfect/tone"
	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type enhanceOptions struct {
	Source      string
	Destination string
	Landmarks   string
	ToneFile    string
	Gaze        float64
	Smile       float64
	Overlap     string
	Workers     int
	FaceWorkers int
	Tone        tone.Params
}

var enhanceOpts enhanceOptions

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Correct the gaze and enhance the smile of every face in an image or a directory",
	Example: `  picperfect enhance -i portrait.jpg -o out.jpg --cascades ./cascade
  picperfect enhance -i portrait.jpg -o out.png --landmarks portrait.json --smile 4
  cat portrait.jpg | picperfect enhance --cascades ./cascade --warmth 10 > out.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor(cmd, enhanceOpts)
		if err != nil {
			return err
		}
		return p.Execute(cmd.Context(), &picperfect.Ops{
			Src:      enhanceOpts.Source,
			Dst:      enhanceOpts.Destination,
			PipeName: pipeName,
			Workers:  enhanceOpts.Workers,
			Progress: os.Stderr,
		})
	},
}

// newProcessor turns the command line options into a processor. Landmarks come
// from the --landmarks file when given, otherwise from the pigo face finder.
func newProcessor(cmd *cobra.Command, opts enhanceOptions) (*picperfect.Processor, error) {
	params, err := toneParams(cmd, opts)
	if err != nil {
		return nil, err
	}
	overlap, err := picperfect.ParseOverlapPolicy(opts.Overlap)
	if err != nil {
		return nil, err
	}

	p := &picperfect.Processor{
		GazeIntensity:  opts.Gaze,
		SmileIntensity: opts.Smile,
		Tone:           params,
		Backend:        globals.Backend,
		Overlap:        overlap,
		FaceWorkers:    opts.FaceWorkers,
		Logger:         logger,
	}

	if opts.Landmarks != "" {
		f, err := os.Open(opts.Landmarks)
		if err != nil {
			return nil, fmt.Errorf("unable to open the landmark file: %w", err)
		}
		defer f.Close()
		file, err := landmark.Load(f)
		if err != nil {
			return nil, err
		}
		if p.Faces, err = file.Resolve(); err != nil {
			return nil, err
		}
	} else {
		finder, err := faceFinder()
		if err != nil {
			return nil, err
		}
		if finder == nil {
			return nil, errors.New("either --landmarks or --cascades (PICPERFECT_CASCADES) is required")
		}
		p.Detector = finder
	}

	// The spinner only makes sense when somebody watches stderr and stdout
	// is not the image stream.
	if opts.Destination != pipeName && term.IsTerminal(int(os.Stderr.Fd())) {
		p.Spinner = utils.NewSpinner(utils.StatusLine("is enhancing the image...", utils.DefaultMessage), time.Millisecond*80)
	}
	return p, nil
}

// toneParams reads the --tone file, if any, and lets the individual flags override it.
func toneParams(cmd *cobra.Command, opts enhanceOptions) (tone.Params, error) {
	params := tone.Params{}
	if opts.ToneFile != "" {
		f, err := os.Open(opts.ToneFile)
		if err != nil {
			return params, fmt.Errorf("unable to open the tone file: %w", err)
		}
		defer f.Close()
		if params, err = tone.Parse(f); err != nil {
			return params, err
		}
	}

	flags := cmd.Flags()
	for name, v := range map[string]*float64{
		"brightness": &params.Brightness,
		"contrast":   &params.Contrast,
		"softness":   &params.Softness,
		"sharpness":  &params.Sharpness,
		"warmth":     &params.Warmth,
	} {
		if flags.Changed(name) {
			f, err := flags.GetFloat64(name)
			if err != nil {
				return params, err
			}
			*v = f
		}
	}
	return params, params.Validate()
}

func init() {
	f := enhanceCmd.Flags()
	f.StringVarP(&enhanceOpts.Source, "in", "i", pipeName, "Source image, directory or URL")
	f.StringVarP(&enhanceOpts.Destination, "out", "o", pipeName, "Destination image or directory")
	f.StringVar(&enhanceOpts.Landmarks, "landmarks", "", "Landmark file to use instead of the face finder")
	f.Float64Var(&enhanceOpts.Gaze, "gaze", 1.0, "Gaze correction intensity (0 keeps the irises, 1 centers them)")
	f.Float64Var(&enhanceOpts.Smile, "smile", 6.0, "Smile lift in pixels at the middle of the mouth")
	f.StringVar(&enhanceOpts.Overlap, "overlap", picperfect.SkipSmile.String(), "What to do when the mouth region overlaps an eye region: skip-smile or allow")
	f.IntVar(&enhanceOpts.Workers, "conc", runtime.NumCPU(), "Number of files to process concurrently")
	f.IntVar(&enhanceOpts.FaceWorkers, "face-workers", 1, "Number of faces of one image to process concurrently")
	f.StringVar(&enhanceOpts.ToneFile, "tone", "", "JSON file with the tone adjustments")
	f.Float64Var(&enhanceOpts.Tone.Brightness, "brightness", 0, "Brightness adjustment (-100..100)")
	f.Float64Var(&enhanceOpts.Tone.Contrast, "contrast", 0, "Contrast adjustment (-100..100)")
	f.Float64Var(&enhanceOpts.Tone.Softness, "softness", 0, "Softening blur (0..1)")
	f.Float64Var(&enhanceOpts.Tone.Sharpness, "sharpness", 0, "Sharpening (0..1)")
	f.Float64Var(&enhanceOpts.Tone.Warmth, "warmth", 0, "Warmth adjustment (-50..50)")

	rootCmd.AddCommand(enhanceCmd)
}
