package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	picperfect "github.com/Ak-arsha/Picture-Perfect"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var landmarkOpts struct {
	Source      string
	Destination string
}

var landmarksCmd = &cobra.Command{
	Use:   "landmarks",
	Short: "Detect the faces of an image and write their landmarks as JSON",
	Long: `Detect the faces of an image with the pigo cascades and write a landmark file.
The file can be edited or replaced by the output of a denser detector and passed
back to "picperfect enhance --landmarks".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		finder, err := faceFinder()
		if err != nil {
			return err
		}
		if finder == nil {
			return errors.New("--cascades (or PICPERFECT_CASCADES) is required")
		}

		var r io.Reader = os.Stdin
		if landmarkOpts.Source == pipeName {
			if term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("`-` should be used with a pipe for stdin")
			}
		} else {
			f, err := os.Open(landmarkOpts.Source)
			if err != nil {
				return fmt.Errorf("unable to open the source file: %w", err)
			}
			defer f.Close()
			r = f
		}

		src, err := picperfect.Decode(r)
		if err != nil {
			return err
		}
		faces, err := finder.Detect(imaging.Clone(src))
		if err != nil {
			return err
		}
		logger.Info("faces detected", zap.Int("faces", len(faces)))

		var w io.Writer = os.Stdout
		if landmarkOpts.Destination != pipeName {
			f, err := os.Create(landmarkOpts.Destination)
			if err != nil {
				return fmt.Errorf("unable to create the landmark file: %w", err)
			}
			defer f.Close()
			w = f
		}
		file := landmark.NewFile(faces)
		file.Layout = landmark.Pigo.Name
		return file.Save(w)
	},
}

func init() {
	landmarksCmd.Flags().StringVarP(&landmarkOpts.Source, "in", "i", pipeName, "Source image")
	landmarksCmd.Flags().StringVarP(&landmarkOpts.Destination, "out", "o", pipeName, "Destination landmark file")
	rootCmd.AddCommand(landmarksCmd)
}
