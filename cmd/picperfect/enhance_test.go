package main

import (
	"os"
	"path/filepath"
	"testing"

	picperfect "github.com/Ak-arsha/Picture-Perfect"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/Ak-arsha/Picture-Perfect/tone"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCommand returns a fresh enhance command bound to opts, with args parsed.
func testCommand(t *testing.T, opts *enhanceOptions, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "enhance"}
	f := cmd.Flags()
	f.StringVar(&opts.ToneFile, "tone", "", "")
	f.StringVar(&opts.Landmarks, "landmarks", "", "")
	f.StringVar(&opts.Overlap, "overlap", "skip-smile", "")
	f.Float64Var(&opts.Tone.Brightness, "brightness", 0, "")
	f.Float64Var(&opts.Tone.Contrast, "contrast", 0, "")
	f.Float64Var(&opts.Tone.Softness, "softness", 0, "")
	f.Float64Var(&opts.Tone.Sharpness, "sharpness", 0, "")
	f.Float64Var(&opts.Tone.Warmth, "warmth", 0, "")
	require.NoError(t, f.Parse(args))
	return cmd
}

func TestEnhance_ToneFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"brightness": 10, "warmth": 5}`), 0644))

	var opts enhanceOptions
	cmd := testCommand(t, &opts, "--tone", path, "--warmth", "-20")
	params, err := toneParams(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, tone.Params{Brightness: 10, Warmth: -20}, params)

	opts = enhanceOptions{}
	cmd = testCommand(t, &opts, "--softness", "3")
	_, err = toneParams(cmd, opts)
	assert.ErrorContains(t, err, "Softness must be at most 1")
}

func TestEnhance_NewProcessor(t *testing.T) {
	t.Setenv("PICPERFECT_CASCADES", "")
	globals = globalOptions{}

	var opts enhanceOptions
	cmd := testCommand(t, &opts)
	_, err := newProcessor(cmd, opts)
	assert.ErrorContains(t, err, "--landmarks or --cascades")

	path := filepath.Join(t.TempDir(), "faces.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, landmark.NewFile([]landmark.Face{landmark.Blank(landmark.MediaPipe)}).Save(f))
	require.NoError(t, f.Close())

	opts = enhanceOptions{}
	cmd = testCommand(t, &opts, "--landmarks", path, "--overlap", "allow")
	opts.Gaze, opts.Smile, opts.Destination = 1.5, 4, pipeName
	p, err := newProcessor(cmd, opts)
	require.NoError(t, err)
	assert.Len(t, p.Faces, 1)
	assert.Nil(t, p.Detector)
	assert.Equal(t, picperfect.Allow, p.Overlap)
	assert.Equal(t, 1.5, p.GazeIntensity)
	assert.Equal(t, 4.0, p.SmileIntensity)

	opts = enhanceOptions{}
	cmd = testCommand(t, &opts, "--landmarks", path, "--overlap", "sometimes")
	_, err = newProcessor(cmd, opts)
	assert.Error(t, err)
}
