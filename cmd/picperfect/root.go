package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	picperfect "github.com/Ak-arsha/Picture-Perfect"
	"github.com/Ak-arsha/Picture-Perfect/imop"
	_ "github.com/Ak-arsha/Picture-Perfect/imop/opencv"
	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	Debug    bool
	LogFile  string
	Backend  string
	Cascades string
}

var (
	globals globalOptions
	// logger is built once the flags are parsed.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "picperfect",
	Short:         "Gaze correction and smile enhancement for portraits",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = utils.NewLogger(utils.LoggerOptions{
			Debug: globals.Debug,
			File:  globals.LogFile,
		})
		if _, err := imop.Lookup(globals.Backend); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.SetHelpTemplate(fmt.Sprintf(HelpBanner, Version) + rootCmd.HelpTemplate())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		stop()
		os.Exit(1)
	}
}

// faceFinder loads the pigo cascades from the --cascades directory, or
// PICPERFECT_CASCADES when the flag is empty. It returns nil when neither is set.
func faceFinder() (*picperfect.FaceFinder, error) {
	dir := globals.Cascades
	if dir == "" {
		dir = os.Getenv("PICPERFECT_CASCADES")
	}
	if dir == "" {
		return nil, nil
	}
	return picperfect.NewFaceFinder(dir)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&globals.Debug, "debug", false, "Log the reason every skipped eye or mouth was left untouched")
	pf.StringVar(&globals.LogFile, "log-file", "", "Write JSON logs to this file, rotated, instead of stderr")
	pf.StringVar(&globals.Backend, "backend", imop.DefaultBackend, fmt.Sprintf("Inpainting and cloning backend %v", imop.Backends()))
	pf.StringVar(&globals.Cascades, "cascades", "", "Directory holding the pigo facefinder, puploc and lps cascades")
}
