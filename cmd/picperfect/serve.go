package main

import (
	"os"

	"github.com/Ak-arsha/Picture-Perfect/server"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveOpts struct {
	Addr        string
	EnvFile     string
	FaceWorkers int
	MaxUploadMB int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the enhancement pipeline over HTTP",
	Long: `Serve POST /api/v1/enhance and GET /api/v1/health.

Settings are read from the environment, optionally loaded from a .env file:
  PICPERFECT_ADDR      listen address (default :8080)
  PICPERFECT_CASCADES  pigo cascade directory
  GIN_MODE             debug or release`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(serveOpts.EnvFile); err != nil && !os.IsNotExist(err) {
			return err
		} else if err != nil {
			logger.Debug("no env file loaded", zap.String("file", serveOpts.EnvFile))
		}

		if mode := os.Getenv("GIN_MODE"); mode != "" {
			gin.SetMode(mode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		addr := serveOpts.Addr
		if !cmd.Flags().Changed("addr") {
			if env := os.Getenv("PICPERFECT_ADDR"); env != "" {
				addr = env
			}
		}

		cfg := server.Config{
			Addr:        addr,
			Backend:     globals.Backend,
			FaceWorkers: serveOpts.FaceWorkers,
			MaxUploadMB: serveOpts.MaxUploadMB,
		}

		finder, err := faceFinder()
		if err != nil {
			return err
		}
		var srv *server.Server
		if finder != nil {
			srv, err = server.New(cfg, finder, logger)
		} else {
			logger.Warn("no cascades configured, faces are only enhanced when landmarks are uploaded")
			srv, err = server.New(cfg, nil, logger)
		}
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveOpts.EnvFile, "env-file", ".env", "Environment file to load")
	serveCmd.Flags().IntVar(&serveOpts.FaceWorkers, "face-workers", 1, "Number of faces of one image to process concurrently")
	serveCmd.Flags().IntVar(&serveOpts.MaxUploadMB, "max-upload", 32, "Multipart memory limit in MiB")
	rootCmd.AddCommand(serveCmd)
}
