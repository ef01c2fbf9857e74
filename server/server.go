// Package server exposes the enhancement pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	picperfect "github.com/Ak-arsha/Picture-Perfect"
	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

// FacesHeader reports how many faces the returned image was enhanced for.
const FacesHeader = "X-Faces-Detected"

// Config holds the server settings.
type Config struct {
	Addr string
	// Backend is the image backend used for every request.
	Backend     string
	FaceWorkers int
	// MaxUploadMB caps the size of the multipart form kept in memory.
	MaxUploadMB int
	// ShutdownTimeout bounds the graceful shutdown once the context is cancelled.
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end of the processor.
type Server struct {
	cfg      Config
	detector picperfect.Detector
	logger   *zap.Logger
	router   *gin.Engine
}

// New builds the router. detector may be nil, in which case only requests
// carrying their own landmarks get face enhancements.
func New(cfg Config, detector picperfect.Detector, logger *zap.Logger) (*Server, error) {
	if _, err := imop.Lookup(cfg.Backend); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{cfg: cfg, detector: detector, logger: logger}

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20
	router.Use(requestID(), s.accessLog(), gin.CustomRecovery(s.recovery))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", s.health)
		v1.POST("/enhance", s.enhance)
	}
	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, fmt.Sprintf("%s %s does not exist", c.Request.Method, c.Request.URL))
	})

	s.router = router
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut the server down: %w", err)
	}
	return nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.requestLogger(c).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) recovery(c *gin.Context, err any) {
	s.requestLogger(c).Error("panic while serving request", zap.Any("error", err))
	respondError(c, http.StatusInternalServerError, "internal server error")
}

func (s *Server) requestLogger(c *gin.Context) *zap.Logger {
	return s.logger.With(zap.String("request_id", c.GetString(RequestIDHeader)))
}

// respondError aborts the request with a JSON error body.
func respondError(c *gin.Context, code int, message string, errs ...error) {
	body := gin.H{"message": message}
	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		body["errors"] = msgs
	}
	c.AbortWithStatusJSON(code, body)
}
