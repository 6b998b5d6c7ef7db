// Package server hosts the codec, overlay evaluation and chart extraction
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/internal/config"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP host.
type Server struct {
	Echo *echo.Echo

	cfg  config.Config
	log  *logrus.Logger
	opts sheetcore.Options
}

// New builds a server with its middleware and routes registered.
func New(cfg config.Config, log *logrus.Logger) *Server {
	s := &Server{
		Echo: echo.New(),
		cfg:  cfg,
		log:  log,
		opts: sheetcore.Options{
			Logger:        log,
			MetaSheetName: cfg.Codec.MetaSheetName,
			AutofitCap:    cfg.Codec.AutofitCap,
			SheetName:     "Sheet1",
			Debounce:      cfg.Condfmt.Debounce,
		},
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.registerMiddlewares()
	s.registerRoutes()
	return s
}

func (s *Server) registerMiddlewares() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.BodyLimit(fmt.Sprintf("%dB", s.cfg.Server.MaxUploadBytes)))
	s.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := s.Echo.Group("/v1")
	v1.POST("/decode", s.DecodeHandler)
	v1.POST("/encode", s.EncodeHandler)
	v1.POST("/overlay", s.OverlayHandler)
	v1.POST("/chart-data", s.ChartDataHandler)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Server.Addr).Info("listening")
		errCh <- s.Echo.Start(s.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Echo.Shutdown(shutdownCtx)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// respondError maps codec errors onto status codes: error responses posing
// as spreadsheets are 502, unknown containers 415, malformed input 422.
func (s *Server) respondError(c echo.Context, err error) error {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, sheetcore.ErrServerErrorMasquerade):
		status, kind = http.StatusBadGateway, "server_error_masquerade"
	case errors.Is(err, sheetcore.ErrUnsupportedContainer):
		status, kind = http.StatusUnsupportedMediaType, "unsupported_container"
	case errors.Is(err, sheetcore.ErrMalformedContainer):
		status, kind = http.StatusUnprocessableEntity, "malformed_container"
	case errors.Is(err, sheetcore.ErrMalformedInput):
		status, kind = http.StatusUnprocessableEntity, "malformed_input"
	case errors.Is(err, errBadRequest):
		status, kind = http.StatusBadRequest, "bad_request"
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	return c.JSON(status, errorResponse{Error: err.Error(), Kind: kind})
}
