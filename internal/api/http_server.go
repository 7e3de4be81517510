package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/logging"

	"github.com/rs/zerolog"
)

// HTTPServer serves the public booking API and the admin routes.
type HTTPServer struct {
	cfg    config.APIConfig
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, auth *Authenticator, logger *zerolog.Logger) *HTTPServer {
	logger = logging.Component(logger, "http")

	mux := http.NewServeMux()
	h := &handlers{svc: svc, logger: logger}
	h.register(mux, auth)

	return &HTTPServer{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           accessLog(logger, mux),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// Handler exposes the full middleware stack, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
