// Package relay serves a small HTTP endpoint that forwards chat requests to
// the local model server.
package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"nexus/internal/logging"
	"nexus/internal/ollama"
)

const shutdownTimeout = 5 * time.Second

type ChatClient interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error)
}

type Server struct {
	addr    string
	version string
	api     *API
	logger  logging.Logger
	server  *http.Server
}

func New(addr, version string, chat ChatClient, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(logging.F("component", "relay"))
	return &Server{
		addr:    addr,
		version: version,
		api:     &API{Version: version, Chat: chat, Logger: logger},
		logger:  logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.api.RegisterRoutes(mux)
	return LoggingMiddleware(s.logger, mux)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay_listening", logging.F("addr", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("relay_stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
