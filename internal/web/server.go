// Package web serves the dashboard: the sign-in gate, the Home and Data
// Profiler pages, and the operational endpoints.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/brizzai/auto-eda/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
	// readHeaderTimeout bounds slow clients before a handler runs
	readHeaderTimeout = 10 * time.Second
)

// Server runs the HTTP listener under the fx lifecycle
type Server struct {
	addr       string
	server     *http.Server
	shutdowner fx.Shutdowner
	log        *zap.Logger
	listener   net.Listener
}

// NewServer creates the server for handler
func NewServer(cfg *config.Config, handler http.Handler, shutdowner fx.Shutdowner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	addr := cfg.Server.ListenAddr()
	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
		shutdowner: shutdowner,
		log:        log.Named("http"),
	}
}

// Start binds the listen address and serves in the background. A serve error
// after startup stops the application.
func (s *Server) Start(context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	go func() {
		s.log.Info("Starting server", zap.String("address", listener.Addr().String()))

		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", zap.Error(err))
			if s.shutdowner != nil {
				_ = s.shutdowner.Shutdown(fx.ExitCode(1))
			}
		}
	}()
	return nil
}

// Stop drains in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}
