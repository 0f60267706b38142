// Package httpx provides the HTTP server, JSON response helpers and
// middleware shared by the dashboard API.
package httpx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server is an http.Server with optional TLS and graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer returns a Server for handler on addr. Timeouts are sized for
// small JSON responses.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Serve blocks until the server stops. With a non-nil cfg it serves HTTPS
// using certFile and keyFile; otherwise plain HTTP. A graceful Stop is not
// reported as an error.
func (s *Server) Serve(cfg *tls.Config, certFile, keyFile string) error {
	var err error
	if cfg != nil {
		s.srv.TLSConfig = cfg
		s.logger.Info("serving HTTPS", "addr", s.srv.Addr, "client_auth", cfg.ClientAuth.String())
		err = s.srv.ListenAndServeTLS(certFile, keyFile)
	} else {
		s.logger.Info("serving HTTP", "addr", s.srv.Addr)
		err = s.srv.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve %s: %w", s.srv.Addr, err)
}

// Stop drains in-flight requests for up to timeout.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
