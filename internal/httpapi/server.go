package httpapi

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"
)

// Server wraps the http.Server that serves the router.
type Server struct {
	httpServer *http.Server
}

// Run listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Run(addr string, handler http.Handler, writeTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
