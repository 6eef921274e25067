// Package server runs the HTTP server and ties its lifetime to the storage
// gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"blabber/app/config"
	"blabber/app/gateway"
	"blabber/app/repositories"
	"blabber/app/routes"

	"github.com/rs/zerolog"
)

// Server serves the forum until its context ends.
type Server struct {
	http            *http.Server
	gw              *gateway.Gateway
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// New wires the gateway and the routes around engine. The server owns the
// engine from now on and closes it on shutdown.
func New(conf *config.Config, engine repositories.Engine, logger zerolog.Logger) (*Server, error) {
	gw := gateway.New(engine,
		gateway.WithMaxPending(conf.MaxPending),
		gateway.WithLogger(logger.With().Str("component", "gateway").Logger()),
	)

	router, err := routes.SetupRoutes(gw, routes.Limits{
		MaxPosts:    conf.MaxPosts,
		MaxComments: conf.MaxComments,
	}, logger)
	if err != nil {
		_ = gw.Close()
		return nil, err
	}

	return &Server{
		http: &http.Server{
			Addr:              conf.Listen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		gw:              gw,
		shutdownTimeout: conf.ShutdownTimeout,
		logger:          logger,
	}, nil
}

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		_ = s.gw.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then stops accepting requests, waits
// for in-flight requests and drains the gateway before closing the engine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting blabber")
		errc <- s.http.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	if err := s.gw.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to close storage")
		if serveErr == nil {
			serveErr = err
		}
	}
	s.logger.Info().Msg("Stopped")
	return serveErr
}
