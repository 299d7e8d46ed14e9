// Package server provides the executor's HTTP listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/watzon/alyx-executor/internal/config"
	"github.com/watzon/alyx-executor/internal/server/handlers"
)

type Server struct {
	cfg        *config.Config
	exec       handlers.Executor
	httpServer *http.Server
	router     *Router
}

func New(cfg *config.Config, exec handlers.Executor) *Server {
	srv := &Server{
		cfg:  cfg,
		exec: exec,
	}

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("functions", s.cfg.Functions.Path).
		Msg("Starting executor")

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down executor")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Config() *config.Config {
	return s.cfg
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.router
}
