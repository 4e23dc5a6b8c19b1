package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curaious/tasky/internal/api/authenticator"
	"github.com/curaious/tasky/internal/config"
	"github.com/curaious/tasky/internal/migrations"
	"github.com/curaious/tasky/internal/services"
	"github.com/valyala/fasthttp"
)

// Server is the HTTP front of the task tracker
type Server struct {
	srv      *fasthttp.Server
	addr     string
	conf     *config.Config
	auth     *authenticator.Authenticator
	services *services.Services
}

// New wraps svc in an HTTP server. Pending migrations are applied first when svc is backed by
// Postgres.
func New(conf *config.Config, svc *services.Services) (*Server, error) {
	if svc.DB != nil {
		m, err := migrations.NewMigrator(svc.DB)
		if err != nil {
			return nil, fmt.Errorf("unable to create migrator: %w", err)
		}
		if err := m.Up(context.Background(), 0); err != nil {
			return nil, fmt.Errorf("unable to run migrations: %w", err)
		}
	}

	auth, err := authenticator.New(conf)
	if err != nil {
		return nil, err
	}

	s := &Server{
		srv: &fasthttp.Server{
			Name:         "tasky",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		addr:     conf.SERVER_ADDR,
		conf:     conf,
		auth:     auth,
		services: svc,
	}

	s.srv.Handler = s.initRoutes()

	return s, nil
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully
func (s *Server) Start() {
	slog.Info("Starting REST server...", slog.String("addr", s.addr))
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("REST server started!")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	slog.Info("Received interrupt...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}
	s.services.Close()
	slog.Info("REST server shutdown!")
}
