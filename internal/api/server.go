// SPDX-License-Identifier: MIT

// Package api serves playlists, refresh status and metrics in serve mode.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/v2m3u/internal/api/middleware"
	"github.com/ManuGH/v2m3u/internal/config"
	"github.com/ManuGH/v2m3u/internal/health"
	"github.com/ManuGH/v2m3u/internal/jobs"
	xglog "github.com/ManuGH/v2m3u/internal/log"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownGrace     = 10 * time.Second
)

// Refresher is the part of the scheduler the API drives.
type Refresher interface {
	Trigger() bool
	Last() *jobs.Status
	Running() bool
}

// Deps holds the collaborators of a Server.
type Deps struct {
	// Config returns the active configuration; it is read per request.
	Config    func() config.AppConfig
	Refresher Refresher
	Version   string
	// Traced enables OpenTelemetry server spans.
	Traced bool
}

// Server is the serve-mode HTTP API.
type Server struct {
	deps    Deps
	started time.Time
	health  *health.Manager
	router  chi.Router
}

// New builds a Server and its routes.
func New(deps Deps) *Server {
	s := &Server{deps: deps, started: time.Now()}
	s.health = s.healthManager()
	s.router = s.routes()
	return s
}

// healthManager checks the output directory and the latest refresh. A run
// older than two refresh intervals degrades readiness.
func (s *Server) healthManager() *health.Manager {
	m := health.NewManager(s.deps.Version)
	m.RegisterChecker(health.NewOutputDirChecker(func() string { return s.deps.Config().OutputDir }))
	if s.deps.Refresher != nil {
		maxAge := 2 * s.deps.Config().Server.RefreshInterval
		m.RegisterChecker(health.NewLastRunChecker(s.lastRun, maxAge))
	}
	return m
}

func (s *Server) lastRun() (time.Time, string) {
	last := s.deps.Refresher.Last()
	if last == nil {
		return time.Time{}, ""
	}
	return last.LastRun, last.Error
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
	}
	if s.deps.Traced {
		stack.TracingService = "v2m3u-api"
	}
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.With(middleware.RefreshRateLimit(s.deps.Config().Server.RefreshRateLimit)).
			Post("/refresh", s.handleRefresh)
	})

	r.Get("/playlists", s.handleListPlaylists)
	r.Get("/playlists/{file}", s.handlePlaylist)
	r.Head("/playlists/{file}", s.handlePlaylist)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method_not_allowed"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := xglog.WithComponent("api")
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str(xglog.FieldEvent, "api.listen").
			Str("addr", ln.Addr().String()).
			Msg("serving HTTP API")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Str(xglog.FieldEvent, "api.shutdown").Msg("shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
