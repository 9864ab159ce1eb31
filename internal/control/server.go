// Package control serves the local HTTP API used by the kquota CLI and by
// platform integrations: policy edits, bonus and choice requests, pushed
// detector events and status queries.
package control

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/kquota/internal/detector"
	"github.com/goodtune/kquota/internal/engine"
	"github.com/goodtune/kquota/internal/executor"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Engine is the part of the decision engine the API drives.
type Engine interface {
	Status() engine.Status
	GrantBonus(ctx context.Context) (uint32, error)
	Choose(ctx context.Context) (uint32, error)
}

// PolicyStore persists policy and quota configuration.
type PolicyStore interface {
	SetBlockedApps(ctx context.Context, apps []string) error
	SetBlockedDomains(ctx context.Context, domains []string) error
	SetDailyLimit(ctx context.Context, seconds uint32) error
	SetResetInterval(ctx context.Context, seconds uint32) error
	SetBonusInterval(ctx context.Context, seconds uint32) error
}

// EventSink accepts pushed detector events.
type EventSink interface {
	Publish(ctx context.Context, ev detector.Event) error
}

// Server is the control API server.
type Server struct {
	engine   Engine
	policy   PolicyStore
	events   EventSink
	recorder *executor.Recorder
	router   *mux.Router
	server   *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer creates a control server. recorder may be nil, in which case the
// action history is empty.
func NewServer(addr string, eng Engine, policy PolicyStore, events EventSink, recorder *executor.Recorder, logger zerolog.Logger) *Server {
	s := &Server{
		engine:   eng,
		policy:   policy,
		events:   events,
		recorder: recorder,
		router:   mux.NewRouter(),
		logger:   logger.With().Str("component", "control").Logger(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/actions", s.handleActions).Methods("GET")

	api.HandleFunc("/policy/apps", s.handleSetApps).Methods("PUT")
	api.HandleFunc("/policy/domains", s.handleSetDomains).Methods("PUT")
	api.HandleFunc("/policy/limit", s.secondsHandler("daily limit", 0, s.policy.SetDailyLimit)).Methods("PUT")
	api.HandleFunc("/policy/reset-interval", s.secondsHandler("reset interval", 1, s.policy.SetResetInterval)).Methods("PUT")
	api.HandleFunc("/policy/bonus-interval", s.secondsHandler("bonus interval", 0, s.policy.SetBonusInterval)).Methods("PUT")

	api.HandleFunc("/bonus", s.handleBonus).Methods("POST")
	api.HandleFunc("/choice", s.handleChoice).Methods("POST")

	api.HandleFunc("/events/{kind}", s.handleEvent).Methods("POST")
}

// Handler exposes the routes, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start serves in the background.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting control server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated control listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Control server error")
		}
	}()
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping control server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("control server shutdown: %w", err)
	}
	return nil
}
