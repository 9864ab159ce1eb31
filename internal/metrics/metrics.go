package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Quota state
	RemainingSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kquota_remaining_seconds",
			Help: "Seconds of quota left in the current epoch",
		},
	)

	UsedTodaySeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kquota_used_today_seconds",
			Help: "Seconds of quota consumed in the current epoch",
		},
	)

	DailyLimitSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kquota_daily_limit_seconds",
			Help: "Configured daily limit in seconds (0 = plain blocking)",
		},
	)

	BlockedTargets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kquota_blocked_targets",
			Help: "Number of configured blocked targets",
		},
		[]string{"kind"},
	)

	SessionOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kquota_session_open",
			Help: "1 while a quota session is accruing time",
		},
	)

	// Engine activity
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kquota_actions_total",
			Help: "Total actions emitted to the executor",
		},
		[]string{"action"},
	)

	ForegroundTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kquota_foreground_transitions_total",
			Help: "Foreground transitions classified by the engine",
		},
		[]string{"kind"},
	)

	AccruedSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kquota_accrued_seconds_total",
			Help: "Total seconds deducted from quota",
		},
	)

	ResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kquota_resets_total",
			Help: "Quota epoch resets applied",
		},
	)

	BonusesGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kquota_bonuses_granted_total",
			Help: "Bonus grants",
		},
	)

	BonusSecondsGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kquota_bonus_seconds_granted_total",
			Help: "Total seconds credited by bonus grants",
		},
	)

	// Persistence
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kquota_store_errors_total",
			Help: "Settings store failures",
		},
		[]string{"op"},
	)

	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kquota_tick_duration_seconds",
			Help:    "Time spent processing one engine tick",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		RemainingSeconds,
		UsedTodaySeconds,
		DailyLimitSeconds,
		BlockedTargets,
		SessionOpen,
		ActionsTotal,
		ForegroundTransitions,
		AccruedSeconds,
		ResetsTotal,
		BonusesGranted,
		BonusSecondsGranted,
		StoreErrors,
		TickDuration,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler exposes the server's routes, for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
