package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/kquota/internal/config"
	"github.com/goodtune/kquota/internal/control"
	"github.com/goodtune/kquota/internal/detector"
	"github.com/goodtune/kquota/internal/engine"
	"github.com/goodtune/kquota/internal/executor"
	"github.com/goodtune/kquota/internal/metrics"
	"github.com/goodtune/kquota/internal/settings"
	"github.com/goodtune/kquota/internal/storage"
	"github.com/goodtune/kquota/internal/storage/bolt"
	"github.com/goodtune/kquota/internal/storage/redis"
	"github.com/goodtune/kquota/internal/systemd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the kquota daemon",
	Long:  `Start the quota engine with its foreground detector, control API and metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting kquota")

	sdListeners, err := systemd.GetListeners()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get systemd listeners")
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("namespace", cfg.Storage.Namespace).
		Msg("Storage initialized")

	st := settings.New(store, cfg.Storage.Namespace, logger)

	// Actions fan out to the log, the in-memory history and, optionally,
	// the process terminator.
	recorder := executor.NewRecorder(cfg.Executor.HistorySize)
	executors := executor.Multi{executor.NewLogExecutor(logger), recorder}
	if cfg.Executor.TerminateBlocked {
		executors = append(executors, executor.NewTerminator(logger))
		logger.Info().Msg("Blocked applications will be terminated")
	}

	bus := detector.NewBus(cfg.Detector.BusSize)

	var opts []engine.Option
	if cfg.Detector.Source == "process" {
		poller := detector.NewPoller(detector.NewProcessProbe(), logger)
		opts = append(opts, engine.WithPoller(poller))
	}

	eng, err := engine.New(engineConfig(cfg.Engine), st, executors, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	if err := eng.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := eng.Run(ctx, bus.Events()); err != nil {
			logger.Error().Err(err).Msg("Engine stopped with error")
		}
	}()

	logger.Info().
		Str("detector", cfg.Detector.Source).
		Str("poll_interval", cfg.Engine.PollInterval).
		Msg("Engine started")

	var controlServer *control.Server
	if cfg.Control.Enabled {
		controlAddr := fmt.Sprintf("%s:%d", cfg.Control.BindAddress, cfg.Control.Port)
		controlServer = control.NewServer(controlAddr, eng, st, bus, recorder, logger)

		if sdListeners.Activated && sdListeners.Control != nil {
			controlServer.SetListener(sdListeners.Control)
		}
		if err := controlServer.Start(); err != nil {
			return fmt.Errorf("failed to start control server: %w", err)
		}
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Metrics.BindAddress, cfg.Metrics.Port)
		metricsServer = metrics.NewServer(metricsAddr, logger)

		if sdListeners.Activated && sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	logger.Info().Msg("kquota startup complete")

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	watchdog, err := systemd.WatchdogInterval()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read systemd watchdog settings")
	}
	if watchdog > 0 {
		go runWatchdog(ctx, watchdog, logger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan

		if sig == syscall.SIGHUP {
			logger.Info().Msg("SIGHUP received, reloading logging configuration...")
			_ = systemd.NotifyReloading()
			reloadLogging(logger)
			_ = systemd.NotifyReady()
			continue
		}

		logger.Info().Msg("Shutdown signal received, gracefully stopping...")
		break
	}

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if controlServer != nil {
		if err := controlServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping control server")
		}
	}

	cancel()
	<-engineDone
	bus.Close()

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("kquota stopped")
	return nil
}

func engineConfig(cfg config.EngineConfig) engine.Config {
	return engine.Config{
		PollInterval: config.Duration(cfg.PollInterval, engine.DefaultPollInterval),
		SaveInterval: config.Duration(cfg.SaveInterval, engine.DefaultSaveInterval),
		OwnIdentity:  cfg.OwnIdentity,
		SafeURL:      cfg.SafeURL,
		BonusMin:     config.Duration(cfg.BonusMin, engine.DefaultBonusMin),
		BonusMax:     config.Duration(cfg.BonusMax, engine.DefaultBonusMax),
	}
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func runWatchdog(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := systemd.NotifyWatchdog(); err != nil {
				logger.Warn().Err(err).Msg("Failed to send systemd watchdog notification")
			}
		}
	}
}

// reloadLogging re-reads the configuration file and applies its log level.
// Everything else is either re-read by the engine every tick or needs a
// restart.
func reloadLogging(logger zerolog.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reload configuration")
		return
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Logging.Level))
	logger.Info().Str("level", cfg.Logging.Level).Msg("Logging configuration reloaded")
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
