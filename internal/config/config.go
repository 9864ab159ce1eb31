package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Detector DetectorConfig `mapstructure:"detector"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Control  ControlConfig  `mapstructure:"control"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig defines the decision engine's timing and identity
type EngineConfig struct {
	PollInterval string `mapstructure:"poll_interval"`
	SaveInterval string `mapstructure:"save_interval"`
	OwnIdentity  string `mapstructure:"own_identity"` // foreground id of kquota's own UI, never blocked
	SafeURL      string `mapstructure:"safe_url"`     // where browsers are sent away from blocked sites
	BonusMin     string `mapstructure:"bonus_min"`
	BonusMax     string `mapstructure:"bonus_max"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type      string      `mapstructure:"type"` // "bolt" or "redis"
	Path      string      `mapstructure:"path"`
	Namespace string      `mapstructure:"namespace"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	Key          string `mapstructure:"key"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// DetectorConfig selects where foreground targets come from
type DetectorConfig struct {
	Source  string `mapstructure:"source"` // "process" or "push"
	BusSize int    `mapstructure:"bus_size"`
}

// ExecutorConfig defines what happens to emitted actions
type ExecutorConfig struct {
	TerminateBlocked bool `mapstructure:"terminate_blocked"` // kill refused processes
	HistorySize      int  `mapstructure:"history_size"`
}

// ControlConfig defines the local control API
type ControlConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
	URL         string `mapstructure:"url"` // used by CLI subcommands
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("KQUOTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Defaults returns the configuration produced by defaults alone
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.poll_interval", "1s")
	v.SetDefault("engine.save_interval", "5s")
	v.SetDefault("engine.own_identity", "kquota")
	v.SetDefault("engine.safe_url", "about:blank")
	v.SetDefault("engine.bonus_min", "5m")
	v.SetDefault("engine.bonus_max", "15m")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/kquota/kquota.bolt")
	v.SetDefault("storage.namespace", "kquota")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key", "kquota:settings")
	v.SetDefault("storage.redis.pool_size", 4)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Detector defaults
	v.SetDefault("detector.source", "process")
	v.SetDefault("detector.bus_size", 64)

	// Executor defaults
	v.SetDefault("executor.terminate_blocked", false)
	v.SetDefault("executor.history_size", 100)

	// Control API defaults
	v.SetDefault("control.enabled", true)
	v.SetDefault("control.bind_address", "127.0.0.1")
	v.SetDefault("control.port", 8787)
	v.SetDefault("control.url", "http://127.0.0.1:8787")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.bind_address", "127.0.0.1")
	v.SetDefault("metrics.port", 9090)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(cfg *Config) error {
	poll, err := time.ParseDuration(cfg.Engine.PollInterval)
	if err != nil || poll <= 0 {
		return fmt.Errorf("invalid engine.poll_interval: %q", cfg.Engine.PollInterval)
	}
	save, err := time.ParseDuration(cfg.Engine.SaveInterval)
	if err != nil || save < 0 {
		return fmt.Errorf("invalid engine.save_interval: %q", cfg.Engine.SaveInterval)
	}

	bonusMin, err := time.ParseDuration(cfg.Engine.BonusMin)
	if err != nil || bonusMin < 0 {
		return fmt.Errorf("invalid engine.bonus_min: %q", cfg.Engine.BonusMin)
	}
	bonusMax, err := time.ParseDuration(cfg.Engine.BonusMax)
	if err != nil || bonusMax < bonusMin {
		return fmt.Errorf("invalid engine.bonus_max: %q (must be >= bonus_min)", cfg.Engine.BonusMax)
	}

	switch cfg.Storage.Type {
	case "":
		cfg.Storage.Type = "bolt"
	case "bolt", "redis":
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "bolt" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	switch cfg.Detector.Source {
	case "process", "push":
	default:
		return fmt.Errorf("unsupported detector source: %s", cfg.Detector.Source)
	}
	if cfg.Detector.BusSize < 0 {
		return fmt.Errorf("invalid detector.bus_size: %d", cfg.Detector.BusSize)
	}
	if cfg.Executor.HistorySize < 0 {
		return fmt.Errorf("invalid executor.history_size: %d", cfg.Executor.HistorySize)
	}

	if cfg.Control.Enabled && (cfg.Control.Port <= 0 || cfg.Control.Port > 65535) {
		return fmt.Errorf("invalid control port: %d", cfg.Control.Port)
	}
	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	return nil
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// SetConfigFile surfaces a missing explicit path as an fs error
	return errors.Is(err, fs.ErrNotExist)
}

// Duration parses a duration string with a fallback
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
