package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/kquota/internal/config"
	"github.com/goodtune/kquota/internal/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultHashKey is the Redis hash holding every setting when none is configured.
const DefaultHashKey = "kquota:settings"

// Store implements the storage.Store interface on a single Redis hash
type Store struct {
	client *redis.Client
	key    string
	apply  *redis.Script
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Host may already carry the port
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultHashKey
	}

	return &Store{
		client: client,
		key:    key,
		apply:  redis.NewScript(applyBatchScript),
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns a single field of the settings hash
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// GetMany reads several fields with one HMGET
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	raw, err := s.client.HMGet(ctx, s.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	for i, v := range raw {
		if str, ok := v.(string); ok {
			values[keys[i]] = str
		}
	}
	return values, nil
}

// Set writes a single field
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Apply runs the batch as one Lua script so readers never see half of it
func (s *Store) Apply(ctx context.Context, batch storage.Batch) error {
	if batch.Empty() {
		return nil
	}

	args := make([]interface{}, 0, 1+len(batch.Set)*2+len(batch.Delete))
	args = append(args, len(batch.Set))
	for k, v := range batch.Set {
		args = append(args, k, v)
	}
	for _, k := range batch.Delete {
		args = append(args, k)
	}

	if err := s.apply.Run(ctx, s.client, []string{s.key}, args...).Err(); err != nil {
		return fmt.Errorf("failed to apply batch: %w", err)
	}
	return nil
}
