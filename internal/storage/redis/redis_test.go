package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/kquota/internal/config"
	"github.com/goodtune/kquota/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	// miniredis.Addr() returns "host:port", so Port stays zero
	cfg := config.RedisConfig{
		Host:         mr.Addr(),
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func TestOpenInvalidTimeout(t *testing.T) {
	_, err := Open(config.RedisConfig{Host: "localhost", DialTimeout: "soon"})
	if err == nil {
		t.Fatal("expected error for invalid dial_timeout")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Get(context.Background(), "kquota.remaining_seconds")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetUsesHash(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Set(context.Background(), "kquota.daily_limit_seconds", "1800"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if got := mr.HGet(DefaultHashKey, "kquota.daily_limit_seconds"); got != "1800" {
		t.Errorf("Expected hash field 1800, got %q", got)
	}

	value, err := store.Get(context.Background(), "kquota.daily_limit_seconds")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "1800" {
		t.Errorf("Expected 1800, got %q", value)
	}
}

func TestStore_ApplyAndGetMany(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	mr.HSet(DefaultHashKey, "kquota.daily_time_ran_out_timestamp", "1700000000000")

	batch := storage.NewBatch()
	batch.Put("kquota.remaining_seconds", "300")
	batch.Put("kquota.last_bonus_time", "1700000360000")
	batch.Remove("kquota.daily_time_ran_out_timestamp")

	if err := store.Apply(ctx, batch); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	values, err := store.GetMany(ctx, []string{
		"kquota.remaining_seconds",
		"kquota.last_bonus_time",
		"kquota.daily_time_ran_out_timestamp",
		"kquota.never_written",
	})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}

	if len(values) != 2 {
		t.Fatalf("Expected 2 values, got %v", values)
	}
	if values["kquota.remaining_seconds"] != "300" {
		t.Errorf("Expected remaining 300, got %q", values["kquota.remaining_seconds"])
	}
	if values["kquota.last_bonus_time"] != "1700000360000" {
		t.Errorf("Expected bonus time, got %q", values["kquota.last_bonus_time"])
	}
}

func TestStore_ApplyEmptyBatch(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Apply(context.Background(), storage.Batch{}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if mr.Exists(DefaultHashKey) {
		t.Error("Expected no hash to be created for an empty batch")
	}
}

func TestStore_ConnectionLost(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	mr.Close()

	if err := store.Set(context.Background(), "k", "v"); err == nil {
		t.Fatal("Expected error after Redis went away")
	}
}
