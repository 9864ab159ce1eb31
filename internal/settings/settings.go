// Package settings maps policy configuration and quota state onto flat,
// namespaced keys in a storage.Store.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/kquota/internal/policy"
	"github.com/goodtune/kquota/internal/quota"
	"github.com/goodtune/kquota/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultNamespace prefixes every key when none is configured.
const DefaultNamespace = "kquota"

// Persisted field names.
const (
	KeyDailyLimitSeconds          = "daily_limit_seconds"
	KeyRemainingSeconds           = "remaining_seconds"
	KeyUsedTodaySeconds           = "used_today_seconds"
	KeyLastResetAt                = "timer_last_reset"
	KeyResetIntervalSeconds       = "reset_interval_seconds"
	KeyDailyExhaustedAt           = "daily_time_ran_out_timestamp"
	KeyLastBonusGrantedAt         = "last_bonus_time"
	KeyBonusRefillIntervalSeconds = "bonus_refill_interval_seconds"
	KeyFirstChoiceMade            = "timer_first_choice_made"
	KeyBlockedApps                = "blocked_apps"
	KeyBlockedDomains             = "blocked_domains"
)

var allKeys = []string{
	KeyDailyLimitSeconds,
	KeyRemainingSeconds,
	KeyUsedTodaySeconds,
	KeyLastResetAt,
	KeyResetIntervalSeconds,
	KeyDailyExhaustedAt,
	KeyLastBonusGrantedAt,
	KeyBonusRefillIntervalSeconds,
	KeyFirstChoiceMade,
	KeyBlockedApps,
	KeyBlockedDomains,
}

// Snapshot is one consistent read of everything the engine needs.
type Snapshot struct {
	Policy policy.BlockPolicy
	State  quota.State
}

// Settings reads and writes typed fields through a storage.Store.
type Settings struct {
	store     storage.Store
	namespace string
	logger    zerolog.Logger
}

// New wraps store. An empty namespace leaves keys unprefixed.
func New(store storage.Store, namespace string, logger zerolog.Logger) *Settings {
	return &Settings{
		store:     store,
		namespace: namespace,
		logger:    logger.With().Str("component", "settings").Logger(),
	}
}

// Key returns the namespaced store key for a field.
func (s *Settings) Key(field string) string {
	if s.namespace == "" {
		return field
	}
	return s.namespace + "." + field
}

// Load reads policy and quota state in one store round trip. Invalid values
// fall back to defaults and corrupt state is clamped; both are logged, never
// returned as errors. Only a failed read is an error.
func (s *Settings) Load(ctx context.Context) (Snapshot, error) {
	keys := make([]string, len(allKeys))
	for i, field := range allKeys {
		keys[i] = s.Key(field)
	}

	raw, err := s.store.GetMany(ctx, keys)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read settings: %w", err)
	}
	r := reader{s: s, raw: raw}

	st := quota.DefaultState()
	st.DailyLimitSeconds = r.seconds(KeyDailyLimitSeconds, 0)
	st.RemainingSeconds = r.seconds(KeyRemainingSeconds, st.DailyLimitSeconds)
	st.UsedTodaySeconds = r.seconds(KeyUsedTodaySeconds, 0)
	st.LastResetAt = r.timestamp(KeyLastResetAt)
	st.ResetIntervalSeconds = r.seconds(KeyResetIntervalSeconds, quota.DefaultResetIntervalSeconds)
	st.DailyExhaustedAt = r.timestamp(KeyDailyExhaustedAt)
	st.LastBonusGrantedAt = r.timestamp(KeyLastBonusGrantedAt)
	st.BonusRefillIntervalSeconds = r.seconds(KeyBonusRefillIntervalSeconds, quota.DefaultBonusRefillIntervalSeconds)
	st.FirstChoiceMade = r.flag(KeyFirstChoiceMade)

	st, fixes := st.Normalize()
	for _, fix := range fixes {
		s.logger.Warn().Str("fix", fix).Msg("Clamped corrupt quota state")
	}

	apps := r.list(KeyBlockedApps)
	domains := r.list(KeyBlockedDomains)

	return Snapshot{
		Policy: policy.NewBlockPolicy(apps, domains, st.DailyLimitSeconds),
		State:  st,
	}, nil
}

// SaveState writes the engine-owned quota fields as one atomic batch.
// Configuration fields (limit and intervals) are left untouched so a
// concurrent configuration write is never overwritten. State saved with no
// daily limit drops remaining_seconds.
func (s *Settings) SaveState(ctx context.Context, st quota.State) error {
	batch := storage.NewBatch()
	if st.HasQuota() {
		batch.Put(s.Key(KeyRemainingSeconds), formatUint(st.RemainingSeconds))
	} else {
		// Without a limit the allowance is undefined; the next limit loads as
		// a full allowance.
		batch.Remove(s.Key(KeyRemainingSeconds))
	}
	batch.Put(s.Key(KeyUsedTodaySeconds), formatUint(st.UsedTodaySeconds))
	batch.Put(s.Key(KeyFirstChoiceMade), strconv.FormatBool(st.FirstChoiceMade))
	s.putTimestamp(&batch, KeyLastResetAt, st.LastResetAt)
	s.putTimestamp(&batch, KeyDailyExhaustedAt, st.DailyExhaustedAt)
	s.putTimestamp(&batch, KeyLastBonusGrantedAt, st.LastBonusGrantedAt)

	if err := s.store.Apply(ctx, batch); err != nil {
		return fmt.Errorf("failed to save quota state: %w", err)
	}
	return nil
}

// SetBlockedApps replaces the blocked application set.
func (s *Settings) SetBlockedApps(ctx context.Context, apps []string) error {
	return s.setList(ctx, KeyBlockedApps, policy.NormalizeApps(apps))
}

// SetBlockedDomains replaces the blocked domain set.
func (s *Settings) SetBlockedDomains(ctx context.Context, domains []string) error {
	return s.setList(ctx, KeyBlockedDomains, policy.NormalizeDomains(domains))
}

// SetDailyLimit stores the daily limit in seconds. The engine reconciles the
// remaining allowance on its next tick.
func (s *Settings) SetDailyLimit(ctx context.Context, seconds uint32) error {
	return s.setUint(ctx, KeyDailyLimitSeconds, seconds)
}

// SetResetInterval stores the epoch length in seconds.
func (s *Settings) SetResetInterval(ctx context.Context, seconds uint32) error {
	return s.setUint(ctx, KeyResetIntervalSeconds, seconds)
}

// SetBonusInterval stores the bonus cooldown in seconds.
func (s *Settings) SetBonusInterval(ctx context.Context, seconds uint32) error {
	return s.setUint(ctx, KeyBonusRefillIntervalSeconds, seconds)
}

func (s *Settings) setUint(ctx context.Context, field string, v uint32) error {
	if err := s.store.Set(ctx, s.Key(field), formatUint(v)); err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	return nil
}

func (s *Settings) setList(ctx context.Context, field string, items []string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", field, err)
	}
	if err := s.store.Set(ctx, s.Key(field), string(data)); err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	return nil
}

func (s *Settings) putTimestamp(b *storage.Batch, field string, t time.Time) {
	if t.IsZero() {
		b.Remove(s.Key(field))
		return
	}
	b.Put(s.Key(field), strconv.FormatInt(t.UnixMilli(), 10))
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
