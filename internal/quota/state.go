// Package quota holds the quota arithmetic: epoch resets, bonus cooldowns and
// whole-second time accrual. Every function is pure; callers own persistence.
package quota

import (
	"fmt"
	"time"
)

const (
	// DefaultResetIntervalSeconds is the epoch length used when none is configured.
	DefaultResetIntervalSeconds uint32 = 86400

	// DefaultBonusRefillIntervalSeconds is the bonus cooldown used when none is configured.
	DefaultBonusRefillIntervalSeconds uint32 = 3600
)

// State is the persisted quota state. Zero time values mean "unset".
type State struct {
	DailyLimitSeconds          uint32
	RemainingSeconds           uint32
	UsedTodaySeconds           uint32
	LastResetAt                time.Time
	ResetIntervalSeconds       uint32
	DailyExhaustedAt           time.Time
	LastBonusGrantedAt         time.Time
	BonusRefillIntervalSeconds uint32
	FirstChoiceMade            bool
}

// DefaultState returns the state of a device that has never been configured.
func DefaultState() State {
	return State{
		ResetIntervalSeconds:       DefaultResetIntervalSeconds,
		BonusRefillIntervalSeconds: DefaultBonusRefillIntervalSeconds,
	}
}

// HasQuota reports whether a daily limit is configured.
func (s State) HasQuota() bool {
	return s.DailyLimitSeconds > 0
}

// ResetInterval returns the epoch length.
func (s State) ResetInterval() time.Duration {
	return time.Duration(s.ResetIntervalSeconds) * time.Second
}

// BonusRefillInterval returns the bonus cooldown.
func (s State) BonusRefillInterval() time.Duration {
	return time.Duration(s.BonusRefillIntervalSeconds) * time.Second
}

// Normalize repairs values that break the state invariants and describes
// each repair so the caller can log it.
func (s State) Normalize() (State, []string) {
	var fixes []string

	if s.RemainingSeconds > s.DailyLimitSeconds {
		fixes = append(fixes, fmt.Sprintf("remaining %ds exceeds limit %ds", s.RemainingSeconds, s.DailyLimitSeconds))
		s.RemainingSeconds = s.DailyLimitSeconds
	}
	if s.RemainingSeconds > 0 && !s.DailyExhaustedAt.IsZero() {
		fixes = append(fixes, "exhaustion timestamp set while time remains")
		s.DailyExhaustedAt = time.Time{}
	}

	return s, fixes
}
