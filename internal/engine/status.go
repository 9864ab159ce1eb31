package engine

import (
	"time"

	"github.com/goodtune/kquota/internal/quota"
)

// Status is a point-in-time view of the engine for the control API.
type Status struct {
	DailyLimitSeconds          uint32       `json:"daily_limit_seconds"`
	RemainingSeconds           uint32       `json:"remaining_seconds"`
	UsedTodaySeconds           uint32       `json:"used_today_seconds"`
	ResetIntervalSeconds       uint32       `json:"reset_interval_seconds"`
	BonusRefillIntervalSeconds uint32       `json:"bonus_refill_interval_seconds"`
	FirstChoiceMade            bool         `json:"first_choice_made"`
	LastResetAt                *time.Time   `json:"last_reset_at,omitempty"`
	NextResetAt                *time.Time   `json:"next_reset_at,omitempty"`
	DailyExhaustedAt           *time.Time   `json:"daily_exhausted_at,omitempty"`
	LastBonusGrantedAt         *time.Time   `json:"last_bonus_granted_at,omitempty"`
	Bonus                      *BonusStatus `json:"bonus,omitempty"`
	BlockedApps                []string     `json:"blocked_apps"`
	BlockedDomains             []string     `json:"blocked_domains"`
	Foreground                 string       `json:"foreground,omitempty"`
	Tracked                    string       `json:"tracked,omitempty"`
	Session                    *SessionInfo `json:"session,omitempty"`
	ScreenOn                   bool         `json:"screen_on"`
	PendingWrite               bool         `json:"pending_write"`
	Message                    string       `json:"message"`
}

// BonusStatus is reported once the allowance is used up.
type BonusStatus struct {
	Available           bool   `json:"available"`
	RemainingCooldownMs int64  `json:"remaining_cooldown_ms"`
	Basis               string `json:"basis"`
}

// SessionInfo describes the open session.
type SessionInfo struct {
	Target    string    `json:"target"`
	StartedAt time.Time `json:"started_at"`
}

// Status returns the current engine view. It never writes to the store.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	st := e.state

	out := Status{
		DailyLimitSeconds:          st.DailyLimitSeconds,
		RemainingSeconds:           st.RemainingSeconds,
		UsedTodaySeconds:           st.UsedTodaySeconds,
		ResetIntervalSeconds:       st.ResetIntervalSeconds,
		BonusRefillIntervalSeconds: st.BonusRefillIntervalSeconds,
		FirstChoiceMade:            st.FirstChoiceMade,
		LastResetAt:                timePtr(st.LastResetAt),
		DailyExhaustedAt:           timePtr(st.DailyExhaustedAt),
		LastBonusGrantedAt:         timePtr(st.LastBonusGrantedAt),
		BlockedApps:                e.policy.Apps(),
		BlockedDomains:             e.policy.Domains(),
		Foreground:                 e.current.String(),
		Tracked:                    e.tracked.String(),
		ScreenOn:                   e.screenOn,
		PendingWrite:               e.dirty,
		Message:                    StatusLine(e.policy, st),
	}

	if !st.LastResetAt.IsZero() {
		out.NextResetAt = timePtr(st.LastResetAt.Add(st.ResetInterval()))
	}
	if st.HasQuota() && st.RemainingSeconds == 0 {
		avail, _ := quota.BonusAvailable(st, now)
		out.Bonus = &BonusStatus{
			Available:           avail.Available,
			RemainingCooldownMs: avail.RemainingCooldownMs(),
			Basis:               avail.Basis.String(),
		}
	}
	if e.session.IsOpen() {
		out.Session = &SessionInfo{Target: e.session.Target, StartedAt: e.session.StartedAt}
	}
	if out.BlockedApps == nil {
		out.BlockedApps = []string{}
	}
	if out.BlockedDomains == nil {
		out.BlockedDomains = []string{}
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
