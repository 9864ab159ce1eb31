package quota

import "time"

// ResetOutcome describes what MaybeReset did.
type ResetOutcome int

const (
	ResetNone ResetOutcome = iota
	ResetEpochStarted
	ResetApplied
)

func (o ResetOutcome) String() string {
	switch o {
	case ResetEpochStarted:
		return "epoch_started"
	case ResetApplied:
		return "reset"
	default:
		return "none"
	}
}

// ResetDue reports whether the current epoch has run its full length. It
// never starts an epoch.
func ResetDue(s State, now time.Time) bool {
	if !s.HasQuota() || s.LastResetAt.IsZero() {
		return false
	}
	return now.Sub(s.LastResetAt) >= s.ResetInterval()
}

// MaybeReset starts the epoch clock on first qualifying usage and applies a
// reset once the epoch has elapsed. It is a no-op without a daily limit.
func MaybeReset(s State, now time.Time) (State, ResetOutcome) {
	if !s.HasQuota() {
		return s, ResetNone
	}
	if s.LastResetAt.IsZero() {
		s.LastResetAt = now
		return s, ResetEpochStarted
	}
	if now.Sub(s.LastResetAt) >= s.ResetInterval() {
		return Reset(s), ResetApplied
	}
	return s, ResetNone
}

// Reset refills the allowance and clears the epoch. LastBonusGrantedAt is
// kept: the bonus cooldown runs on its own clock across epochs.
func Reset(s State) State {
	s.RemainingSeconds = s.DailyLimitSeconds
	s.UsedTodaySeconds = 0
	s.LastResetAt = time.Time{}
	s.DailyExhaustedAt = time.Time{}
	s.FirstChoiceMade = false
	return s
}
