package quota

import "time"

// Basis names the clock a bonus cooldown was measured against.
type Basis int

const (
	// BasisExhaustion measures from DailyExhaustedAt; used before any bonus was granted.
	BasisExhaustion Basis = iota
	// BasisLastGrant measures from LastBonusGrantedAt.
	BasisLastGrant
)

func (b Basis) String() string {
	if b == BasisLastGrant {
		return "last_grant"
	}
	return "exhaustion"
}

// Availability is the result of a bonus check.
type Availability struct {
	Available         bool
	RemainingCooldown time.Duration
	Basis             Basis
}

// RemainingCooldownMs returns the cooldown in milliseconds, rounded up so an
// unavailable bonus never reports zero.
func (a Availability) RemainingCooldownMs() int64 {
	if a.RemainingCooldown <= 0 {
		return 0
	}
	return int64((a.RemainingCooldown + time.Millisecond - 1) / time.Millisecond)
}

// BonusAvailable checks the bonus cooldown. When no bonus has been granted
// and DailyExhaustedAt is unset it is stamped with now, which is why the
// possibly updated state is returned.
func BonusAvailable(s State, now time.Time) (Availability, State) {
	var since time.Time
	basis := BasisExhaustion

	if s.LastBonusGrantedAt.IsZero() {
		if s.DailyExhaustedAt.IsZero() {
			s.DailyExhaustedAt = now
		}
		since = s.DailyExhaustedAt
	} else {
		since = s.LastBonusGrantedAt
		basis = BasisLastGrant
	}

	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}

	interval := s.BonusRefillInterval()
	if elapsed >= interval {
		return Availability{Available: true, Basis: basis}, s
	}
	return Availability{RemainingCooldown: interval - elapsed, Basis: basis}, s
}

// GrantBonus credits amount seconds, capped at the daily limit, and restarts
// the bonus cooldown at now.
func GrantBonus(s State, now time.Time, amount uint32) State {
	s.LastBonusGrantedAt = now
	s.RemainingSeconds = addCapped(s.RemainingSeconds, amount, s.DailyLimitSeconds)
	if s.RemainingSeconds > 0 {
		s.DailyExhaustedAt = time.Time{}
	}
	s.FirstChoiceMade = true
	return s
}

func addCapped(a, b, limit uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum > uint64(limit) {
		return limit
	}
	return uint32(sum)
}
