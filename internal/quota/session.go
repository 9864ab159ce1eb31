package quota

import "time"

// Session is the in-memory accrual window for the tracked target.
type Session struct {
	Target          string
	StartedAt       time.Time
	LastAccountedAt time.Time
}

// OpenSession starts accounting for target at now.
func OpenSession(target string, now time.Time) Session {
	return Session{Target: target, StartedAt: now, LastAccountedAt: now}
}

// IsOpen reports whether the session is accounting time.
func (s Session) IsOpen() bool {
	return !s.StartedAt.IsZero()
}

// Accrual reports what one accrual step deducted.
type Accrual struct {
	Seconds   uint32
	Exhausted bool // remaining crossed from >0 to 0 in this step
}

// Accrue deducts time on save-interval boundaries. Only whole seconds are
// charged and LastAccountedAt advances by exactly that amount, so fractions
// carry over to the next boundary.
func Accrue(sess Session, s State, now time.Time, saveInterval time.Duration) (State, Session, Accrual) {
	if !sess.IsOpen() || now.Sub(sess.LastAccountedAt) < saveInterval {
		return s, sess, Accrual{}
	}
	return charge(sess, s, now)
}

// Flush charges all whole seconds since the last accounting regardless of the
// save interval. Used when a session closes or pauses.
func Flush(sess Session, s State, now time.Time) (State, Session, Accrual) {
	if !sess.IsOpen() {
		return s, sess, Accrual{}
	}
	return charge(sess, s, now)
}

func charge(sess Session, s State, now time.Time) (State, Session, Accrual) {
	elapsed := now.Sub(sess.LastAccountedAt)
	if elapsed < time.Second {
		return s, sess, Accrual{}
	}

	whole := elapsed / time.Second
	seconds := uint32(whole)
	if whole > time.Duration(^uint32(0)) {
		seconds = ^uint32(0)
	}

	before := s.RemainingSeconds
	if seconds >= s.RemainingSeconds {
		s.RemainingSeconds = 0
	} else {
		s.RemainingSeconds -= seconds
	}
	s.UsedTodaySeconds = addCapped(s.UsedTodaySeconds, seconds, ^uint32(0))
	sess.LastAccountedAt = sess.LastAccountedAt.Add(whole * time.Second)

	acc := Accrual{Seconds: seconds}
	if before > 0 && s.RemainingSeconds == 0 {
		s.DailyExhaustedAt = now
		acc.Exhausted = true
	}
	return s, sess, acc
}
