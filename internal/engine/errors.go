package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/kquota/internal/quota"
)

var (
	// ErrNoQuota is returned for quota operations while no daily limit is set.
	ErrNoQuota = errors.New("engine: no daily limit configured")

	// ErrQuotaRemaining is returned when a bonus is requested before the quota ran out.
	ErrQuotaRemaining = errors.New("engine: quota time remains")

	// ErrBonusUnavailable is returned while the bonus cooldown is running.
	ErrBonusUnavailable = errors.New("engine: bonus not available")
)

// CooldownError reports how long until the next bonus.
type CooldownError struct {
	RemainingCooldown time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s until next bonus", ErrBonusUnavailable, e.RemainingCooldown.Round(time.Second))
}

// RemainingCooldownMs rounds up, so a refused bonus never reports zero.
func (e *CooldownError) RemainingCooldownMs() int64 {
	return quota.Availability{RemainingCooldown: e.RemainingCooldown}.RemainingCooldownMs()
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrBonusUnavailable
}
