package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBonusAvailableFromExhaustion(t *testing.T) {
	s := quotaState(60, 0)
	s.DailyExhaustedAt = t0
	s.BonusRefillIntervalSeconds = 3600

	avail, _ := BonusAvailable(s, t0.Add(3599*time.Second))
	assert.False(t, avail.Available)
	assert.Equal(t, int64(1000), avail.RemainingCooldownMs())
	assert.Equal(t, BasisExhaustion, avail.Basis)

	avail, _ = BonusAvailable(s, t0.Add(3600*time.Second))
	assert.True(t, avail.Available)
	assert.Zero(t, avail.RemainingCooldownMs())
}

func TestBonusAvailableFromLastGrant(t *testing.T) {
	s := quotaState(60, 0)
	s.DailyExhaustedAt = t0
	s.LastBonusGrantedAt = t0.Add(30 * time.Minute)
	s.BonusRefillIntervalSeconds = 3600

	avail, _ := BonusAvailable(s, t0.Add(time.Hour))
	assert.False(t, avail.Available)
	assert.Equal(t, BasisLastGrant, avail.Basis)
	assert.Equal(t, 30*time.Minute, avail.RemainingCooldown)

	avail, _ = BonusAvailable(s, t0.Add(90*time.Minute))
	assert.True(t, avail.Available)
}

func TestBonusAvailableStampsExhaustionLazily(t *testing.T) {
	s := quotaState(60, 0)
	s.BonusRefillIntervalSeconds = 60

	avail, got := BonusAvailable(s, t0)
	assert.False(t, avail.Available)
	assert.Equal(t, t0, got.DailyExhaustedAt)
	assert.Equal(t, int64(60000), avail.RemainingCooldownMs())

	// A second call keeps the first stamp.
	_, got = BonusAvailable(got, t0.Add(10*time.Second))
	assert.Equal(t, t0, got.DailyExhaustedAt)
}

func TestBonusAvailableZeroInterval(t *testing.T) {
	s := quotaState(60, 0)
	s.BonusRefillIntervalSeconds = 0

	avail, _ := BonusAvailable(s, t0)
	assert.True(t, avail.Available)
}

func TestRemainingCooldownMsRoundsUp(t *testing.T) {
	a := Availability{RemainingCooldown: 1500 * time.Microsecond}
	assert.Equal(t, int64(2), a.RemainingCooldownMs())
}

func TestGrantBonus(t *testing.T) {
	s := quotaState(600, 0)
	s.DailyExhaustedAt = t0

	got := GrantBonus(s, t0.Add(time.Hour), 300)
	assert.Equal(t, uint32(300), got.RemainingSeconds)
	assert.Equal(t, t0.Add(time.Hour), got.LastBonusGrantedAt)
	assert.True(t, got.DailyExhaustedAt.IsZero())
	assert.True(t, got.FirstChoiceMade)

	capped := GrantBonus(s, t0, 10_000)
	assert.Equal(t, uint32(600), capped.RemainingSeconds)
}
