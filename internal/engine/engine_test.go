package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goodtune/kquota/internal/detector"
	"github.com/goodtune/kquota/internal/executor"
	"github.com/goodtune/kquota/internal/policy"
	"github.com/goodtune/kquota/internal/quota"
	"github.com/goodtune/kquota/internal/settings"
	"github.com/goodtune/kquota/internal/storage"
	"github.com/goodtune/kquota/internal/storage/bolt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	game    = "com.example.game"
	chat    = "com.example.chat"
	browser = "com.example.browser"
	own     = "kquota"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// faultStore fails writes while failing is set.
type faultStore struct {
	storage.Store
	failing atomic.Bool
}

var errWriteFailed = errors.New("write failed")

func (f *faultStore) Apply(ctx context.Context, batch storage.Batch) error {
	if f.failing.Load() {
		return errWriteFailed
	}
	return f.Store.Apply(ctx, batch)
}

type harness struct {
	ctx      context.Context
	clock    *policy.TestClock
	store    *faultStore
	settings *settings.Settings
	rec      *executor.Recorder
	engine   *Engine
}

type fixture struct {
	limit         uint32
	remaining     uint32
	firstChoice   bool
	bonusInterval *uint32
	apps          []string
	domains       []string
}

func newHarness(t *testing.T, f fixture, opts ...Option) *harness {
	t.Helper()
	ctx := context.Background()

	base, err := bolt.Open(filepath.Join(t.TempDir(), "kquota.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })

	store := &faultStore{Store: base}
	s := settings.New(store, settings.DefaultNamespace, zerolog.Nop())

	require.NoError(t, s.SetBlockedApps(ctx, f.apps))
	require.NoError(t, s.SetBlockedDomains(ctx, f.domains))
	require.NoError(t, s.SetDailyLimit(ctx, f.limit))
	if f.bonusInterval != nil {
		require.NoError(t, s.SetBonusInterval(ctx, *f.bonusInterval))
	}
	st := quota.DefaultState()
	st.DailyLimitSeconds = f.limit
	st.RemainingSeconds = f.remaining
	st.FirstChoiceMade = f.firstChoice
	require.NoError(t, s.SaveState(ctx, st))

	clock := policy.NewTestClock(t0)
	rec := executor.NewRecorder(0)

	opts = append([]Option{
		WithClock(clock),
		WithBonusSource(func(min, max uint32) uint32 { return min }),
	}, opts...)

	e, err := New(Config{
		PollInterval: time.Second,
		SaveInterval: time.Second,
		OwnIdentity:  own,
		SafeURL:      "about:blank",
		BonusMin:     5 * time.Minute,
		BonusMax:     15 * time.Minute,
	}, s, rec, zerolog.Nop(), opts...)
	require.NoError(t, err)
	require.NoError(t, e.Start(ctx))

	return &harness{ctx: ctx, clock: clock, store: store, settings: s, rec: rec, engine: e}
}

func (h *harness) tick(t *testing.T, d time.Duration) {
	t.Helper()
	h.clock.Advance(d)
	require.NoError(t, h.engine.Tick(h.ctx))
}

func (h *harness) persisted(t *testing.T) quota.State {
	t.Helper()
	snap, err := h.settings.Load(h.ctx)
	require.NoError(t, err)
	return snap.State
}

func (h *harness) lastAction(t *testing.T) policy.Action {
	t.Helper()
	actions := h.rec.Actions()
	require.NotEmpty(t, actions)
	return actions[len(actions)-1]
}

func seconds(v uint32) *uint32 { return &v }

func TestUnblockedAppIsIgnored(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, chat)
	h.tick(t, 5*time.Second)

	assert.Empty(t, h.rec.Actions())
	assert.Equal(t, uint32(60), h.persisted(t).RemainingSeconds)
}

func TestBlockWithoutQuota(t *testing.T) {
	h := newHarness(t, fixture{apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)

	assert.Equal(t, []policy.Action{policy.ShowBlockScreen(policy.App(game))}, h.rec.Actions())
	assert.False(t, h.engine.session.IsOpen())
}

func TestNegotiationBeforeFirstChoice(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	assert.Equal(t, policy.ShowNegotiationScreen(policy.App(game)), h.lastAction(t))
	assert.False(t, h.engine.session.IsOpen())

	granted, err := h.engine.Choose(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, granted)
	assert.Equal(t, policy.AllowAndTrack(policy.App(game)), h.lastAction(t))
	assert.True(t, h.engine.session.IsOpen())

	st := h.persisted(t)
	assert.True(t, st.FirstChoiceMade)
	assert.Equal(t, t0.UnixMilli(), st.LastResetAt.UnixMilli())
}

func TestExhaustionLeadsToCooldown(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 5, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	require.Equal(t, policy.AllowAndTrack(policy.App(game)), h.lastAction(t))

	for i := 0; i < 5; i++ {
		h.tick(t, time.Second)
	}

	st := h.persisted(t)
	assert.Zero(t, st.RemainingSeconds)
	assert.Equal(t, uint32(5), st.UsedTodaySeconds)
	assert.Equal(t, t0.Add(5*time.Second).UnixMilli(), st.DailyExhaustedAt.UnixMilli())

	assert.Equal(t, policy.ShowCooldownScreen(policy.App(game), 3600000), h.lastAction(t))
	assert.False(t, h.engine.session.IsOpen())
}

func TestExhaustionOffersBonusWhenCooldownElapsed(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 5, firstChoice: true, bonusInterval: seconds(0), apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	for i := 0; i < 5; i++ {
		h.tick(t, time.Second)
	}
	assert.Equal(t, policy.ShowNegotiationScreen(policy.App(game)), h.lastAction(t))

	granted, err := h.engine.Choose(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(60), granted, "bonus is capped at the daily limit")
	assert.Equal(t, policy.AllowAndTrack(policy.App(game)), h.lastAction(t))

	st := h.persisted(t)
	assert.Equal(t, uint32(60), st.RemainingSeconds)
	assert.True(t, st.DailyExhaustedAt.IsZero())
	assert.False(t, st.LastBonusGrantedAt.IsZero())
}

func TestGrantBonusErrors(t *testing.T) {
	h := newHarness(t, fixture{apps: []string{game}})
	_, err := h.engine.GrantBonus(h.ctx)
	assert.ErrorIs(t, err, ErrNoQuota)

	h = newHarness(t, fixture{limit: 60, remaining: 30, apps: []string{game}})
	_, err = h.engine.GrantBonus(h.ctx)
	assert.ErrorIs(t, err, ErrQuotaRemaining)

	h = newHarness(t, fixture{limit: 60, remaining: 0, firstChoice: true, apps: []string{game}})
	_, err = h.engine.GrantBonus(h.ctx)
	require.ErrorIs(t, err, ErrBonusUnavailable)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, time.Hour, cooldown.RemainingCooldown)
	assert.Equal(t, t0.UnixMilli(), h.persisted(t).DailyExhaustedAt.UnixMilli(), "exhaustion is stamped lazily")

	h.clock.Advance(time.Hour)
	granted, err := h.engine.GrantBonus(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(60), granted)
}

func TestTransitionFlushesPreviousTargetFirst(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game, chat}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.clock.Advance(3 * time.Second)
	h.engine.OnForegroundTarget(h.ctx, chat)

	st := h.persisted(t)
	assert.Equal(t, uint32(57), st.RemainingSeconds)
	assert.Equal(t, uint32(3), st.UsedTodaySeconds)
	assert.Equal(t, chat, h.engine.session.Target)
	assert.Equal(t, []policy.Action{
		policy.AllowAndTrack(policy.App(game)),
		policy.AllowAndTrack(policy.App(chat)),
	}, h.rec.Actions())
}

func TestOwnAppClosesSession(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.clock.Advance(2 * time.Second)
	h.engine.OnForegroundTarget(h.ctx, own)

	assert.False(t, h.engine.session.IsOpen())
	assert.True(t, h.engine.tracked.IsZero())
	assert.Equal(t, uint32(58), h.persisted(t).RemainingSeconds)

	h.tick(t, 10*time.Second)
	assert.Equal(t, uint32(58), h.persisted(t).RemainingSeconds)
}

func TestUnblockedAppClosesSession(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.clock.Advance(4 * time.Second)
	h.engine.OnForegroundTarget(h.ctx, chat)
	h.tick(t, 10*time.Second)

	assert.False(t, h.engine.session.IsOpen())
	assert.Equal(t, uint32(56), h.persisted(t).RemainingSeconds)
}

func TestScreenOffPausesAccrual(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.clock.Advance(2 * time.Second)
	h.engine.OnScreenOff(h.ctx)
	assert.Equal(t, uint32(58), h.persisted(t).RemainingSeconds)

	h.tick(t, 10*time.Second)
	assert.Equal(t, uint32(58), h.persisted(t).RemainingSeconds)

	h.engine.OnScreenOn(h.ctx)
	h.tick(t, 3*time.Second)
	assert.Equal(t, uint32(55), h.persisted(t).RemainingSeconds)
	assert.True(t, h.engine.session.IsOpen())
}

func TestUserPresentReevaluates(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.rec.Clear()
	h.engine.OnScreenOff(h.ctx)
	h.engine.OnUserPresent(h.ctx)

	assert.Equal(t, []policy.Action{policy.ShowNegotiationScreen(policy.App(game))}, h.rec.Actions())
	assert.True(t, h.engine.screenOn)
}

func TestResetMidSession(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})
	require.NoError(t, h.settings.SetResetInterval(h.ctx, 10))

	h.engine.OnForegroundTarget(h.ctx, game)
	for i := 0; i < 10; i++ {
		h.tick(t, time.Second)
	}

	st := h.persisted(t)
	assert.Equal(t, uint32(60), st.RemainingSeconds)
	assert.Zero(t, st.UsedTodaySeconds)
	assert.False(t, st.FirstChoiceMade)
	assert.Equal(t, policy.ShowNegotiationScreen(policy.App(game)), h.lastAction(t))
	assert.False(t, h.engine.session.IsOpen())
}

func TestResetAppliedAtStartup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fixture{limit: 60, remaining: 10, firstChoice: true, apps: []string{game}})

	st := h.persisted(t)
	st.LastResetAt = t0.Add(-25 * time.Hour)
	require.NoError(t, h.settings.SaveState(ctx, st))

	require.NoError(t, h.engine.Start(ctx))

	st = h.persisted(t)
	assert.Equal(t, uint32(60), st.RemainingSeconds)
	assert.True(t, st.LastResetAt.IsZero())
}

func TestLimitChangesAreReconciled(t *testing.T) {
	h := newHarness(t, fixture{apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	require.Equal(t, policy.ShowBlockScreen(policy.App(game)), h.lastAction(t))

	require.NoError(t, h.settings.SetDailyLimit(h.ctx, 120))
	h.tick(t, time.Second)
	assert.Equal(t, policy.ShowNegotiationScreen(policy.App(game)), h.lastAction(t))
	assert.Equal(t, uint32(120), h.persisted(t).RemainingSeconds)

	_, err := h.engine.Choose(h.ctx)
	require.NoError(t, err)
	h.tick(t, 20*time.Second)
	require.Equal(t, uint32(100), h.persisted(t).RemainingSeconds)

	require.NoError(t, h.settings.SetDailyLimit(h.ctx, 150))
	h.tick(t, 0)
	assert.Equal(t, uint32(130), h.persisted(t).RemainingSeconds)

	require.NoError(t, h.settings.SetDailyLimit(h.ctx, 50))
	h.tick(t, 0)
	assert.Equal(t, uint32(50), h.persisted(t).RemainingSeconds)

	require.NoError(t, h.settings.SetDailyLimit(h.ctx, 0))
	h.tick(t, 0)
	assert.False(t, h.engine.session.IsOpen())
	assert.Equal(t, policy.ShowBlockScreen(policy.App(game)), h.lastAction(t))
}

func TestLimitSetWhileStoppedStartsFullAllowance(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.tick(t, 10*time.Second)
	require.NoError(t, h.settings.SetDailyLimit(h.ctx, 0))
	h.tick(t, time.Second)
	h.engine.Shutdown(h.ctx)

	require.NoError(t, h.settings.SetDailyLimit(h.ctx, 120))

	rec := executor.NewRecorder(0)
	e, err := New(Config{OwnIdentity: own, SaveInterval: time.Second}, h.settings, rec, zerolog.Nop(), WithClock(h.clock))
	require.NoError(t, err)
	require.NoError(t, e.Start(h.ctx))

	e.OnForegroundTarget(h.ctx, game)
	assert.Equal(t, []policy.Action{policy.ShowNegotiationScreen(policy.App(game))}, rec.Actions())
	assert.Equal(t, uint32(120), e.state.RemainingSeconds)
}

func TestPolicyChangeReevaluatesCurrent(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, chat)
	assert.Empty(t, h.rec.Actions())

	require.NoError(t, h.settings.SetBlockedApps(h.ctx, []string{game, chat}))
	h.tick(t, time.Second)

	assert.Equal(t, policy.AllowAndTrack(policy.App(chat)), h.lastAction(t))
	assert.True(t, h.engine.session.IsOpen())
}

func TestBlockedDomainRedirectsBrowser(t *testing.T) {
	h := newHarness(t, fixture{domains: []string{"example.com"}})

	h.engine.OnForegroundTarget(h.ctx, browser)
	h.engine.OnDomainVisited(h.ctx, "https://www.Video.Example.com/watch?v=1", browser)

	target := policy.Domain("video.example.com", browser)
	assert.Equal(t, []policy.Action{
		policy.ShowBlockScreen(target),
		policy.RedirectBrowser("about:blank"),
	}, h.rec.Actions())

	h.rec.Clear()
	h.engine.OnDomainVisited(h.ctx, "video.example.com", browser)
	assert.Len(t, h.rec.Actions(), 2, "a repeat visit is classified again")

	h.rec.Clear()
	h.engine.OnDomainVisited(h.ctx, "golang.org", browser)
	assert.Empty(t, h.rec.Actions())
}

func TestAllowedDomainIsTracked(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, domains: []string{"example.com"}})

	h.engine.OnDomainVisited(h.ctx, "example.com", browser)
	assert.Equal(t, policy.AllowAndTrack(policy.Domain("example.com", browser)), h.lastAction(t))

	h.tick(t, 2*time.Second)
	h.engine.OnDomainVisited(h.ctx, "golang.org", browser)

	assert.False(t, h.engine.session.IsOpen())
	assert.Equal(t, uint32(58), h.persisted(t).RemainingSeconds)
}

func TestFailedWriteIsRetried(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.store.failing.Store(true)
	h.tick(t, 3*time.Second)

	assert.True(t, h.engine.dirty)
	assert.Equal(t, uint32(57), h.engine.state.RemainingSeconds)

	h.store.failing.Store(false)
	h.tick(t, 0)

	assert.False(t, h.engine.dirty)
	assert.Equal(t, uint32(57), h.persisted(t).RemainingSeconds)
}

type scriptedProbe struct{ id string }

func (p *scriptedProbe) Foreground(ctx context.Context, candidates []string) (string, error) {
	return p.id, nil
}

func TestTickPollsForeground(t *testing.T) {
	probe := &scriptedProbe{}
	poller := detector.NewPoller(probe, zerolog.Nop())
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}}, WithPoller(poller))

	probe.id = game
	h.tick(t, time.Second)
	assert.Equal(t, policy.AllowAndTrack(policy.App(game)), h.lastAction(t))

	h.tick(t, 2*time.Second)
	probe.id = ""
	h.tick(t, time.Second)

	assert.False(t, h.engine.session.IsOpen())
	assert.Equal(t, uint32(57), h.persisted(t).RemainingSeconds)
}

func TestPolledBrowserKeepsWebsiteSession(t *testing.T) {
	probe := &scriptedProbe{}
	poller := detector.NewPoller(probe, zerolog.Nop())
	h := newHarness(t, fixture{
		limit:       60,
		remaining:   60,
		firstChoice: true,
		apps:        []string{game},
		domains:     []string{"example.com"},
	}, WithPoller(poller))

	h.engine.OnDomainVisited(h.ctx, "example.com", browser)
	require.Equal(t, policy.AllowAndTrack(policy.Domain("example.com", browser)), h.lastAction(t))

	for i := 0; i < 30; i++ {
		h.tick(t, time.Second)
	}
	assert.True(t, h.engine.session.IsOpen())
	assert.Equal(t, uint32(30), h.persisted(t).RemainingSeconds)

	probe.id = game
	h.tick(t, time.Second)
	assert.Equal(t, policy.AllowAndTrack(policy.App(game)), h.lastAction(t))
	assert.Equal(t, game, h.engine.session.Target)
	assert.Equal(t, uint32(29), h.persisted(t).RemainingSeconds)
}

func TestShutdownFlushesSession(t *testing.T) {
	h := newHarness(t, fixture{limit: 60, remaining: 60, firstChoice: true, apps: []string{game}})

	h.engine.OnForegroundTarget(h.ctx, game)
	h.clock.Advance(1500 * time.Millisecond)
	h.engine.Shutdown(h.ctx)

	assert.Equal(t, uint32(59), h.persisted(t).RemainingSeconds)
	assert.False(t, h.engine.session.IsOpen())
}

func TestStatusLine(t *testing.T) {
	p := policy.NewBlockPolicy([]string{game, chat}, nil, 600)
	st := quota.State{DailyLimitSeconds: 600, RemainingSeconds: 125}
	assert.Equal(t, "Monitoring 2 apps | 2:05 left", StatusLine(p, st))

	assert.Equal(t, "Monitoring 2 blocked apps", StatusLine(p, quota.State{}))

	h := newHarness(t, fixture{limit: 60, remaining: 60, apps: []string{game}})
	h.tick(t, time.Second)
	assert.Equal(t, "Monitoring 1 apps | 1:00 left", h.rec.Status())
}

func TestClassify(t *testing.T) {
	a, b := policy.App(game), policy.App(chat)

	assert.Nil(t, Classify(a, a, own, true))
	assert.Equal(t, []Transition{{TargetExited, a}, {TargetEntered, b}}, Classify(a, b, own, true))
	assert.Equal(t, []Transition{{TargetEntered, b}}, Classify(a, b, own, false))
	assert.Equal(t, []Transition{{TargetExited, a}}, Classify(a, policy.App(own), own, true))
	assert.Equal(t, []Transition{{TargetExited, a}}, Classify(a, policy.Target{}, own, true))
	assert.Equal(t, []Transition{{TargetEntered, a}}, Classify(policy.Target{}, a, own, false))

	d := policy.Domain(game, browser)
	assert.Len(t, Classify(a, d, own, false), 1, "a domain is distinct from an app with the same name")
}

func TestRandomSecondsWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := randomSeconds(300, 900)
		assert.GreaterOrEqual(t, v, uint32(300))
		assert.LessOrEqual(t, v, uint32(900))
	}
	assert.Equal(t, uint32(42), randomSeconds(42, 42))
	assert.Equal(t, uint32(42), randomSeconds(42, 7))
}
