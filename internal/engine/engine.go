// Package engine is the quota and blocking decision engine. It owns the
// block policy, the persisted quota state and the open session, consumes
// detector events and emits actions to an executor. Every operation runs
// under one mutex so a tick is detect, classify and accrue without
// interleaving.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/goodtune/kquota/internal/detector"
	"github.com/goodtune/kquota/internal/executor"
	"github.com/goodtune/kquota/internal/metrics"
	"github.com/goodtune/kquota/internal/policy"
	"github.com/goodtune/kquota/internal/quota"
	"github.com/goodtune/kquota/internal/settings"
	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval = time.Second
	DefaultSaveInterval = 5 * time.Second
	DefaultSafeURL      = "about:blank"
	DefaultBonusMin     = 5 * time.Minute
	DefaultBonusMax     = 15 * time.Minute
)

// Config holds engine settings that come from the config file rather than
// the settings store.
type Config struct {
	PollInterval time.Duration
	SaveInterval time.Duration
	OwnIdentity  string
	SafeURL      string
	BonusMin     time.Duration
	BonusMax     time.Duration
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c policy.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPoller makes every tick poll for the foreground target.
func WithPoller(p *detector.Poller) Option {
	return func(e *Engine) { e.poller = p }
}

// WithBonusSource replaces the random bonus amount, in seconds, drawn from
// [min, max].
func WithBonusSource(fn func(min, max uint32) uint32) Option {
	return func(e *Engine) { e.bonus = fn }
}

// Engine is the single owner of quota state.
type Engine struct {
	cfg      Config
	settings *settings.Settings
	executor executor.Executor
	poller   *detector.Poller
	clock    policy.Clock
	matcher  *policy.Matcher
	bonus    func(min, max uint32) uint32
	logger   zerolog.Logger

	mu         sync.Mutex
	started    bool
	policy     policy.BlockPolicy
	state      quota.State
	session    quota.Session
	current    policy.Target // effective foreground target
	tracked    policy.Target // blocked target the last decision was about
	lastPolled string
	screenOn   bool
	dirty      bool // in-memory state not yet persisted
	status     string
}

// New creates an engine. Call Start (or Run) before feeding it events.
func New(cfg Config, st *settings.Settings, exec executor.Executor, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.SaveInterval < 0 {
		cfg.SaveInterval = DefaultSaveInterval
	}
	if cfg.SafeURL == "" {
		cfg.SafeURL = DefaultSafeURL
	}
	if cfg.BonusMax < cfg.BonusMin {
		return nil, fmt.Errorf("bonus max %s is below bonus min %s", cfg.BonusMax, cfg.BonusMin)
	}

	matcher, err := policy.NewMatcher(policy.DefaultMatcherCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create domain matcher: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		settings: st,
		executor: exec,
		clock:    policy.RealClock{},
		matcher:  matcher,
		bonus:    randomSeconds,
		logger:   logger.With().Str("component", "engine").Logger(),
		state:    quota.DefaultState(),
		screenOn: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start loads policy and quota state and applies a reset whose deadline
// passed while the engine was not running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start(ctx)
}

func (e *Engine) start(ctx context.Context) error {
	snap, err := e.settings.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read").Inc()
		return fmt.Errorf("failed to load quota state: %w", err)
	}
	e.policy = snap.Policy
	e.state = snap.State
	e.started = true

	now := e.clock.Now()
	if quota.ResetDue(e.state, now) {
		e.applyReset(ctx, now)
	}
	e.publishMetrics()

	e.logger.Info().
		Uint32("daily_limit_seconds", e.state.DailyLimitSeconds).
		Uint32("remaining_seconds", e.state.RemainingSeconds).
		Int("blocked_apps", len(e.policy.Apps())).
		Int("blocked_domains", len(e.policy.Domains())).
		Msg("Quota engine started")
	return nil
}

// Run drives the engine until ctx is cancelled: a ticker for polling and
// accrual, plus pushed events. The open session is flushed on exit.
func (e *Engine) Run(ctx context.Context, events <-chan detector.Event) error {
	e.mu.Lock()
	var err error
	if !e.started {
		err = e.start(ctx)
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.logger.Info().
		Dur("poll_interval", e.cfg.PollInterval).
		Dur("save_interval", e.cfg.SaveInterval).
		Bool("polling", e.poller != nil).
		Msg("Quota engine running")

	for {
		select {
		case <-ctx.Done():
			e.Shutdown(context.Background())
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.Handle(ctx, ev)
		case <-ticker.C:
			_ = e.Tick(ctx)
		}
	}
}

// Shutdown closes the open session and persists accounted time.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeSession(ctx, e.clock.Now())
	if e.dirty {
		e.save(ctx)
	}
	if e.dirty {
		e.logger.Error().Msg("Quota state not persisted at shutdown")
	}
	e.logger.Info().Msg("Quota engine stopped")
}

// Tick re-reads configuration, polls the detector, checks the reset deadline
// and accrues time. A failed store read skips the tick.
func (e *Engine) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		if err := e.start(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("Engine not started, skipping tick")
			return err
		}
	}

	snap, err := e.settings.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read").Inc()
		e.logger.Warn().Err(err).Msg("Settings unreadable, skipping tick")
		return err
	}

	now := e.clock.Now()
	e.refresh(ctx, snap, now)

	if e.poller != nil {
		e.polled(ctx, e.poller.Poll(ctx, e.policy.Apps()), now)
	}

	if quota.ResetDue(e.state, now) {
		e.resetNow(ctx, now)
	}
	e.accrue(ctx, now)

	if e.dirty {
		e.save(ctx)
	}
	e.publishMetrics()
	e.notify(ctx)
	return nil
}

// Handle dispatches a detector event.
func (e *Engine) Handle(ctx context.Context, ev detector.Event) {
	switch ev.Kind {
	case detector.KindForeground:
		e.OnForegroundTarget(ctx, ev.Target)
	case detector.KindDomain:
		e.OnDomainVisited(ctx, ev.Domain, ev.SourceApp)
	case detector.KindScreenOff:
		e.OnScreenOff(ctx)
	case detector.KindScreenOn:
		e.OnScreenOn(ctx)
	case detector.KindUserPresent:
		e.OnUserPresent(ctx)
	default:
		e.logger.Warn().Stringer("kind", ev.Kind).Msg("Ignoring unknown event")
	}
}

// OnForegroundTarget reports the application now in the foreground; "" means
// the engine's own UI or nothing identifiable.
func (e *Engine) OnForegroundTarget(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.foregroundChanged(ctx, id, e.clock.Now())
}

// OnDomainVisited reports a page load in a browser.
func (e *Engine) OnDomainVisited(ctx context.Context, domain, sourceApp string) {
	d := policy.NormalizeDomain(domain)
	if d == "" {
		e.logger.Debug().Str("domain", domain).Msg("Ignoring unparsable domain")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if sourceApp != "" {
		e.lastPolled = sourceApp
	}
	e.transition(ctx, policy.Domain(d, sourceApp), e.clock.Now())
}

// OnScreenOff flushes accounted time and pauses accrual.
func (e *Engine) OnScreenOff(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.screenOn {
		return
	}
	now := e.clock.Now()

	if e.session.IsOpen() {
		var acc quota.Accrual
		e.state, e.session, acc = quota.Flush(e.session, e.state, now)
		e.recordAccrual(acc)
		e.save(ctx)
		if acc.Exhausted {
			e.exhaust(ctx, now)
		}
	}
	e.screenOn = false
	e.logger.Debug().Bool("session_open", e.session.IsOpen()).Msg("Screen off, accrual paused")
}

// OnScreenOn resumes accrual from now; time spent off is never charged.
func (e *Engine) OnScreenOn(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resume(e.clock.Now())
}

// OnUserPresent resumes accrual and re-evaluates the current target as if it
// had just come to the foreground.
func (e *Engine) OnUserPresent(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.resume(now)
	e.redecide(ctx, now)
}

// GrantBonus credits a random bonus once the quota is exhausted and the
// bonus cooldown has passed. It returns the seconds now available.
func (e *Engine) GrantBonus(ctx context.Context) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grantBonus(ctx, e.clock.Now())
}

// Choose records the user's decision to continue from the negotiation
// screen. With time remaining it starts the timed session; with the quota
// exhausted it grants a bonus. It returns the bonus seconds granted, if any.
func (e *Engine) Choose(ctx context.Context) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	if !e.state.HasQuota() {
		return 0, ErrNoQuota
	}
	if e.state.RemainingSeconds == 0 {
		return e.grantBonus(ctx, now)
	}

	if !e.state.FirstChoiceMade {
		e.state.FirstChoiceMade = true
		e.save(ctx)
		e.logger.Info().Uint32("remaining_seconds", e.state.RemainingSeconds).Msg("Timed session accepted")
	}
	e.redecide(ctx, now)
	return 0, nil
}

func (e *Engine) grantBonus(ctx context.Context, now time.Time) (uint32, error) {
	if !e.state.HasQuota() {
		return 0, ErrNoQuota
	}
	if e.state.RemainingSeconds > 0 {
		return 0, ErrQuotaRemaining
	}

	avail := e.checkBonus(ctx, now)
	if !avail.Available {
		return 0, &CooldownError{RemainingCooldown: avail.RemainingCooldown}
	}

	amount := e.bonus(durationSeconds(e.cfg.BonusMin), durationSeconds(e.cfg.BonusMax))
	e.state = quota.GrantBonus(e.state, now, amount)
	e.save(ctx)

	metrics.BonusesGranted.Inc()
	metrics.BonusSecondsGranted.Add(float64(e.state.RemainingSeconds))
	e.logger.Info().
		Uint32("bonus_seconds", e.state.RemainingSeconds).
		Stringer("basis", avail.Basis).
		Msg("Bonus granted")

	e.redecide(ctx, now)
	return e.state.RemainingSeconds, nil
}

// checkBonus evaluates bonus availability and persists a lazily stamped
// exhaustion time.
func (e *Engine) checkBonus(ctx context.Context, now time.Time) quota.Availability {
	avail, st := quota.BonusAvailable(e.state, now)
	if !st.DailyExhaustedAt.Equal(e.state.DailyExhaustedAt) {
		e.state = st
		e.save(ctx)
	}
	return avail
}

// refresh applies configuration re-read from the store.
func (e *Engine) refresh(ctx context.Context, snap settings.Snapshot, now time.Time) {
	prev := e.policy

	e.reconcileLimit(ctx, snap.State.DailyLimitSeconds, now)
	e.state.ResetIntervalSeconds = snap.State.ResetIntervalSeconds
	e.state.BonusRefillIntervalSeconds = snap.State.BonusRefillIntervalSeconds
	e.policy = snap.Policy

	if policyChanged(prev, e.policy) {
		e.logger.Info().
			Int("blocked_apps", len(e.policy.Apps())).
			Int("blocked_domains", len(e.policy.Domains())).
			Uint32("daily_limit_seconds", e.policy.DailyLimitSeconds).
			Msg("Block policy changed")
		e.redecide(ctx, now)
	}
}

// reconcileLimit adjusts the allowance when the daily limit is changed.
func (e *Engine) reconcileLimit(ctx context.Context, limit uint32, now time.Time) {
	prev := e.state.DailyLimitSeconds
	if limit == prev {
		return
	}

	switch {
	case limit == 0:
		e.closeSession(ctx, now)
		e.state.DailyLimitSeconds = 0
		e.state.RemainingSeconds = 0
		e.state.LastResetAt = time.Time{}
		e.state.DailyExhaustedAt = time.Time{}
		e.state.FirstChoiceMade = false
	case prev == 0:
		e.state.DailyLimitSeconds = limit
		e.state = quota.Reset(e.state)
	case limit > prev:
		e.state.DailyLimitSeconds = limit
		e.state.RemainingSeconds = min(limit, e.state.RemainingSeconds+(limit-prev))
	default:
		e.state.DailyLimitSeconds = limit
		e.state.RemainingSeconds = min(e.state.RemainingSeconds, limit)
	}
	e.state, _ = e.state.Normalize()
	e.save(ctx)

	e.logger.Info().
		Uint32("previous_limit_seconds", prev).
		Uint32("daily_limit_seconds", limit).
		Uint32("remaining_seconds", e.state.RemainingSeconds).
		Msg("Daily limit changed")
}

// polled applies a probe result. The probe only reports blocked apps, so an
// empty result cannot tell a browser from nothing and leaves a website
// session running until another app takes the foreground.
func (e *Engine) polled(ctx context.Context, id string, now time.Time) {
	if id == "" && e.current.Kind == policy.TargetDomain {
		e.lastPolled = id
		return
	}
	e.foregroundChanged(ctx, id, now)
}

func (e *Engine) foregroundChanged(ctx context.Context, id string, now time.Time) {
	if id == e.lastPolled {
		return
	}
	e.lastPolled = id
	e.transition(ctx, policy.App(id), now)
}

// transition classifies a foreground change and acts on each step in order.
func (e *Engine) transition(ctx context.Context, next policy.Target, now time.Time) {
	prev := e.current
	prevTracked := e.session.IsOpen() && e.session.Target == prev.ID
	steps := Classify(prev, next, e.cfg.OwnIdentity, prevTracked)
	if sameTarget(prev, next) {
		return
	}
	e.current = next

	for _, step := range steps {
		metrics.ForegroundTransitions.WithLabelValues(step.Kind.String()).Inc()
		e.logger.Debug().Stringer("transition", step.Kind).Stringer("target", step.Target).Msg("Foreground transition")

		switch step.Kind {
		case TargetExited:
			e.closeSession(ctx, now)
			e.tracked = policy.Target{}
		case TargetEntered:
			e.decide(ctx, step.Target, now)
		}
	}

	if next.IsZero() || next.ID == e.cfg.OwnIdentity {
		e.closeSession(ctx, now)
		e.tracked = policy.Target{}
	}
}

// decide runs the quota decision table for a target entering the foreground.
func (e *Engine) decide(ctx context.Context, t policy.Target, now time.Time) {
	if t.IsZero() || t.ID == e.cfg.OwnIdentity {
		e.closeSession(ctx, now)
		e.tracked = policy.Target{}
		return
	}

	if !e.matcher.Blocks(e.policy, t) {
		if e.session.IsOpen() && e.session.Target != t.ID {
			e.closeSession(ctx, now)
		}
		e.tracked = policy.Target{}
		return
	}
	e.tracked = t

	if !e.state.HasQuota() {
		e.closeSession(ctx, now)
		e.refuse(ctx, t, policy.ShowBlockScreen(t))
		return
	}

	if quota.ResetDue(e.state, now) {
		e.closeSession(ctx, now)
		e.applyReset(ctx, now)
	}

	switch {
	case !e.state.FirstChoiceMade && e.state.RemainingSeconds > 0:
		e.closeSession(ctx, now)
		e.refuse(ctx, t, policy.ShowNegotiationScreen(t))
	case e.state.RemainingSeconds > 0:
		e.openSession(ctx, t, now)
		e.emit(ctx, policy.AllowAndTrack(t))
	default:
		e.closeSession(ctx, now)
		e.offerBonus(ctx, t, now)
	}
}

// offerBonus handles a target with no time left: negotiation when a bonus
// can be granted, otherwise the cooldown screen.
func (e *Engine) offerBonus(ctx context.Context, t policy.Target, now time.Time) {
	avail := e.checkBonus(ctx, now)
	if avail.Available {
		e.refuse(ctx, t, policy.ShowNegotiationScreen(t))
		return
	}
	e.refuse(ctx, t, policy.ShowCooldownScreen(t, avail.RemainingCooldownMs()))
}

// refuse emits a non-allow action. Websites additionally get the browser
// sent to the safe URL; the browser itself becomes the current target so
// the next visit to the site is classified again.
func (e *Engine) refuse(ctx context.Context, t policy.Target, a policy.Action) {
	e.emit(ctx, a)
	if t.Kind != policy.TargetDomain {
		return
	}
	e.emit(ctx, policy.RedirectBrowser(e.cfg.SafeURL))
	if sameTarget(e.current, t) {
		e.current = policy.App(t.Host)
	}
	e.tracked = policy.Target{}
}

// redecide re-runs the decision for whatever is in the foreground.
func (e *Engine) redecide(ctx context.Context, now time.Time) {
	if !e.current.IsZero() {
		e.decide(ctx, e.current, now)
	}
}

func (e *Engine) openSession(ctx context.Context, t policy.Target, now time.Time) {
	if e.session.IsOpen() {
		if e.session.Target == t.ID {
			return
		}
		e.closeSession(ctx, now)
	}

	var outcome quota.ResetOutcome
	e.state, outcome = quota.MaybeReset(e.state, now)
	switch outcome {
	case quota.ResetEpochStarted:
		e.logger.Info().Time("epoch_start", now).Msg("Quota epoch started")
		e.save(ctx)
	case quota.ResetApplied:
		metrics.ResetsTotal.Inc()
		e.save(ctx)
	}

	e.session = quota.OpenSession(t.ID, now)
	metrics.SessionOpen.Set(1)
	e.logger.Info().
		Stringer("target", t).
		Uint32("remaining_seconds", e.state.RemainingSeconds).
		Msg("Session opened")
}

// closeSession flushes and closes the open session, if any. Time is only
// charged while the screen is on.
func (e *Engine) closeSession(ctx context.Context, now time.Time) {
	if !e.session.IsOpen() {
		return
	}
	if e.screenOn {
		var acc quota.Accrual
		e.state, e.session, acc = quota.Flush(e.session, e.state, now)
		e.recordAccrual(acc)
	}

	e.logger.Info().
		Str("target", e.session.Target).
		Dur("duration", now.Sub(e.session.StartedAt)).
		Uint32("remaining_seconds", e.state.RemainingSeconds).
		Msg("Session closed")

	e.session = quota.Session{}
	metrics.SessionOpen.Set(0)
	e.save(ctx)
}

// accrue charges the open session on save-interval boundaries.
func (e *Engine) accrue(ctx context.Context, now time.Time) {
	if !e.session.IsOpen() || !e.screenOn {
		return
	}

	var acc quota.Accrual
	e.state, e.session, acc = quota.Accrue(e.session, e.state, now, e.cfg.SaveInterval)
	if acc.Seconds == 0 {
		return
	}
	e.recordAccrual(acc)
	e.save(ctx)

	if acc.Exhausted {
		e.exhaust(ctx, now)
	}
}

// exhaust closes the session on a zero crossing and shows the tracked
// target its bonus or cooldown screen.
func (e *Engine) exhaust(ctx context.Context, now time.Time) {
	t := e.tracked
	if t.IsZero() {
		t = policy.App(e.session.Target)
	}
	e.logger.Info().Stringer("target", t).Msg("Quota exhausted")

	e.closeSession(ctx, now)
	if !t.IsZero() {
		e.offerBonus(ctx, t, now)
	}
}

// resetNow applies a reset whose deadline passed during a session, then
// re-runs the decision for the tracked target.
func (e *Engine) resetNow(ctx context.Context, now time.Time) {
	e.closeSession(ctx, now)
	e.applyReset(ctx, now)
	if !e.tracked.IsZero() {
		e.decide(ctx, e.tracked, now)
	}
}

func (e *Engine) applyReset(ctx context.Context, now time.Time) {
	used := e.state.UsedTodaySeconds
	e.state = quota.Reset(e.state)
	metrics.ResetsTotal.Inc()
	e.save(ctx)

	e.logger.Info().
		Uint32("used_seconds", used).
		Uint32("remaining_seconds", e.state.RemainingSeconds).
		Time("at", now).
		Msg("Quota reset")
}

func (e *Engine) resume(now time.Time) {
	if e.screenOn {
		return
	}
	e.screenOn = true
	if e.session.IsOpen() {
		e.session.LastAccountedAt = now
	}
	e.logger.Debug().Bool("session_open", e.session.IsOpen()).Msg("Screen on, accrual resumed")
}

func (e *Engine) emit(ctx context.Context, a policy.Action) {
	metrics.ActionsTotal.WithLabelValues(string(a.Kind)).Inc()
	e.logger.Debug().Stringer("action", a).Msg("Emitting action")
	if err := e.executor.Execute(ctx, a); err != nil {
		e.logger.Warn().Err(err).Stringer("action", a).Msg("Executor failed")
	}
}

// save writes quota state through. A failure leaves the engine dirty and the
// next tick retries.
func (e *Engine) save(ctx context.Context) {
	if err := e.settings.SaveState(ctx, e.state); err != nil {
		if !e.dirty {
			e.logger.Warn().Err(err).Msg("Failed to persist quota state, will retry next tick")
		}
		e.dirty = true
		metrics.StoreErrors.WithLabelValues("write").Inc()
		return
	}
	if e.dirty {
		e.logger.Info().Msg("Quota state persisted after retry")
	}
	e.dirty = false
}

func (e *Engine) recordAccrual(acc quota.Accrual) {
	if acc.Seconds > 0 {
		metrics.AccruedSeconds.Add(float64(acc.Seconds))
	}
}

func (e *Engine) notify(ctx context.Context) {
	line := StatusLine(e.policy, e.state)
	if line == e.status {
		return
	}
	e.status = line
	if err := e.executor.Notify(ctx, line); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to update status")
	}
}

func (e *Engine) publishMetrics() {
	metrics.RemainingSeconds.Set(float64(e.state.RemainingSeconds))
	metrics.UsedTodaySeconds.Set(float64(e.state.UsedTodaySeconds))
	metrics.DailyLimitSeconds.Set(float64(e.state.DailyLimitSeconds))
	metrics.BlockedTargets.WithLabelValues("app").Set(float64(len(e.policy.Apps())))
	metrics.BlockedTargets.WithLabelValues("domain").Set(float64(len(e.policy.Domains())))
}

// StatusLine renders the persistent notification text.
func StatusLine(p policy.BlockPolicy, st quota.State) string {
	apps := len(p.Apps())
	if !st.HasQuota() {
		return fmt.Sprintf("Monitoring %d blocked apps", apps)
	}
	return fmt.Sprintf("Monitoring %d apps | %d:%02d left", apps, st.RemainingSeconds/60, st.RemainingSeconds%60)
}

func policyChanged(a, b policy.BlockPolicy) bool {
	return a.DailyLimitSeconds != b.DailyLimitSeconds ||
		!slices.Equal(a.Apps(), b.Apps()) ||
		!slices.Equal(a.Domains(), b.Domains())
}

func durationSeconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	s := d / time.Second
	if s > time.Duration(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(s)
}

func randomSeconds(min, max uint32) uint32 {
	if max <= min {
		return min
	}
	return min + uint32(rand.Uint64N(uint64(max-min)+1))
}
