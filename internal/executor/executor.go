// Package executor carries engine actions to whatever renders them.
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goodtune/kquota/internal/policy"
	"github.com/rs/zerolog"
)

// Executor performs actions and shows the status line.
type Executor interface {
	Execute(ctx context.Context, action policy.Action) error
	Notify(ctx context.Context, status string) error
}

// LogExecutor writes every action to the log.
type LogExecutor struct {
	logger zerolog.Logger
}

func NewLogExecutor(logger zerolog.Logger) *LogExecutor {
	return &LogExecutor{logger: logger.With().Str("component", "executor").Logger()}
}

func (l *LogExecutor) Execute(ctx context.Context, action policy.Action) error {
	evt := l.logger.Info().Str("action", string(action.Kind))
	if action.Target != "" {
		evt = evt.Str("target", action.Target)
	}
	if action.Kind == policy.ActionShowCooldownScreen {
		evt = evt.Int64("remaining_cooldown_ms", action.RemainingCooldownMs)
	}
	if action.SafeURL != "" {
		evt = evt.Str("safe_url", action.SafeURL)
	}
	evt.Msg("Action")
	return nil
}

func (l *LogExecutor) Notify(ctx context.Context, status string) error {
	l.logger.Debug().Str("status", status).Msg("Status updated")
	return nil
}

// Record is an action with the time it was executed.
type Record struct {
	Action policy.Action `json:"action"`
	At     time.Time     `json:"at"`
}

// Recorder keeps the most recent actions and the current status line in
// memory, for the control API and tests.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	records []Record
	status  string
	now     func() time.Time
}

// NewRecorder keeps at most limit actions; limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit, now: time.Now}
}

func (r *Recorder) Execute(ctx context.Context, action policy.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Action: action, At: r.now()})
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = append([]Record(nil), r.records[len(r.records)-r.limit:]...)
	}
	return nil
}

func (r *Recorder) Notify(ctx context.Context, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	return nil
}

// Records returns a copy of the recorded actions, oldest first.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Actions returns the recorded actions without timestamps.
func (r *Recorder) Actions() []policy.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]policy.Action, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Action
	}
	return out
}

// Status returns the last status line.
func (r *Recorder) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Clear drops recorded actions.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

// Multi fans every call out to each executor, joining their errors.
type Multi []Executor

func (m Multi) Execute(ctx context.Context, action policy.Action) error {
	var errs []error
	for _, ex := range m {
		if err := ex.Execute(ctx, action); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Notify(ctx context.Context, status string) error {
	var errs []error
	for _, ex := range m {
		if err := ex.Notify(ctx, status); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
