package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/goodtune/kquota/internal/policy"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// killer is the slice of a process the terminator needs.
type killer interface {
	NameWithContext(ctx context.Context) (string, error)
	KillWithContext(ctx context.Context) error
}

// Terminator ends the processes of an application shown the block or
// cooldown screen. Negotiation, allow and website actions are ignored.
type Terminator struct {
	logger zerolog.Logger
	list   func(ctx context.Context) ([]killer, error)
}

func NewTerminator(logger zerolog.Logger) *Terminator {
	return &Terminator{
		logger: logger.With().Str("component", "terminator").Logger(),
		list:   listKillers,
	}
}

func (t *Terminator) Execute(ctx context.Context, action policy.Action) error {
	switch action.Kind {
	case policy.ActionShowBlockScreen, policy.ActionShowCooldownScreen:
	default:
		return nil
	}
	if action.Target == "" || action.Website {
		return nil
	}

	procs, err := t.list(ctx)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	killed := 0
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || !strings.EqualFold(name, action.Target) {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			t.logger.Warn().Err(err).Str("target", action.Target).Msg("Failed to terminate process")
			continue
		}
		killed++
	}

	if killed > 0 {
		t.logger.Info().Str("target", action.Target).Int("processes", killed).Msg("Terminated blocked application")
	}
	return nil
}

func (t *Terminator) Notify(ctx context.Context, status string) error {
	return nil
}

func listKillers(ctx context.Context) ([]killer, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]killer, len(procs))
	for i, p := range procs {
		out[i] = p
	}
	return out, nil
}
