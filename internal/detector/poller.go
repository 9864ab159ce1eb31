package detector

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Probe reports the current foreground application among candidates. An
// empty result means none of them is in the foreground. An error means the
// answer is unknown.
type Probe interface {
	Foreground(ctx context.Context, candidates []string) (string, error)
}

// Poller wraps a Probe and falls back to the last known target when the probe
// cannot answer.
type Poller struct {
	probe  Probe
	logger zerolog.Logger

	mu        sync.Mutex
	lastKnown string
}

// NewPoller creates a poller over probe.
func NewPoller(probe Probe, logger zerolog.Logger) *Poller {
	return &Poller{
		probe:  probe,
		logger: logger.With().Str("component", "detector").Logger(),
	}
}

// Poll returns the foreground target, never failing.
func (p *Poller) Poll(ctx context.Context, candidates []string) string {
	id, err := p.probe.Foreground(ctx, candidates)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.logger.Debug().Err(err).Str("last_known", p.lastKnown).Msg("Foreground unknown, keeping last known target")
		return p.lastKnown
	}
	p.lastKnown = id
	return id
}

// LastKnown returns the most recent successful probe result.
func (p *Poller) LastKnown() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastKnown
}
