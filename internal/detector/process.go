package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// procInfo is the subset of a running process the probe looks at.
type procInfo struct {
	Name      string
	CreatedMs int64
}

// ProcessProbe treats the most recently started running process whose name
// is a blocked application identifier as the foreground target. Desktop
// platforms expose no portable foreground API, so "running and newest" stands
// in for "in front".
type ProcessProbe struct {
	list func(ctx context.Context) ([]procInfo, error)
}

// NewProcessProbe creates a probe backed by the host process table.
func NewProcessProbe() *ProcessProbe {
	return &ProcessProbe{list: listProcesses}
}

// Foreground implements Probe.
func (p *ProcessProbe) Foreground(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", nil
	}

	wanted := make(map[string]string, len(candidates))
	for _, c := range candidates {
		wanted[strings.ToLower(c)] = c
	}

	procs, err := p.list(ctx)
	if err != nil {
		return "", fmt.Errorf("list processes: %w", err)
	}

	var (
		best      string
		bestStart int64 = -1
	)
	for _, proc := range procs {
		id, ok := wanted[strings.ToLower(proc.Name)]
		if !ok {
			continue
		}
		if proc.CreatedMs > bestStart {
			best, bestStart = id, proc.CreatedMs
		}
	}
	return best, nil
}

func listProcesses(ctx context.Context) ([]procInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]procInfo, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue // Process may have exited
		}
		created, err := proc.CreateTimeWithContext(ctx)
		if err != nil {
			created = 0
		}
		infos = append(infos, procInfo{Name: name, CreatedMs: created})
	}
	return infos, nil
}
