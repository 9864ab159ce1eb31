package engine

import "github.com/goodtune/kquota/internal/policy"

// TransitionKind is the kind of a classified foreground transition.
type TransitionKind int

const (
	TargetExited TransitionKind = iota
	TargetEntered
)

func (k TransitionKind) String() string {
	if k == TargetEntered {
		return "entered"
	}
	return "exited"
}

// Transition is one classified step of a foreground change.
type Transition struct {
	Kind   TransitionKind
	Target policy.Target
}

// Classify turns a foreground change into ordered transitions. Nothing is
// produced when the target is unchanged. When the previous target was being
// tracked its exit always comes first, so its time is flushed before the new
// target reads the remaining quota. The engine's own identity and the empty
// target never produce an entry.
func Classify(prev, cur policy.Target, own string, prevTracked bool) []Transition {
	if sameTarget(prev, cur) {
		return nil
	}

	var out []Transition
	if prevTracked && !prev.IsZero() {
		out = append(out, Transition{Kind: TargetExited, Target: prev})
	}
	if !cur.IsZero() && cur.ID != own {
		out = append(out, Transition{Kind: TargetEntered, Target: cur})
	}
	return out
}

func sameTarget(a, b policy.Target) bool {
	return a.ID == b.ID && (a.IsZero() || a.Kind == b.Kind)
}
