package policy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionKind names the command sent to the action executor.
type ActionKind string

const (
	ActionShowBlockScreen       ActionKind = "SHOW_BLOCK_SCREEN"
	ActionShowNegotiationScreen ActionKind = "SHOW_NEGOTIATION_SCREEN"
	ActionShowCooldownScreen    ActionKind = "SHOW_COOLDOWN_SCREEN"
	ActionAllowAndTrack         ActionKind = "ALLOW_AND_TRACK"
	ActionRedirectBrowser       ActionKind = "REDIRECT_BROWSER"
)

// UnmarshalJSON implements json.Unmarshaler to normalize the kind to uppercase.
func (k *ActionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	normalized := ActionKind(strings.ToUpper(s))

	switch normalized {
	case ActionShowBlockScreen, ActionShowNegotiationScreen, ActionShowCooldownScreen,
		ActionAllowAndTrack, ActionRedirectBrowser:
		*k = normalized
		return nil
	default:
		return fmt.Errorf("invalid action: %s", s)
	}
}

// MarshalJSON implements json.Marshaler to ensure uppercase output.
func (k ActionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(string(k)))
}

// Action is a single command for the executor. Website marks targets that
// are domains rather than applications.
type Action struct {
	Kind                ActionKind `json:"kind"`
	Target              string     `json:"target,omitempty"`
	Website             bool       `json:"website,omitempty"`
	RemainingCooldownMs int64      `json:"remaining_cooldown_ms,omitempty"`
	SafeURL             string     `json:"safe_url,omitempty"`
}

func (a Action) String() string {
	switch a.Kind {
	case ActionShowCooldownScreen:
		return fmt.Sprintf("%s(%s, %dms)", a.Kind, a.Target, a.RemainingCooldownMs)
	case ActionRedirectBrowser:
		return fmt.Sprintf("%s(%s)", a.Kind, a.SafeURL)
	default:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Target)
	}
}

func targetAction(kind ActionKind, t Target) Action {
	return Action{Kind: kind, Target: t.ID, Website: t.Kind == TargetDomain}
}

func ShowBlockScreen(t Target) Action {
	return targetAction(ActionShowBlockScreen, t)
}

func ShowNegotiationScreen(t Target) Action {
	return targetAction(ActionShowNegotiationScreen, t)
}

func ShowCooldownScreen(t Target, remainingCooldownMs int64) Action {
	a := targetAction(ActionShowCooldownScreen, t)
	a.RemainingCooldownMs = remainingCooldownMs
	return a
}

func AllowAndTrack(t Target) Action {
	return targetAction(ActionAllowAndTrack, t)
}

func RedirectBrowser(safeURL string) Action {
	return Action{Kind: ActionRedirectBrowser, SafeURL: safeURL}
}

// TargetKind distinguishes foreground applications from visited websites.
type TargetKind int

const (
	TargetApp TargetKind = iota
	TargetDomain
)

func (k TargetKind) String() string {
	if k == TargetDomain {
		return "domain"
	}
	return "app"
}

// Target is something the user can be using: an application identifier or
// a website domain. Host is the browser showing a domain target.
type Target struct {
	ID   string
	Kind TargetKind
	Host string
}

// App returns an application target.
func App(id string) Target {
	return Target{ID: id, Kind: TargetApp}
}

// Domain returns a website target shown by the host browser.
func Domain(domain, host string) Target {
	return Target{ID: domain, Kind: TargetDomain, Host: host}
}

// IsZero reports whether t names nothing.
func (t Target) IsZero() bool {
	return t.ID == ""
}

func (t Target) String() string {
	if t.Kind == TargetDomain && t.Host != "" {
		return t.ID + "@" + t.Host
	}
	return t.ID
}
