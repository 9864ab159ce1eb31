// Package detector produces the foreground, domain and screen events the
// quota engine consumes.
package detector

import "fmt"

// Kind identifies an event.
type Kind int

const (
	KindForeground Kind = iota
	KindDomain
	KindScreenOff
	KindScreenOn
	KindUserPresent
)

func (k Kind) String() string {
	switch k {
	case KindForeground:
		return "foreground"
	case KindDomain:
		return "domain"
	case KindScreenOff:
		return "screen_off"
	case KindScreenOn:
		return "screen_on"
	case KindUserPresent:
		return "user_present"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps the wire name of an event kind back to its value.
func ParseKind(s string) (Kind, error) {
	for k := KindForeground; k <= KindUserPresent; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind: %s", s)
}

// Event is a single observation. Target is the foreground application for
// KindForeground; Domain and SourceApp describe a KindDomain visit.
type Event struct {
	Kind      Kind
	Target    string
	Domain    string
	SourceApp string
}

func Foreground(id string) Event {
	return Event{Kind: KindForeground, Target: id}
}

func DomainVisited(domain, sourceApp string) Event {
	return Event{Kind: KindDomain, Domain: domain, SourceApp: sourceApp}
}

func ScreenOff() Event   { return Event{Kind: KindScreenOff} }
func ScreenOn() Event    { return Event{Kind: KindScreenOn} }
func UserPresent() Event { return Event{Kind: KindUserPresent} }
