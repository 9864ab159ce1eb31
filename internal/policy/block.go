package policy

import (
	"sort"
	"strings"

	"github.com/miekg/dns"
)

// BlockPolicy is the configured set of restricted targets and the daily limit.
// A DailyLimitSeconds of zero means plain blocking without a quota.
type BlockPolicy struct {
	apps              map[string]struct{}
	domains           []string // canonical, without trailing dot
	DailyLimitSeconds uint32
}

// NewBlockPolicy builds a policy, dropping empty entries and normalizing domains.
func NewBlockPolicy(apps, domains []string, dailyLimitSeconds uint32) BlockPolicy {
	p := BlockPolicy{
		apps:              make(map[string]struct{}, len(apps)),
		DailyLimitSeconds: dailyLimitSeconds,
	}
	for _, app := range NormalizeApps(apps) {
		p.apps[app] = struct{}{}
	}
	p.domains = NormalizeDomains(domains)
	return p
}

// BlocksApp reports whether the application identifier is blocked.
func (p BlockPolicy) BlocksApp(id string) bool {
	_, ok := p.apps[id]
	return ok
}

// MatchDomain returns the blocked domain covering domain. Matching is on
// label boundaries: youtube.com covers m.youtube.com but not notyoutube.com.
func (p BlockPolicy) MatchDomain(domain string) (string, bool) {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return "", false
	}
	child := dns.Fqdn(domain)
	for _, blocked := range p.domains {
		if dns.IsSubDomain(dns.Fqdn(blocked), child) {
			return blocked, true
		}
	}
	return "", false
}

// Blocks reports whether the target is restricted.
func (p BlockPolicy) Blocks(t Target) bool {
	switch t.Kind {
	case TargetDomain:
		_, ok := p.MatchDomain(t.ID)
		return ok
	default:
		return p.BlocksApp(t.ID)
	}
}

// HasQuota reports whether blocked targets get timed access.
func (p BlockPolicy) HasQuota() bool {
	return p.DailyLimitSeconds > 0
}

// Apps returns the blocked application identifiers, sorted.
func (p BlockPolicy) Apps() []string {
	apps := make([]string, 0, len(p.apps))
	for app := range p.apps {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Domains returns the blocked domains, sorted.
func (p BlockPolicy) Domains() []string {
	return append([]string(nil), p.domains...)
}

// domainKey identifies the domain set, for cache invalidation.
func (p BlockPolicy) domainKey() string {
	return strings.Join(p.domains, ",")
}

// NormalizeApps trims, de-duplicates and sorts application identifiers.
func NormalizeApps(apps []string) []string {
	seen := make(map[string]struct{}, len(apps))
	out := make([]string, 0, len(apps))
	for _, app := range apps {
		app = strings.TrimSpace(app)
		if app == "" {
			continue
		}
		if _, ok := seen[app]; ok {
			continue
		}
		seen[app] = struct{}{}
		out = append(out, app)
	}
	sort.Strings(out)
	return out
}

// NormalizeDomains normalizes, de-duplicates and sorts domains, dropping
// anything that is not a valid domain name.
func NormalizeDomains(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = NormalizeDomain(d)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// NormalizeDomain reduces a URL or host to a bare lowercase domain: the
// scheme, a leading "www.", any port, path, query and fragment are removed.
// It returns "" when nothing resembling a domain is left.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimSuffix(d, ".")
	if d == "" || !strings.Contains(d, ".") {
		return ""
	}
	if _, ok := dns.IsDomainName(d); !ok {
		return ""
	}
	return strings.TrimSuffix(dns.CanonicalName(d), ".")
}
