package policy

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMatcherCacheSize bounds the number of remembered domain lookups.
const DefaultMatcherCacheSize = 512

type matchResult struct {
	rule    string
	blocked bool
}

// Matcher memoizes domain lookups against a policy's domain set. Browsers
// report the same handful of domains on every page load, so the cache keeps
// repeated events cheap. The cache is purged whenever the domain set changes.
type Matcher struct {
	mu    sync.Mutex
	key   string
	cache *lru.Cache[string, matchResult]
}

// NewMatcher creates a matcher remembering up to size domains.
func NewMatcher(size int) (*Matcher, error) {
	if size <= 0 {
		size = DefaultMatcherCacheSize
	}
	cache, err := lru.New[string, matchResult](size)
	if err != nil {
		return nil, err
	}
	return &Matcher{cache: cache}, nil
}

// Match returns the blocked domain in p covering domain, if any.
func (m *Matcher) Match(p BlockPolicy, domain string) (string, bool) {
	m.mu.Lock()
	if key := p.domainKey(); key != m.key {
		m.cache.Purge()
		m.key = key
	}
	m.mu.Unlock()

	if res, ok := m.cache.Get(domain); ok {
		return res.rule, res.blocked
	}

	rule, blocked := p.MatchDomain(domain)
	m.cache.Add(domain, matchResult{rule: rule, blocked: blocked})
	return rule, blocked
}

// Blocks reports whether t is restricted by p, using the cache for domains.
func (m *Matcher) Blocks(p BlockPolicy, t Target) bool {
	if t.Kind == TargetDomain {
		_, ok := m.Match(p, t.ID)
		return ok
	}
	return p.BlocksApp(t.ID)
}

// Len returns the number of cached lookups.
func (m *Matcher) Len() int {
	return m.cache.Len()
}
