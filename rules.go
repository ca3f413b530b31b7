package cachet

import (
	"regexp"
	"time"
)

// PathMatcher matches request paths either literally or by regular
// expression. The zero value (and MatchAll) matches every path.
type PathMatcher struct {
	literal string
	pattern *regexp.Regexp
}

// MatchPath returns a matcher accepting exactly the given path.
// The literal "*" (or an empty string) matches every path.
func MatchPath(path string) PathMatcher {
	return PathMatcher{literal: path}
}

// MatchPattern returns a matcher accepting paths the expression matches.
func MatchPattern(pattern *regexp.Regexp) PathMatcher {
	return PathMatcher{pattern: pattern}
}

// MatchAll returns a matcher accepting every path.
func MatchAll() PathMatcher {
	return PathMatcher{}
}

// Matches reports whether the matcher accepts the given request path.
func (m PathMatcher) Matches(path string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(path)
	}
	return m.literal == "*" || m.literal == "" || m.literal == path
}

// Rule associates a path matcher and an optional status code filter with
// a TTL. Rules are immutable once constructed.
type Rule struct {
	// Match selects the request paths the rule applies to.
	// The zero matcher applies to every path.
	Match PathMatcher
	// Status restricts the rule to responses with this status code.
	// Zero means any status.
	Status int
	// TTL is the time-to-live for matched responses. Nil means "use the
	// default TTL"; an explicit zero disables caching for the match.
	TTL *time.Duration
}

// TTL is a convenience for building rule literals with an explicit TTL.
func TTL(d time.Duration) *time.Duration { return &d }

// effectiveTTL resolves the rule's TTL against the configured default.
func (r *Rule) effectiveTTL(def time.Duration) time.Duration {
	if r.TTL != nil {
		return *r.TTL
	}
	return def
}

// Rules is an ordered rule set, evaluated top to bottom with
// first-match-wins semantics. An empty set behaves as a single rule
// matching everything with the default TTL.
type Rules []Rule

var wildcardRules = Rules{{}}

func (rs Rules) orDefault() Rules {
	if len(rs) == 0 {
		return wildcardRules
	}
	return rs
}

// matchRequest finds the first rule applicable to the path, ignoring
// status filters. The response status is not known before the downstream
// handler runs; this pass only decides whether the path can possibly be
// cached. A nil result means no rule applies and caching is off.
func (rs Rules) matchRequest(path string) *Rule {
	rs = rs.orDefault()
	for i := range rs {
		if rs[i].Match.Matches(path) {
			return &rs[i]
		}
	}
	return nil
}

// matchResponse finds the first rule applicable to the path and response
// status. This is the final TTL decision.
func (rs Rules) matchResponse(path string, status int) *Rule {
	rs = rs.orDefault()
	for i := range rs {
		if !rs[i].Match.Matches(path) {
			continue
		}
		if rs[i].Status != 0 && rs[i].Status != status {
			continue
		}
		return &rs[i]
	}
	return nil
}
