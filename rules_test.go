package cachet

import (
	"regexp"
	"testing"
	"time"
)

func TestPathMatcher(t *testing.T) {
	tests := []struct {
		name    string
		matcher PathMatcher
		path    string
		want    bool
	}{
		{"literal match", MatchPath("/a"), "/a", true},
		{"literal mismatch", MatchPath("/a"), "/b", false},
		{"star matches all", MatchPath("*"), "/anything", true},
		{"empty matches all", MatchPath(""), "/anything", true},
		{"zero value matches all", MatchAll(), "/anything", true},
		{"pattern match", MatchPattern(regexp.MustCompile(`^/api/`)), "/api/users", true},
		{"pattern mismatch", MatchPattern(regexp.MustCompile(`^/api/`)), "/public", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matcher.Matches(tt.path); got != tt.want {
				t.Fatalf("Matches(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestRulesFirstMatchWins(t *testing.T) {
	rules := Rules{
		{Match: MatchPath("/special"), TTL: TTL(time.Minute)},
		{Match: MatchPath("*"), TTL: TTL(time.Hour)},
	}

	rule := rules.matchRequest("/special")
	if rule == nil || *rule.TTL != time.Minute {
		t.Fatalf("Expected the /special rule, got %+v", rule)
	}
	rule = rules.matchRequest("/other")
	if rule == nil || *rule.TTL != time.Hour {
		t.Fatalf("Expected the wildcard rule, got %+v", rule)
	}
}

func TestEmptyRulesMatchEverything(t *testing.T) {
	var rules Rules
	if rules.matchRequest("/any") == nil {
		t.Fatal("Empty rule set should match every path")
	}
	rule := rules.matchResponse("/any", 200)
	if rule == nil {
		t.Fatal("Empty rule set should match every response")
	}
	if ttl := rule.effectiveTTL(time.Minute); ttl != time.Minute {
		t.Fatalf("Effective TTL is %s", ttl)
	}
}

func TestMatchResponseStatusFilter(t *testing.T) {
	rules := Rules{
		{Match: MatchPath("/page"), Status: 404, TTL: TTL(time.Minute)},
		{Match: MatchPath("/page"), TTL: TTL(time.Hour)},
	}

	// matchRequest ignores status filters, so the first rule wins
	if rule := rules.matchRequest("/page"); rule == nil || *rule.TTL != time.Minute {
		t.Fatalf("Expected the status-filtered rule, got %+v", rule)
	}

	if rule := rules.matchResponse("/page", 404); rule == nil || *rule.TTL != time.Minute {
		t.Fatalf("Expected the 404 rule, got %+v", rule)
	}
	if rule := rules.matchResponse("/page", 200); rule == nil || *rule.TTL != time.Hour {
		t.Fatalf("Expected the fallback rule, got %+v", rule)
	}
	if rule := rules.matchResponse("/elsewhere", 200); rule != nil {
		t.Fatalf("Expected no rule, got %+v", rule)
	}
}

func TestEffectiveTTL(t *testing.T) {
	withTTL := Rule{TTL: TTL(time.Minute)}
	if ttl := withTTL.effectiveTTL(time.Hour); ttl != time.Minute {
		t.Fatalf("Effective TTL is %s", ttl)
	}
	zero := Rule{TTL: TTL(0)}
	if ttl := zero.effectiveTTL(time.Hour); ttl != 0 {
		t.Fatalf("Explicit zero TTL resolved to %s", ttl)
	}
	unset := Rule{}
	if ttl := unset.effectiveTTL(time.Hour); ttl != time.Hour {
		t.Fatalf("Effective TTL is %s", ttl)
	}
}
