package cachet

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Directives is a declarative representation of Cache-Control tokens.
// The zero value of a field means the directive is absent.
type Directives struct {
	MaxAge               int // seconds
	SMaxAge              int // seconds
	NoCache              bool
	NoStore              bool
	NoTransform          bool
	MustRevalidate       bool
	ProxyRevalidate      bool
	MustUnderstand       bool
	Private              bool
	Public               bool
	Immutable            bool
	StaleWhileRevalidate int // seconds
	StaleIfError         int // seconds
}

// directiveOrder fixes the serialization order so the synthesized header
// is deterministic.
var directiveOrder = []string{
	"max-age",
	"s-maxage",
	"no-cache",
	"no-store",
	"no-transform",
	"must-revalidate",
	"proxy-revalidate",
	"must-understand",
	"private",
	"public",
	"immutable",
	"stale-while-revalidate",
	"stale-if-error",
}

func (d Directives) tokens() map[string]string {
	m := make(map[string]string)
	set := func(name string, seconds int) {
		if seconds != 0 {
			m[name] = strconv.Itoa(seconds)
		}
	}
	setBool := func(name string, on bool) {
		if on {
			m[name] = ""
		}
	}
	set("max-age", d.MaxAge)
	set("s-maxage", d.SMaxAge)
	setBool("no-cache", d.NoCache)
	setBool("no-store", d.NoStore)
	setBool("no-transform", d.NoTransform)
	setBool("must-revalidate", d.MustRevalidate)
	setBool("proxy-revalidate", d.ProxyRevalidate)
	setBool("must-understand", d.MustUnderstand)
	setBool("private", d.Private)
	setBool("public", d.Public)
	setBool("immutable", d.Immutable)
	set("stale-while-revalidate", d.StaleWhileRevalidate)
	set("stale-if-error", d.StaleIfError)
	return m
}

// String renders the directives as a Cache-Control header value.
func (d Directives) String() string {
	return formatCacheControl(d.tokens())
}

// CacheControlTokens is a parsed Cache-Control header value.
type CacheControlTokens struct {
	m map[string]string
}

// Get returns the value of the given directive and whether it is present.
// Valueless directives are present with an empty value.
func (c CacheControlTokens) Get(directive string) (string, bool) {
	val, ok := c.m[directive]
	return val, ok
}

// Has reports whether the given directive is present.
func (c CacheControlTokens) Has(directive string) bool {
	_, ok := c.m[directive]
	return ok
}

// ParseCacheControl parses a Cache-Control header value into its tokens.
func ParseCacheControl(header string) CacheControlTokens {
	m := make(map[string]string)
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}
		parts := strings.SplitN(directive, "=", 2)
		var val string
		if len(parts) > 1 {
			val = strings.Trim(parts[1], `"`)
		}
		m[strings.ToLower(parts[0])] = val
	}
	return CacheControlTokens{m}
}

func formatCacheControl(tokens map[string]string) string {
	known := make(map[string]bool, len(directiveOrder))
	parts := make([]string, 0, len(tokens))
	appendToken := func(name string) {
		val, ok := tokens[name]
		if !ok {
			return
		}
		if val == "" {
			parts = append(parts, name)
		} else {
			parts = append(parts, name+"="+val)
		}
	}
	for _, name := range directiveOrder {
		known[name] = true
		appendToken(name)
	}
	// preserve directives this package does not know about
	extras := make([]string, 0)
	for name := range tokens {
		if !known[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		appendToken(name)
	}
	return strings.Join(parts, ", ")
}

// patchCacheControl merges the given directives into the header's
// existing Cache-Control value. Directives already present keep their
// value unless overridden.
func patchCacheControl(h http.Header, d Directives) {
	tokens := ParseCacheControl(h.Get("Cache-Control")).m
	for name, val := range d.tokens() {
		tokens[name] = val
	}
	h.Set("Cache-Control", formatCacheControl(tokens))
}

// patchResponseHeaders decorates a cachable response with Expires and a
// max-age directive. Headers the downstream handler (or a decorator)
// already set win: Expires is only added when absent, and max-age is only
// merged into Cache-Control when no max-age is present yet.
func patchResponseHeaders(h http.Header, ttl time.Duration, now time.Time) {
	if h.Get("Expires") == "" {
		h.Set("Expires", httpDate(now.Add(ttl)))
	}
	tokens := ParseCacheControl(h.Get("Cache-Control"))
	if !tokens.Has("max-age") {
		tokens.m["max-age"] = strconv.Itoa(int(ttl.Seconds()))
		h.Set("Cache-Control", formatCacheControl(tokens.m))
	}
}

// httpDate formats a timestamp as an HTTP-date in GMT.
func httpDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
