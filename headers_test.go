package cachet

import (
	"net/http"
	"testing"
	"time"
)

func TestDirectivesString(t *testing.T) {
	tests := []struct {
		name string
		d    Directives
		want string
	}{
		{"empty", Directives{}, ""},
		{"max-age", Directives{MaxAge: 600}, "max-age=600"},
		{"boolean", Directives{NoStore: true}, "no-store"},
		{
			"combined in fixed order",
			Directives{MaxAge: 600, Public: true, StaleWhileRevalidate: 30},
			"max-age=600, public, stale-while-revalidate=30",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCacheControl(t *testing.T) {
	tokens := ParseCacheControl(`max-age=600, no-cache="set-cookie", Public`)
	if val, ok := tokens.Get("max-age"); !ok || val != "600" {
		t.Fatalf("max-age = %q, %v", val, ok)
	}
	if val, ok := tokens.Get("no-cache"); !ok || val != "set-cookie" {
		t.Fatalf("no-cache = %q, %v", val, ok)
	}
	// directive names are case-insensitive
	if !tokens.Has("public") {
		t.Fatal("public directive missing")
	}
	if tokens.Has("no-store") {
		t.Fatal("no-store should be absent")
	}
}

func TestPatchCacheControl(t *testing.T) {
	h := http.Header{}
	h.Set("Cache-Control", "max-age=60, custom=1")

	patchCacheControl(h, Directives{MaxAge: 600, Public: true})

	if got := h.Get("Cache-Control"); got != "max-age=600, public, custom=1" {
		t.Fatalf("Cache-Control is %q", got)
	}
}

func TestPatchResponseHeadersFillsGaps(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	h := http.Header{}
	patchResponseHeaders(h, time.Minute, now)
	if got := h.Get("Expires"); got != "Wed, 01 May 2024 12:01:00 GMT" {
		t.Fatalf("Expires is %q", got)
	}
	if got := h.Get("Cache-Control"); got != "max-age=60" {
		t.Fatalf("Cache-Control is %q", got)
	}
}

func TestPatchResponseHeadersKeepsExisting(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	h := http.Header{}
	h.Set("Expires", "Thu, 02 May 2024 00:00:00 GMT")
	h.Set("Cache-Control", "max-age=30, public")
	patchResponseHeaders(h, time.Minute, now)

	if got := h.Get("Expires"); got != "Thu, 02 May 2024 00:00:00 GMT" {
		t.Fatalf("Existing Expires overwritten: %q", got)
	}
	if got := ParseCacheControl(h.Get("Cache-Control")); !got.Has("public") {
		t.Fatalf("Existing directive lost: %q", h.Get("Cache-Control"))
	}
	if val, _ := ParseCacheControl(h.Get("Cache-Control")).Get("max-age"); val != "30" {
		t.Fatalf("Existing max-age overwritten: %q", h.Get("Cache-Control"))
	}
}
