package cachet

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsRequestCachable(t *testing.T) {
	for method, want := range map[string]bool{
		"GET":     true,
		"HEAD":    true,
		"POST":    false,
		"PUT":     false,
		"PATCH":   false,
		"DELETE":  false,
		"OPTIONS": false,
	} {
		req := httptest.NewRequest(method, "/", nil)
		if got := isRequestCachable(req); got != want {
			t.Errorf("isRequestCachable(%s) = %v", method, got)
		}
	}
}

func TestIsInvalidatingMethod(t *testing.T) {
	for method, want := range map[string]bool{
		"POST":    true,
		"PUT":     true,
		"PATCH":   true,
		"DELETE":  true,
		"GET":     false,
		"HEAD":    false,
		"OPTIONS": false,
	} {
		if got := isInvalidatingMethod(method); got != want {
			t.Errorf("isInvalidatingMethod(%s) = %v", method, got)
		}
	}
}

func TestIsResponseCachable(t *testing.T) {
	plain := http.Header{}
	withCookie := http.Header{"Set-Cookie": {"session=abc"}}
	reqWithCookie := http.Header{"Cookie": {"session=abc"}}

	if !isResponseCachable(200, plain, plain, false) {
		t.Error("Plain 200 response should be cachable")
	}
	for _, status := range []int{201, 204, 301, 404, 500} {
		if isResponseCachable(status, plain, plain, false) {
			t.Errorf("Status %d should not be cachable", status)
		}
	}
	if isResponseCachable(200, plain, plain, true) {
		t.Error("Streaming response should not be cachable")
	}
	if isResponseCachable(200, withCookie, plain, false) {
		t.Error("Cookie-setting response to cookie-less request should not be cachable")
	}
	if !isResponseCachable(200, withCookie, reqWithCookie, false) {
		t.Error("Cookie-setting response should be cachable when the request had cookies")
	}
}
