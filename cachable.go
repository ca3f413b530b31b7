package cachet

import "net/http"

// isRequestCachable reports whether a request may be served from or
// stored to cache. Only safe, idempotent retrieval methods qualify.
func isRequestCachable(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// isInvalidatingMethod reports whether a successful response to the
// method invalidates the cached entry for its path.
func isInvalidatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// isResponseCachable reports whether a captured response may be stored.
//
// Only plain 200 responses qualify; every other status code is treated
// uniformly as non-cachable. Streaming responses are excluded because
// their full body is never available at capture time. A cookie-setting
// response to a cookie-less request is excluded as well: it is typically
// per-session, and serving it to other cookie-less visitors would leak
// session state. If the request already carried cookies, the response is
// assumed to be scoped correctly upstream.
func isResponseCachable(status int, resHeader, reqHeader http.Header, streaming bool) bool {
	if status != http.StatusOK {
		return false
	}
	if streaming {
		return false
	}
	if resHeader.Get("Set-Cookie") != "" && reqHeader.Get("Cookie") == "" {
		return false
	}
	return true
}
