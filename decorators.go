package cachet

import (
	"net/http"

	"github.com/cachet-go/cachet/provider"
)

// Cached wraps a single handler with its own caching middleware bound to
// the given provider, without affecting sibling routes. It composes with
// routers expecting middleware, e.g. chi's Router.With.
//
// A nil provider is a configuration error: the returned handler panics
// with ErrMissingCaching on first use instead of silently not caching.
func Cached(p provider.CacheProvider, rules ...Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic(ErrMissingCaching)
			})
		}
		return New(Config{Provider: p, Rules: rules}).Middleware(next)
	}
}

// CacheControl wraps a handler so that its responses carry the given
// Cache-Control directives, merged over whatever the handler set itself.
// It does not cache anything on its own; combined with a caching
// middleware it overrides the header text while rules still gate
// storage (a rule TTL of zero vetoes caching regardless).
func CacheControl(d Directives) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&headerPatchWriter{rw: w, directives: d}, r)
		})
	}
}

// headerPatchWriter patches Cache-Control just before headers are
// committed.
type headerPatchWriter struct {
	rw          http.ResponseWriter
	directives  Directives
	wroteHeader bool
}

func (hw *headerPatchWriter) Header() http.Header {
	return hw.rw.Header()
}

func (hw *headerPatchWriter) WriteHeader(statusCode int) {
	if !hw.wroteHeader {
		hw.wroteHeader = true
		patchCacheControl(hw.rw.Header(), hw.directives)
	}
	hw.rw.WriteHeader(statusCode)
}

func (hw *headerPatchWriter) Write(b []byte) (int, error) {
	if !hw.wroteHeader {
		hw.WriteHeader(http.StatusOK)
	}
	return hw.rw.Write(b)
}

func (hw *headerPatchWriter) Flush() {
	if !hw.wroteHeader {
		hw.WriteHeader(http.StatusOK)
	}
	if f, ok := hw.rw.(http.Flusher); ok {
		f.Flush()
	}
}
