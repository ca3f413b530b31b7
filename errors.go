package cachet

import "errors"

var (
	// ErrDuplicateCaching reports that a request traversed two caching
	// middleware instances claiming the same scope. Nested caches would
	// store each other's already-decorated responses and corrupt TTL
	// semantics, so this is a configuration error: the middleware panics
	// with this value instead of producing a response.
	ErrDuplicateCaching = errors.New(
		"cachet: another caching middleware was detected in the stack " +
			"(did you wrap the handler twice, or apply Cached inside a cached scope?)")

	// ErrMissingCaching reports that an endpoint-level cache override
	// references a backend that was never configured. Raised on first use.
	ErrMissingCaching = errors.New(
		"cachet: endpoint cache has no backend configured " +
			"(Cached was called with a nil provider)")
)

// errRequestNotCachable is an internal short-circuit condition. It is
// control flow, not a failure, and is never surfaced to callers.
var errRequestNotCachable = errors.New("request not cachable")
