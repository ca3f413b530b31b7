// Package cachet is an HTTP-semantics-aware caching middleware.
//
// It wraps a downstream http.Handler, decides per request whether the
// request/response pair is eligible for caching, derives Vary-aware cache
// keys, stores serialized responses in a pluggable backend, and decorates
// cachable responses with Cache-Control and Expires headers.
package cachet

import (
	"context"
	"net/http"
	"time"

	cachekey "github.com/cachet-go/cachet/pkg/cache-key"
	responsesaver "github.com/cachet-go/cachet/pkg/response-saver"
	serializer "github.com/cachet-go/cachet/pkg/response-serializer"
	"github.com/cachet-go/cachet/provider"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is the time-to-live applied when neither the configuration
// nor a matched rule specifies one.
const DefaultTTL = 365 * 24 * time.Hour

// Config configures a caching middleware instance.
type Config struct {
	// Provider is the storage backend. An in-memory provider is used
	// if nil.
	Provider provider.CacheProvider
	// Rules determine per-path eligibility and TTL. An empty set caches
	// every eligible response with the default TTL.
	Rules Rules
	// DefaultTTL applies to matches without an explicit TTL.
	// Defaults to DefaultTTL (one year).
	DefaultTTL time.Duration
	// KeyWithQuery includes the query string in cache keys.
	KeyWithQuery bool
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Cache is a caching middleware instance. It holds no per-request state;
// all caching decisions are pure functions of the current request and
// response, and the backend is the only shared resource.
type Cache struct {
	provider   provider.CacheProvider
	rules      Rules
	defaultTTL time.Duration
	keyer      cachekey.Keyer
	log        zerolog.Logger
}

// New creates a caching middleware instance from the given config.
func New(config Config) *Cache {
	p := config.Provider
	if p == nil {
		p = provider.NewMemCache()
	}
	ttl := config.DefaultTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}
	logger = logger.With().Str("cache", p.Namespace()).Logger()

	return &Cache{
		provider:   p,
		rules:      config.Rules,
		defaultTTL: ttl,
		keyer: cachekey.Keyer{
			Namespace: p.Namespace(),
			WithQuery: config.KeyWithQuery,
		},
		log: logger,
	}
}

// Middleware wraps the downstream handler with response caching.
//
// Each request runs through a fixed sequence: a request-time eligibility
// check, a cache lookup, on miss the downstream handler behind a
// buffering writer, a response-time eligibility check, and finally header
// decoration and storage. Requests that fail the eligibility check pass
// through untouched.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engaged(r.Context()) {
			panic(ErrDuplicateCaching)
		}
		r = r.WithContext(markEngaged(r.Context()))

		if err := c.checkRequest(r); err != nil {
			// PASSTHROUGH: invoke downstream with the response untouched.
			// Successful unsafe methods invalidate the entry for their
			// path before the response goes out.
			if isInvalidatingMethod(r.Method) {
				w = &invalidatingWriter{rw: w, cache: c, req: r}
			}
			next.ServeHTTP(w, r)
			return
		}

		key := c.keyer.Primary(r)
		if entry, ok := c.lookup(r.Context(), key, r.Header); ok {
			provider.CacheHits.WithLabelValues(c.provider.Namespace()).Inc()
			c.log.Debug().Str("key", key).Msg("Cache hit and serving")
			serveEntry(w, entry)
			return
		}
		provider.CacheMisses.WithLabelValues(c.provider.Namespace()).Inc()
		c.log.Debug().Str("key", key).Msg("Cache miss")

		sv := responsesaver.New(w)
		next.ServeHTTP(sv, r)

		if sv.Streaming() {
			// body already on the wire, nothing to capture
			c.log.Trace().Str("key", key).Msg("Streaming response, not cachable")
			return
		}
		c.storeIfCachable(r, key, sv)
		if err := sv.Emit(); err != nil {
			c.log.Error().Err(err).Msg("Could not write response body to client")
		}
	})
}

// checkRequest is the request-time pass: method predicate plus the
// status-blind rule match. Protocol upgrades (websockets) bypass the
// cache entirely, as their traffic is not request/response shaped.
func (c *Cache) checkRequest(r *http.Request) error {
	if r.Header.Get("Upgrade") != "" {
		return errRequestNotCachable
	}
	if !isRequestCachable(r) {
		return errRequestNotCachable
	}
	if c.rules.matchRequest(r.URL.Path) == nil {
		return errRequestNotCachable
	}
	return nil
}

// lookup fetches the stored entry for the primary key, following the vary
// control record to the variant key when one is present. Backend failures
// degrade to a miss.
func (c *Cache) lookup(ctx context.Context, key string, reqHeader http.Header) (serializer.Entry, bool) {
	value, ok, err := c.provider.Get(ctx, key)
	if err != nil {
		provider.CacheErrors.WithLabelValues("get").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("Could not read from cache")
		return serializer.Entry{}, false
	}
	if !ok {
		return serializer.Entry{}, false
	}

	if varyNames, isControl := cachekey.DecodeControlRecord(value); isControl {
		variantKey := c.keyer.Variant(key, varyNames, reqHeader)
		value, ok, err = c.provider.Get(ctx, variantKey)
		if err != nil {
			provider.CacheErrors.WithLabelValues("get").Inc()
			c.log.Warn().Err(err).Str("key", variantKey).Msg("Could not read from cache")
			return serializer.Entry{}, false
		}
		if !ok {
			return serializer.Entry{}, false
		}
		key = variantKey
	}

	entry, err := serializer.Decode(value)
	if err != nil {
		// corrupted entry, purge it and treat as a miss
		c.log.Error().Err(err).Str("key", key).Msg("Could not decode cache entry")
		if err := c.provider.Purge(ctx, key); err != nil {
			provider.CacheErrors.WithLabelValues("delete").Inc()
		}
		return serializer.Entry{}, false
	}
	return entry, true
}

// storeIfCachable runs the response-time pass over the captured response
// and stores it when eligible. Header decoration happens here, before the
// saver emits, so hit and miss responses carry identical headers.
// Store failures never affect the in-flight response.
func (c *Cache) storeIfCachable(r *http.Request, key string, sv *responsesaver.Saver) {
	rule := c.rules.matchResponse(r.URL.Path, sv.Status())
	if rule == nil {
		return
	}
	ttl := rule.effectiveTTL(c.defaultTTL)
	if ttl <= 0 {
		c.log.Trace().Str("key", key).Msg("Caching disabled by rule")
		return
	}
	if !isResponseCachable(sv.Status(), sv.Header(), r.Header, sv.Streaming()) {
		c.log.Trace().Str("key", key).Int("http-status", sv.Status()).Msg("Non-cacheable response")
		return
	}

	now := time.Now()
	patchResponseHeaders(sv.Header(), ttl, now)

	entry := serializer.Entry{
		StatusCode: sv.Status(),
		Header:     sv.Header().Clone(),
		Body:       append([]byte(nil), sv.Body()...),
		StoredAt:   now,
	}
	// The store must complete even if the client goes away mid-request;
	// failing to store only costs cache effectiveness.
	c.store(context.WithoutCancel(r.Context()), key, r.Header, entry, ttl)
}

// store writes the entry to the backend. A response declaring Vary gets a
// control record at the primary key and the entry itself at the derived
// variant key; overwriting the control record makes variants stored under
// an older Vary configuration unreachable, which is acceptable for a
// best-effort cache.
func (c *Cache) store(ctx context.Context, key string, reqHeader http.Header, entry serializer.Entry, ttl time.Duration) {
	value, err := serializer.Encode(entry)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("Could not encode cache entry")
		return
	}

	varyNames := cachekey.ParseVary(joinValues(entry.Header.Values("Vary")))
	if len(varyNames) > 0 {
		if err := c.provider.Put(ctx, key, cachekey.EncodeControlRecord(varyNames), ttl); err != nil {
			provider.CacheErrors.WithLabelValues("set").Inc()
			c.log.Error().Err(err).Str("key", key).Msg("Could not write to cache")
			return
		}
		key = c.keyer.Variant(key, varyNames, reqHeader)
	}

	if err := c.provider.Put(ctx, key, value, ttl); err != nil {
		provider.CacheErrors.WithLabelValues("set").Inc()
		c.log.Error().Err(err).Str("key", key).Msg("Could not write to cache")
		return
	}
	c.log.Trace().Str("key", key).Dur("ttl", ttl).Msg("Cache write")
}

// Invalidate removes the stored response for a path. The variant entry is
// resolved through the control record using the given request headers.
func (c *Cache) Invalidate(ctx context.Context, path string, reqHeader http.Header) error {
	key := c.keyer.PrimaryForPath(path)
	value, ok, err := c.provider.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		if varyNames, isControl := cachekey.DecodeControlRecord(value); isControl {
			if err := c.provider.Purge(ctx, c.keyer.Variant(key, varyNames, reqHeader)); err != nil {
				return err
			}
		}
	}
	return c.provider.Purge(ctx, key)
}

func (c *Cache) invalidateRequestTarget(r *http.Request) {
	target := r.URL.Path
	if c.keyer.WithQuery {
		target = r.URL.RequestURI()
	}
	ctx := context.WithoutCancel(r.Context())
	if err := c.Invalidate(ctx, target, r.Header); err != nil {
		provider.CacheErrors.WithLabelValues("delete").Inc()
		c.log.Warn().Err(err).Str("path", target).Msg("Could not invalidate cache")
		return
	}
	c.log.Trace().Str("path", target).Msg("Invalidated cache")
}

func serveEntry(w http.ResponseWriter, entry serializer.Entry) {
	copyHeader(w.Header(), entry.Header)
	w.WriteHeader(entry.StatusCode)
	w.Write(entry.Body)
}

// invalidatingWriter watches a passthrough response and invalidates the
// cached entry for the request path once a successful (2xx/3xx) status is
// seen, before the response is sent.
type invalidatingWriter struct {
	rw    http.ResponseWriter
	cache *Cache
	req   *http.Request
	seen  bool
}

func (iw *invalidatingWriter) Header() http.Header {
	return iw.rw.Header()
}

func (iw *invalidatingWriter) WriteHeader(statusCode int) {
	if !iw.seen {
		iw.seen = true
		if statusCode >= 200 && statusCode < 400 {
			iw.cache.invalidateRequestTarget(iw.req)
		}
	}
	iw.rw.WriteHeader(statusCode)
}

func (iw *invalidatingWriter) Write(b []byte) (int, error) {
	if !iw.seen {
		iw.WriteHeader(http.StatusOK)
	}
	return iw.rw.Write(b)
}

func (iw *invalidatingWriter) Flush() {
	if f, ok := iw.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func joinValues(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	joined := values[0]
	for _, v := range values[1:] {
		joined += ", " + v
	}
	return joined
}
