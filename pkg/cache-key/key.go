// Package cachekey derives cache keys for requests, including the
// secondary variant keys used when a stored response declares Vary.
package cachekey

import (
	"bytes"
	"net/http"
	"strings"
)

const (
	fieldSeparator = ":"
	varySeparator  = "\t"

	// controlPrefix marks a vary control record stored at a primary key.
	// Serialized responses start with "HTTP/", so the two are always
	// distinguishable.
	controlPrefix = "vary" + varySeparator
)

// Keyer computes cache keys for a single provider namespace.
// Two requests with identical method, path (and query, if enabled) always
// produce the same key.
type Keyer struct {
	// Namespace is the provider's key prefix. Keys from different
	// namespaces never collide.
	Namespace string
	// WithQuery includes the raw query string in the key. Off by default:
	// two requests differing only in query parameters share a cache slot.
	WithQuery bool
}

// Primary returns the primary cache key for a request.
// HEAD is keyed as GET so that the two methods share a cache slot.
func (k Keyer) Primary(r *http.Request) string {
	target := r.URL.Path
	if k.WithQuery {
		target = r.URL.RequestURI()
	}
	return k.primary(r.Method, target)
}

// PrimaryForPath returns the primary cache key for a GET of the given path.
// It is used for invalidation, where no cachable request is at hand.
func (k Keyer) PrimaryForPath(path string) string {
	return k.primary(http.MethodGet, path)
}

func (k Keyer) primary(method, target string) string {
	if method == http.MethodHead {
		method = http.MethodGet
	}
	return k.Namespace + fieldSeparator + method + fieldSeparator + target
}

// Variant returns the secondary cache key for a primary key and the named
// vary headers. Header names are matched case-insensitively; a header
// absent from the request contributes an empty value, so that requests
// without the header consistently select the same variant.
func (k Keyer) Variant(primary string, varyNames []string, reqHeader http.Header) string {
	var b strings.Builder
	b.WriteString(primary)
	b.WriteString(varySeparator)
	for _, name := range varyNames {
		b.WriteString("\n")
		b.WriteString(strings.ToLower(name))
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(reqHeader.Get(name)))
	}
	return b.String()
}

// ParseVary splits a Vary header value into its header names.
func ParseVary(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// EncodeControlRecord serializes the vary header names of a stored
// response for storage at the primary key.
func EncodeControlRecord(varyNames []string) []byte {
	return []byte(controlPrefix + strings.Join(varyNames, ", "))
}

// DecodeControlRecord reports whether the stored value is a vary control
// record and, if so, returns the header names it carries.
func DecodeControlRecord(value []byte) ([]string, bool) {
	if !bytes.HasPrefix(value, []byte(controlPrefix)) {
		return nil, false
	}
	return ParseVary(string(value[len(controlPrefix):])), true
}
