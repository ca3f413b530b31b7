// Package responsesaver provides a buffering http.ResponseWriter wrapper
// used to capture a downstream response before deciding whether to cache it.
package responsesaver

import (
	"bytes"
	"net/http"
)

// Saver is an http.ResponseWriter that buffers the status code, headers
// and body instead of writing them through. Nothing reaches the underlying
// writer until Emit is called, so headers can still be modified after the
// handler returns.
//
// The one exception is streaming: a handler that calls Flush needs its
// bytes on the wire before it completes. Flush emits everything buffered
// so far and switches the Saver to passthrough mode; from then on writes
// go directly to the underlying writer and the response is marked as
// streaming (and therefore not capturable).
type Saver struct {
	rw          http.ResponseWriter
	buf         bytes.Buffer
	header      http.Header
	status      int
	wroteHeader bool
	streaming   bool
}

// New returns a Saver buffering a response destined for w.
func New(w http.ResponseWriter) *Saver {
	return &Saver{
		rw:     w,
		header: make(http.Header),
	}
}

func (s *Saver) Header() http.Header {
	return s.header
}

func (s *Saver) WriteHeader(statusCode int) {
	if s.wroteHeader {
		return
	}
	s.wroteHeader = true
	s.status = statusCode
	if s.streaming {
		copyHeader(s.rw.Header(), s.header)
		s.rw.WriteHeader(statusCode)
	}
}

func (s *Saver) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	if s.streaming {
		return s.rw.Write(b)
	}
	return s.buf.Write(b)
}

// Flush marks the response as streaming, emits everything buffered so far
// and flushes the underlying writer if it supports it.
func (s *Saver) Flush() {
	if !s.streaming {
		status := s.Status()
		s.streaming = true
		s.wroteHeader = false
		s.WriteHeader(status)
		if s.buf.Len() > 0 {
			s.rw.Write(s.buf.Bytes())
			s.buf.Reset()
		}
	}
	if f, ok := s.rw.(http.Flusher); ok {
		f.Flush()
	}
}

// Streaming reports whether the handler streamed the response, in which
// case the captured state is incomplete and must not be cached.
func (s *Saver) Streaming() bool {
	return s.streaming
}

// Status returns the buffered status code, defaulting to 200 if the
// handler never set one.
func (s *Saver) Status() int {
	if !s.wroteHeader {
		return http.StatusOK
	}
	return s.status
}

// Body returns the buffered response body.
func (s *Saver) Body() []byte {
	return s.buf.Bytes()
}

// Emit writes the buffered status, headers and body to the underlying
// writer. It must not be called for streaming responses, which have
// already been written through.
func (s *Saver) Emit() error {
	copyHeader(s.rw.Header(), s.header)
	s.rw.WriteHeader(s.Status())
	_, err := s.rw.Write(s.buf.Bytes())
	return err
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
