// Package serializer converts cached responses to and from their stored
// byte representation.
//
// The wire format is a plain HTTP/1.1 response, so entries are readable
// with standard tooling and survive process boundaries: every entry may
// have been produced by a different process instance.
package serializer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// storedAtHeader carries the capture timestamp inside the serialized
// entry. It is stripped on decode and never reaches clients.
const storedAtHeader = "X-Cachet-Stored-At"

// Entry is a captured downstream response.
type Entry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// Encode serializes an entry into HTTP/1.1 wire format.
func Encode(e Entry) ([]byte, error) {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(storedAtHeader, strconv.FormatInt(e.StoredAt.Unix(), 10))

	res := http.Response{
		ProtoMajor:    1,
		ProtoMinor:    1,
		StatusCode:    e.StatusCode,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
	}
	var buf bytes.Buffer
	if err := res.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize response: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored entry back from its wire format.
func Decode(value []byte) (Entry, error) {
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(value)), nil)
	if err != nil {
		return Entry{}, fmt.Errorf("deserialize response: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("deserialize response body: %w", err)
	}

	entry := Entry{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}
	if unix, err := strconv.ParseInt(res.Header.Get(storedAtHeader), 10, 64); err == nil {
		entry.StoredAt = time.Unix(unix, 0)
	}
	entry.Header.Del(storedAtHeader)
	return entry, nil
}
