package serializer

import (
	"net/http"
	"testing"
	"time"
)

func TestRoundtrip(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", "max-age=60")
	header.Add("Vary", "Accept-Encoding")
	storedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entry := Entry{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       []byte("<html>Hello world</html>"),
		StoredAt:   storedAt,
	}

	value, err := Encode(entry)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(value)
	if err != nil {
		t.Fatal(err)
	}

	if decoded.StatusCode != http.StatusOK {
		t.Fatalf("Status is %d", decoded.StatusCode)
	}
	if string(decoded.Body) != "<html>Hello world</html>" {
		t.Fatalf("Body is %q", decoded.Body)
	}
	for _, name := range []string{"Content-Type", "Cache-Control", "Vary"} {
		if decoded.Header.Get(name) != header.Get(name) {
			t.Fatalf("%s is %q, want %q", name, decoded.Header.Get(name), header.Get(name))
		}
	}
	if !decoded.StoredAt.Equal(storedAt) {
		t.Fatalf("StoredAt is %s", decoded.StoredAt)
	}
	// the timestamp travels in an internal header that must not leak
	if decoded.Header.Get("X-Cachet-Stored-At") != "" {
		t.Fatal("Internal header leaked into decoded entry")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an http response")); err == nil {
		t.Fatal("Expected an error for a corrupted entry")
	}
}
