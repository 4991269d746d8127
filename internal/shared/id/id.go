// Package id generates the ULID identifiers used for requests and
// trace spans.
//
// ULIDs sort by creation time, so request and span logs list in the
// order they were made. Each kind of ID carries a short prefix that
// makes it recognizable in logs.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies one boundary invocation
type RequestID string

// SpanID identifies one traced operation
type SpanID string

const (
	RequestPrefix = "req"
	SpanPrefix    = "span"
)

var (
	entropy   io.Reader = rand.Reader
	entropyMu sync.Mutex
)

func generate(prefix string) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return prefix + "_" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(generate(RequestPrefix))
}

// NewSpanID generates a new span ID
func NewSpanID() SpanID {
	return SpanID(generate(SpanPrefix))
}

func (id RequestID) String() string { return string(id) }
func (id SpanID) String() string    { return string(id) }

// IsValid reports whether id is a ULID, with or without a prefix.
func IsValid(id string) bool {
	if i := strings.LastIndex(id, "_"); i >= 0 {
		id = id[i+1:]
	}
	_, err := ulid.Parse(id)
	return err == nil
}
