package id

import (
	"strings"
	"sync"
	"testing"
)

func TestPrefixedIDs(t *testing.T) {
	req, span := NewRequestID(), NewSpanID()

	if !strings.HasPrefix(req.String(), RequestPrefix+"_") {
		t.Errorf("Expected request prefix, got %s", req)
	}
	if !strings.HasPrefix(span.String(), SpanPrefix+"_") {
		t.Errorf("Expected span prefix, got %s", span)
	}
	if !IsValid(req.String()) || !IsValid(span.String()) {
		t.Errorf("Expected generated IDs to be valid: %s %s", req, span)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"req_01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"", false},
		{"req_", false},
		{"not-a-ulid", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.id); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestConcurrentIDsAreUnique(t *testing.T) {
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[RequestID]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := NewRequestID()
			mu.Lock()
			seen[req] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Errorf("Expected %d unique IDs, got %d", n, len(seen))
	}
}

func TestIDsSortByCreation(t *testing.T) {
	first := NewRequestID()
	for i := 0; i < 5; i++ {
		next := NewRequestID()
		if next < first && next[:14] != first[:14] {
			t.Errorf("Expected %s to sort after %s", next, first)
		}
	}
}
