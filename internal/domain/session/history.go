package session

import "strings"

// DefaultHistorySize is the number of commands kept when no size is
// configured.
const DefaultHistorySize = 50

// History is the bounded, append-only command log.
type History struct {
	entries []string
	max     int
}

// NewHistory creates a history keeping at most max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Add records a command. Blank commands and immediate repeats are
// ignored; the oldest entry is dropped once the bound is reached.
func (h *History) Add(command string) bool {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return false
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == trimmed {
		return false
	}
	h.entries = append(h.entries, trimmed)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	return true
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear forgets every entry.
func (h *History) Clear() {
	h.entries = nil
}

// Set replaces the history, keeping the newest entries if it exceeds
// the bound.
func (h *History) Set(entries []string) {
	if len(entries) > h.max {
		entries = entries[len(entries)-h.max:]
	}
	h.entries = append([]string(nil), entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Max returns the bound.
func (h *History) Max() int {
	return h.max
}
