package sudo

import "time"

// DefaultTimeout is how long a successful sudo authentication is
// remembered.
const DefaultTimeout = 15 * time.Minute

// Timestamps remembers the last successful sudo authentication of each
// user. A zero or negative timeout disables caching.
type Timestamps struct {
	timeout time.Duration
	now     func() time.Time
	stamps  map[string]time.Time
}

// NewTimestamps creates an empty timestamp table. A nil clock uses
// time.Now.
func NewTimestamps(timeout time.Duration, now func() time.Time) *Timestamps {
	if now == nil {
		now = time.Now
	}
	return &Timestamps{
		timeout: timeout,
		now:     now,
		stamps:  make(map[string]time.Time),
	}
}

// Valid reports whether user authenticated within the timeout.
func (t *Timestamps) Valid(user string) bool {
	stamp, ok := t.stamps[user]
	if !ok || t.timeout <= 0 {
		return false
	}
	return t.now().Sub(stamp) < t.timeout
}

// Update records a successful authentication for user.
func (t *Timestamps) Update(user string) {
	t.stamps[user] = t.now()
}

// Clear forgets user's timestamp.
func (t *Timestamps) Clear(user string) {
	delete(t.stamps, user)
}

// Timeout returns the configured timeout.
func (t *Timestamps) Timeout() time.Duration {
	return t.timeout
}
