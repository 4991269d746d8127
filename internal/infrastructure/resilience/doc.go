/*
Package resilience provides a circuit breaker for remote dependencies.

The kernel's only remote dependency is the object store holding
snapshots. When it keeps failing, the breaker opens and flushes fail
immediately instead of holding the dispatcher lock for a full network
timeout on every mutating call.

# Usage

	breaker := resilience.New("s3", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	data, err := resilience.Call(ctx, breaker, store.Load)

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           v
	                                         Open
*/
package resilience
