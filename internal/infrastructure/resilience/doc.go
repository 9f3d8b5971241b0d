/*
Package resilience provides a circuit breaker for calls to external
backends, chiefly the Redis store.

# Overview

The breaker prevents cascading failures when a backend becomes
unavailable or slow: instead of every state read and snapshot write
stalling on a dead Redis, calls fail fast until the backend recovers.

# Usage

	breaker := resilience.New("redis-store", resilience.Settings{
		Timeout: 5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.MGet(ctx, keys...).Result()
	})

# States

  - Closed: Normal operation, requests pass through
  - Open: Backend unavailable, requests fail immediately
  - Half-Open: Testing if the backend recovered, limited requests allowed

The breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
