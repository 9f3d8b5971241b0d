package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/resilience"
)

const (
	// keyPrefix namespaces engine keys inside a shared Redis instance.
	keyPrefix = "arctabs:state:"
	// changeChannel carries payloadless change notifications to readers.
	changeChannel = "arctabs:changed"
)

// Redis is a Store backed by a Redis instance shared with reader
// processes. Writes publish a change notification; the payload carries
// no state, readers re-read the keys they care about.
//
// Reads and writes go through a circuit breaker. Writers treat store
// failures as best-effort, so when Redis is down the breaker fails the
// calls fast instead of stalling every operation on a timeout.
type Redis struct {
	client  *redis.Client
	breaker *resilience.Breaker
}

func newBreaker() *resilience.Breaker {
	return resilience.New("redis-store", resilience.Settings{
		Timeout: 5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// NewRedis creates a Redis-backed store and verifies connectivity.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client, breaker: newBreaker()}, nil
}

// NewRedisWithClient wraps an existing client (testing, custom options).
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, breaker: newBreaker()}
}

func redisKey(key string) string {
	return keyPrefix + key
}

// Get returns the stored values for the requested keys.
func (r *Redis) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = redisKey(key)
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.MGet(ctx, namespaced...).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read state keys: %w", err)
	}
	values := result.([]interface{})

	record := make(map[string]json.RawMessage, len(keys))
	for i, value := range values {
		if value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			continue
		}
		record[keys[i]] = json.RawMessage(s)
	}
	return record, nil
}

// Set replaces the whole value of each provided key atomically and
// publishes one change notification.
func (r *Redis) Set(ctx context.Context, values map[string]any) error {
	pipe := r.client.TxPipeline()
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		pipe.Set(ctx, redisKey(key), raw, 0)
	}
	pipe.Publish(ctx, changeChannel, "")

	if _, err := r.breaker.Execute(func() (interface{}, error) {
		return pipe.Exec(ctx)
	}); err != nil {
		return fmt.Errorf("failed to write state keys: %w", err)
	}
	return nil
}

// Subscribe delivers a signal for every published change notification.
func (r *Redis) Subscribe(ctx context.Context) (<-chan struct{}, func(), error) {
	sub := r.client.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to change channel: %w", err)
	}

	ch := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(ch)
		msgs := sub.Channel()
		for {
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default: // subscriber already has a pending signal
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		_ = sub.Close()
	}
	return ch, cancel, nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
