package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store. Change notifications are coalesced: a
// subscriber that has not drained its channel receives one signal for
// any number of intervening writes.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]json.RawMessage
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]json.RawMessage),
		subs: make(map[int]chan struct{}),
	}
}

// Get returns the stored values for the requested keys. Keys never
// written are absent from the result.
func (m *Memory) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	record := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if raw, ok := m.data[key]; ok {
			// Copy so callers cannot alias internal buffers.
			record[key] = append(json.RawMessage(nil), raw...)
		}
	}
	return record, nil
}

// Set replaces the whole value of each provided key and notifies
// subscribers once.
func (m *Memory) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		encoded[key] = raw
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for key, raw := range encoded {
		m.data[key] = raw
	}
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default: // subscriber already has a pending signal
		}
	}
	return nil
}

// Subscribe registers a change listener. The returned cancel func must be
// called to release the subscription.
func (m *Memory) Subscribe(ctx context.Context) (<-chan struct{}, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, ErrClosed
	}

	id := m.nextID
	m.nextID++
	ch := make(chan struct{}, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
	return ch, cancel, nil
}

// Close releases all subscriptions.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
	return nil
}
