// Package storage provides the persistent store port for the engine.
//
// The store is a key-value document store with get/set-whole-value
// semantics per key and a payloadless change-notification subscription:
// a notified reader must re-read the full state. Two backends exist, an
// in-process memory store (tests, single-process use) and a Redis store
// (shared with other processes rendering the same state).
package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// State keys owned by the engine. No other writer may touch these keys.
const (
	KeyWorkspaces       = "workspaces"
	KeyFavorites        = "favorites"
	KeyCurrentWorkspace = "currentWorkspace"
	KeyTabMapping       = "tabMapping"
)

// AllKeys lists every key owned by the engine.
var AllKeys = []string{KeyWorkspaces, KeyFavorites, KeyCurrentWorkspace, KeyTabMapping}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is the persistent key-value document store. Get returns a partial
// record containing only the keys that exist; Set merges at the key level
// and replaces whole values. Subscribe delivers a signal (coalesced, no
// payload) after every successful Set from any writer.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]any) error
	Subscribe(ctx context.Context) (<-chan struct{}, func(), error)
	Close() error
}

// GetJSON reads one key and unmarshals it into out. Missing keys leave
// out untouched and return false.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	record, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := record[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}
