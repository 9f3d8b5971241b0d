// Package registry provides the live document registry port: the host
// API that owns open documents. Document ids are volatile integers
// assigned by the host and reused after removal; nothing in this package
// is durable.
package registry

import (
	"context"
	"errors"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
)

// ErrNoSuchDocument is returned when an id does not denote a live
// document. Callers treat it as the stale-reference case and recover by
// clearing the reference.
var ErrNoSuchDocument = errors.New("no such document")

// EventType identifies a document lifecycle event.
type EventType int

const (
	// EventCreated fires after a document is created.
	EventCreated EventType = iota
	// EventRemoved fires after a document is removed.
	EventRemoved
	// EventActivated fires when a document becomes the active one.
	EventActivated
	// EventUpdated fires on navigation, title or favicon changes.
	EventUpdated
)

// Event describes one document lifecycle change. Document carries the
// post-change state except for EventRemoved, where only ID is valid.
type Event struct {
	Type     EventType
	ID       types.DocumentID
	Document types.Document
}

// Registry is the host document API consumed by the engine.
type Registry interface {
	// List enumerates all open documents.
	List(ctx context.Context) ([]types.Document, error)
	// Create opens a document at the given address.
	Create(ctx context.Context, url string, active bool) (types.Document, error)
	// Remove closes a document. Removing an unknown id returns
	// ErrNoSuchDocument.
	Remove(ctx context.Context, id types.DocumentID) error
	// Activate makes a document the active one.
	Activate(ctx context.Context, id types.DocumentID) error
	// Get fetches one document; fails with ErrNoSuchDocument for stale ids.
	Get(ctx context.Context, id types.DocumentID) (types.Document, error)
	// Subscribe registers an event listener. The returned cancel func
	// releases the subscription. Handlers run sequentially.
	Subscribe(handler func(Event)) (cancel func())
}
