// Package engine implements the workspace state synchronization core:
// it keeps the persistent workspace/favorite/mapping model consistent
// with the live, externally-mutable document registry, governs item
// classification transitions, and orchestrates workspace switches.
//
// The engine is the single writer of its store keys. Other processes
// sharing the store are read-only observers notified via change events.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/logging"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/monitoring"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/registry"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/id"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	MaxFavorites int
	EventBuffer  int
	Metrics      *monitoring.Metrics
}

// Engine owns the in-memory mirror of the persistent state and applies
// every mutation to it. All operations are serialized on one mutex; the
// registry event subscription only enqueues into a buffered channel, so
// registry callbacks never contend for the lock.
type Engine struct {
	store   storage.Store
	reg     registry.Registry
	log     *logging.Logger
	metrics *monitoring.Metrics

	maxFavorites int

	mu         sync.Mutex
	workspaces []types.Workspace
	favorites  []types.Favorite
	currentID  string
	mapping    types.TabMapping
	state      switchState

	// switching suppresses event handling for the duration of a switch:
	// events observed mid-switch are side effects of the switch itself.
	switching atomic.Bool

	events    chan registry.Event
	cancelSub func()
	quit      chan struct{}
	done      chan struct{}
}

// New creates an engine over the given store and document registry.
func New(store storage.Store, reg registry.Registry, log *logging.Logger, opts Options) *Engine {
	if opts.MaxFavorites <= 0 {
		opts.MaxFavorites = 8
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	return &Engine{
		store:        store,
		reg:          reg,
		log:          log,
		metrics:      metrics,
		maxFavorites: opts.MaxFavorites,
		favorites:    []types.Favorite{},
		mapping:      make(types.TabMapping),
		events:       make(chan registry.Event, opts.EventBuffer),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start loads persistent state, reconciles it against the live document
// set and begins consuming registry events.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Reload(ctx); err != nil {
		return err
	}
	if err := e.Reconcile(ctx); err != nil {
		e.log.Warn("initial reconciliation failed", zap.Error(err))
	}

	e.cancelSub = e.reg.Subscribe(func(ev registry.Event) {
		if e.switching.Load() {
			return
		}
		select {
		case e.events <- ev:
		default:
			e.log.Warn("event buffer full, dropping event",
				zap.Int("type", int(ev.Type)),
				zap.Int("document_id", int(ev.ID)))
		}
	})

	go e.pump()
	e.log.Info("engine started",
		zap.Int("workspaces", len(e.workspaces)),
		zap.Int("favorites", len(e.favorites)))
	return nil
}

// Stop cancels the event subscription and waits for the pump to drain.
func (e *Engine) Stop() {
	if e.cancelSub != nil {
		e.cancelSub()
	}
	close(e.quit)
	<-e.done
}

func (e *Engine) pump() {
	defer close(e.done)
	for {
		select {
		case ev := <-e.events:
			e.handleEvent(context.Background(), ev)
		case <-e.quit:
			return
		}
	}
}

// Reload re-reads the full persistent state, replacing the in-memory
// mirror. It bootstraps a default workspace when none exists.
func (e *Engine) Reload(ctx context.Context) error {
	record, err := e.store.Get(ctx, storage.AllKeys...)
	if err != nil {
		return fmt.Errorf("failed to reload state: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.workspaces = nil
	e.favorites = []types.Favorite{}
	e.currentID = ""
	e.mapping = make(types.TabMapping)

	if raw, ok := record[storage.KeyWorkspaces]; ok {
		if err := json.Unmarshal(raw, &e.workspaces); err != nil {
			return fmt.Errorf("corrupt workspaces record: %w", err)
		}
	}
	if raw, ok := record[storage.KeyFavorites]; ok {
		if err := json.Unmarshal(raw, &e.favorites); err != nil {
			return fmt.Errorf("corrupt favorites record: %w", err)
		}
	}
	if raw, ok := record[storage.KeyCurrentWorkspace]; ok {
		if err := json.Unmarshal(raw, &e.currentID); err != nil {
			return fmt.Errorf("corrupt current-workspace record: %w", err)
		}
	}
	if raw, ok := record[storage.KeyTabMapping]; ok {
		if err := json.Unmarshal(raw, &e.mapping); err != nil {
			return fmt.Errorf("corrupt mapping record: %w", err)
		}
	}

	if len(e.workspaces) == 0 {
		ws := types.Workspace{
			ID:                id.NewWorkspaceID().String(),
			Name:              "Default",
			PinnedItems:       []types.PinnedItem{},
			NormalDocumentIDs: []types.DocumentID{},
			Folders:           []types.Folder{},
		}
		e.workspaces = []types.Workspace{ws}
		e.currentID = ws.ID
		e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyCurrentWorkspace)
		return nil
	}

	if e.indexOfWorkspaceLocked(e.currentID) < 0 {
		e.currentID = e.workspaces[0].ID
		e.persistLocked(ctx, storage.KeyCurrentWorkspace)
	}
	return nil
}

// CreateWorkspace adds an empty workspace. The first workspace created
// becomes current automatically.
func (e *Engine) CreateWorkspace(ctx context.Context, name string) (types.Workspace, error) {
	if name == "" {
		return types.Workspace{}, fmt.Errorf("workspace name required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ws := types.Workspace{
		ID:                id.NewWorkspaceID().String(),
		Name:              name,
		PinnedItems:       []types.PinnedItem{},
		NormalDocumentIDs: []types.DocumentID{},
		Folders:           []types.Folder{},
	}
	e.workspaces = append(e.workspaces, ws)

	keys := []string{storage.KeyWorkspaces}
	if e.currentID == "" {
		e.currentID = ws.ID
		keys = append(keys, storage.KeyCurrentWorkspace)
	}
	e.persistLocked(ctx, keys...)
	return ws, nil
}

// RenameWorkspace changes a workspace's display name.
func (e *Engine) RenameWorkspace(ctx context.Context, workspaceID, name string) error {
	if name == "" {
		return fmt.Errorf("workspace name required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfWorkspaceLocked(workspaceID)
	if idx < 0 {
		return ErrWorkspaceNotFound
	}
	e.workspaces[idx].Name = name
	e.persistLocked(ctx, storage.KeyWorkspaces)
	return nil
}

// DeleteWorkspace removes a workspace, closing all of its open
// documents and clearing their mapping entries. Folders and pinned
// items are forgotten along with it.
func (e *Engine) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfWorkspaceLocked(workspaceID)
	if idx < 0 {
		return ErrWorkspaceNotFound
	}
	ws := e.workspaces[idx]

	for i := range ws.PinnedItems {
		if docID := ws.PinnedItems[i].DocumentID; docID != nil {
			delete(e.mapping, *docID)
			_ = e.reg.Remove(ctx, *docID)
		}
	}
	for _, docID := range ws.NormalDocumentIDs {
		delete(e.mapping, docID)
		_ = e.reg.Remove(ctx, docID)
	}
	for docID, entry := range e.mapping {
		if entry.WorkspaceID == workspaceID {
			delete(e.mapping, docID)
			continue
		}
		if entry.PinnedItemID != "" && ws.FindPinned(entry.PinnedItemID) >= 0 {
			delete(e.mapping, docID)
		}
	}

	e.workspaces = append(e.workspaces[:idx], e.workspaces[idx+1:]...)
	if e.currentID == workspaceID {
		e.currentID = ""
		if len(e.workspaces) > 0 {
			e.currentID = e.workspaces[0].ID
		}
	}

	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyCurrentWorkspace, storage.KeyTabMapping)
	e.log.Info("workspace deleted", zap.String("workspace_id", workspaceID))
	return nil
}

// State is a consistent copy of the full engine state, shaped the way
// readers of the shared store see it.
type State struct {
	Workspaces       []types.Workspace `json:"workspaces"`
	Favorites        []types.Favorite  `json:"favorites"`
	CurrentWorkspace string            `json:"current_workspace"`
	TabMapping       types.TabMapping  `json:"tab_mapping"`
}

// State returns a copy of the current state safe for concurrent use.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		Workspaces:       cloneWorkspaces(e.workspaces),
		Favorites:        append([]types.Favorite{}, e.favorites...),
		CurrentWorkspace: e.currentID,
		TabMapping:       e.mapping.Clone(),
	}
}

// CurrentWorkspace returns a copy of the current workspace, if any.
func (e *Engine) CurrentWorkspace() (types.Workspace, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return types.Workspace{}, false
	}
	return cloneWorkspace(*ws), true
}

// persistLocked writes the named keys from the in-memory state. Writes
// are best-effort: a failure is logged and the in-memory state remains
// authoritative until the next successful write. Caller holds mu.
func (e *Engine) persistLocked(ctx context.Context, keys ...string) error {
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		switch key {
		case storage.KeyWorkspaces:
			values[key] = e.workspaces
		case storage.KeyFavorites:
			values[key] = e.favorites
		case storage.KeyCurrentWorkspace:
			values[key] = e.currentID
		case storage.KeyTabMapping:
			values[key] = e.mapping
		}
	}

	err := e.store.Set(ctx, values)
	e.metrics.RecordStoreWrite(err)
	if err != nil {
		e.log.Warn("state write failed, continuing with in-memory state",
			zap.Strings("keys", keys), zap.Error(err))
	}
	return err
}

func (e *Engine) indexOfWorkspaceLocked(workspaceID string) int {
	for i := range e.workspaces {
		if e.workspaces[i].ID == workspaceID {
			return i
		}
	}
	return -1
}

// currentLocked returns the current workspace, or nil when none is set.
// The pointer is only valid while mu is held.
func (e *Engine) currentLocked() *types.Workspace {
	idx := e.indexOfWorkspaceLocked(e.currentID)
	if idx < 0 {
		return nil
	}
	return &e.workspaces[idx]
}

func cloneWorkspace(ws types.Workspace) types.Workspace {
	out := ws
	out.PinnedItems = append([]types.PinnedItem{}, ws.PinnedItems...)
	out.NormalDocumentIDs = append([]types.DocumentID{}, ws.NormalDocumentIDs...)
	out.Folders = append([]types.Folder{}, ws.Folders...)
	out.OpenTabsSnapshot = append([]types.SnapshotEntry(nil), ws.OpenTabsSnapshot...)
	return out
}

func cloneWorkspaces(workspaces []types.Workspace) []types.Workspace {
	out := make([]types.Workspace, len(workspaces))
	for i, ws := range workspaces {
		out[i] = cloneWorkspace(ws)
	}
	return out
}
