package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
)

// placeholderURL is opened when closing the outgoing workspace would
// otherwise leave zero documents; the host requires at least one.
const placeholderURL = "about:blank"

// switchState tracks progress through a workspace switch.
type switchState int

const (
	stateIdle switchState = iota
	stateCapturing
	stateClosing
	stateActivating
	stateRestoring
)

func (s switchState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCapturing:
		return "capturing"
	case stateClosing:
		return "closing"
	case stateActivating:
		return "activating"
	case stateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// SwitchWorkspace moves the live document set from the current
// workspace's context to the target's: capture a durable snapshot of
// the outgoing documents, close them, activate the target and restore
// its stored snapshot. A second switch arriving mid-flight is rejected
// with ErrSwitchInProgress rather than queued. Switching to the current
// workspace is a no-op.
//
// The snapshot is persisted before any document is closed, so an
// interruption between capture and close loses no restorable state.
// After the switch the engine re-reads the store in full rather than
// trusting in-memory deltas.
func (e *Engine) SwitchWorkspace(ctx context.Context, targetID string) error {
	if !e.switching.CompareAndSwap(false, true) {
		e.metrics.SwitchesRejected.Inc()
		return ErrSwitchInProgress
	}
	defer e.switching.Store(false)

	e.mu.Lock()
	switched, err := e.switchLocked(ctx, targetID)
	e.mu.Unlock()
	if err != nil || !switched {
		return err
	}

	// Absorb anything written concurrently by another process before
	// resuming normal event handling.
	return e.Reload(ctx)
}

func (e *Engine) switchLocked(ctx context.Context, targetID string) (bool, error) {
	targetIdx := e.indexOfWorkspaceLocked(targetID)
	if targetIdx < 0 {
		return false, ErrWorkspaceNotFound
	}
	if targetID == e.currentID {
		return false, nil
	}

	e.metrics.SwitchesStarted.Inc()
	e.log.Info("workspace switch started",
		zap.String("from", e.currentID), zap.String("to", targetID))
	defer e.setStateLocked(stateIdle)

	outgoing := e.currentLocked()
	target := &e.workspaces[targetIdx]

	// Capture
	e.setStateLocked(stateCapturing)
	if outgoing != nil {
		docs, err := e.reg.List(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to enumerate documents: %w", err)
		}

		snapshot := make([]types.SnapshotEntry, 0, len(docs))
		for _, doc := range docs {
			if e.favoriteClaimsLocked(doc.ID) {
				continue
			}
			if types.IsInternalURL(doc.URL) {
				continue
			}
			pinned, belongs := e.membershipLocked(outgoing, doc.ID)
			if !belongs {
				continue
			}
			entry := types.SnapshotEntry{
				URL:       doc.URL,
				Title:     doc.Title,
				Favicon:   doc.Favicon,
				WasActive: doc.Active,
			}
			if pinned != nil {
				entry.IsPinnedItem = true
				entry.PinnedItemID = pinned.ID
			}
			snapshot = append(snapshot, entry)
		}

		outgoing.OpenTabsSnapshot = snapshot
		// Durability checkpoint: the snapshot must be on disk before
		// the destructive close step. A failed write aborts the switch.
		if err := e.persistLocked(ctx, storage.KeyWorkspaces); err != nil {
			outgoing.OpenTabsSnapshot = nil
			return false, fmt.Errorf("failed to persist snapshot: %w", err)
		}
	}

	// Close. Membership is recomputed; favorites or documents may have
	// changed since capture.
	e.setStateLocked(stateClosing)
	if outgoing != nil {
		docs, err := e.reg.List(ctx)
		if err == nil {
			var toClose []types.DocumentID
			for _, doc := range docs {
				if e.favoriteClaimsLocked(doc.ID) {
					continue
				}
				if _, belongs := e.membershipLocked(outgoing, doc.ID); belongs {
					toClose = append(toClose, doc.ID)
				}
			}

			if len(toClose) == len(docs) && len(docs) > 0 {
				if _, err := e.reg.Create(ctx, placeholderURL, true); err != nil {
					e.log.Warn("failed to open placeholder document", zap.Error(err))
				}
			}

			for _, docID := range toClose {
				if pinned, _ := e.membershipLocked(outgoing, docID); pinned != nil {
					pinned.DocumentID = nil
				}
				removeDocumentID(&outgoing.NormalDocumentIDs, docID)
				delete(e.mapping, docID)
				if err := e.reg.Remove(ctx, docID); err != nil {
					e.log.Warn("failed to close document",
						zap.Int("document_id", int(docID)), zap.Error(err))
				}
			}
			e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyTabMapping)
		} else {
			e.log.Warn("failed to enumerate documents for close", zap.Error(err))
		}
	}

	// Activate
	e.setStateLocked(stateActivating)
	e.currentID = targetID
	e.persistLocked(ctx, storage.KeyCurrentWorkspace)

	// Restore
	e.setStateLocked(stateRestoring)
	var activateID types.DocumentID
	haveActive := false
	for _, entry := range target.OpenTabsSnapshot {
		url := entry.URL
		var item *types.PinnedItem
		if entry.IsPinnedItem {
			if idx := target.FindPinned(entry.PinnedItemID); idx >= 0 {
				item = &target.PinnedItems[idx]
				// The snapshot url may reflect mid-session navigation;
				// the saved address is canonical for pinned items.
				if item.SavedURL != "" {
					url = item.SavedURL
				}
			}
		}

		doc, err := e.reg.Create(ctx, url, false)
		if err != nil {
			e.log.Warn("failed to restore document",
				zap.String("url", url), zap.Error(err))
			continue
		}
		if item != nil {
			docID := doc.ID
			item.DocumentID = &docID
			e.mapping[doc.ID] = types.MappingEntry{PinnedItemID: item.ID}
		} else {
			target.NormalDocumentIDs = append(target.NormalDocumentIDs, doc.ID)
			e.mapping[doc.ID] = types.MappingEntry{WorkspaceID: target.ID}
		}
		if entry.WasActive {
			activateID = doc.ID
			haveActive = true
		}
		// Incremental persistence: a mid-restore failure keeps every
		// document created so far.
		e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyTabMapping)
	}

	// Activation happens once, after every document exists.
	if haveActive {
		if err := e.reg.Activate(ctx, activateID); err != nil {
			e.log.Warn("failed to activate restored document",
				zap.Int("document_id", int(activateID)), zap.Error(err))
		}
	}

	target.OpenTabsSnapshot = nil
	e.persistLocked(ctx, storage.KeyWorkspaces)

	e.metrics.SwitchesCompleted.Inc()
	e.log.Info("workspace switch completed", zap.String("workspace_id", targetID))
	return true, nil
}

func (e *Engine) setStateLocked(s switchState) {
	e.state = s
	e.log.Debug("switch state", zap.Stringer("state", s))
}

// favoriteClaimsLocked reports whether a document id is claimed by a
// favorite; favorite documents are global and survive switches. Both
// the authoritative array and the advisory mapping are consulted.
func (e *Engine) favoriteClaimsLocked(docID types.DocumentID) bool {
	for i := range e.favorites {
		fav := &e.favorites[i]
		if fav.DocumentID != nil && *fav.DocumentID == docID {
			return true
		}
	}
	if entry, ok := e.mapping[docID]; ok && entry.FavoriteID != "" {
		return true
	}
	return false
}

// membershipLocked decides whether a live document belongs to the given
// workspace. A pinned item of the workspace referencing the document is
// authoritative; the mapping's workspace claim covers normal documents;
// a mapping entry naming one of the workspace's pinned item ids is kept
// as a migration aid for drifted state. Returns the owning pinned item
// when there is one.
func (e *Engine) membershipLocked(ws *types.Workspace, docID types.DocumentID) (*types.PinnedItem, bool) {
	for i := range ws.PinnedItems {
		item := &ws.PinnedItems[i]
		if item.DocumentID != nil && *item.DocumentID == docID {
			return item, true
		}
	}
	entry, ok := e.mapping[docID]
	if !ok {
		return nil, false
	}
	if entry.WorkspaceID == ws.ID {
		return nil, true
	}
	if entry.PinnedItemID != "" {
		if idx := ws.FindPinned(entry.PinnedItemID); idx >= 0 {
			return &ws.PinnedItems[idx], true
		}
	}
	return nil, false
}
