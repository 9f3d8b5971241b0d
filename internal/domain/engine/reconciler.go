package engine

import (
	"context"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/registry"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
)

// handleEvent applies one registry event to the model. Reconciliation
// never fails: stale or unknown references degrade silently and store
// writes are retried on the next event.
func (e *Engine) handleEvent(ctx context.Context, ev registry.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Type {
	case registry.EventCreated:
		e.onDocumentCreatedLocked(ctx, ev.ID)
	case registry.EventRemoved:
		e.onDocumentRemovedLocked(ctx, ev.ID)
	case registry.EventUpdated:
		e.onDocumentUpdatedLocked(ctx, ev.Document)
	case registry.EventActivated:
		// activation carries no durable state
	}
}

// onDocumentCreatedLocked adopts an externally-opened document into the
// current workspace as a normal document. Documents the engine opened
// itself already have a mapping entry and are skipped.
func (e *Engine) onDocumentCreatedLocked(ctx context.Context, docID types.DocumentID) {
	if _, claimed := e.mapping[docID]; claimed {
		return
	}
	ws := e.currentLocked()
	if ws == nil {
		return
	}

	ws.NormalDocumentIDs = append(ws.NormalDocumentIDs, docID)
	e.mapping[docID] = types.MappingEntry{WorkspaceID: ws.ID}
	e.metrics.IncDocumentsTotal()
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyTabMapping)
}

// onDocumentRemovedLocked clears every reference to a closed document.
// The scan covers all workspaces, not only the current one: the mapping
// is advisory and the item arrays are authoritative, so a drifted
// mapping must never shield a stale reference. Duplicate removal events
// are no-ops.
func (e *Engine) onDocumentRemovedLocked(ctx context.Context, docID types.DocumentID) {
	changed := e.detachDocumentLocked(docID)
	if _, ok := e.mapping[docID]; ok {
		delete(e.mapping, docID)
		changed = true
	}
	if !changed {
		return
	}
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)
}

// onDocumentUpdatedLocked propagates a resolved favicon onto the logical
// item the document represents. Address and title changes are ordinary
// navigation and do not touch the saved state.
func (e *Engine) onDocumentUpdatedLocked(ctx context.Context, doc types.Document) {
	entry, ok := e.mapping[doc.ID]
	if !ok || doc.Favicon == "" {
		return
	}
	favicon := types.SafeFavicon(doc.URL, doc.Favicon)

	if entry.PinnedItemID != "" {
		for wi := range e.workspaces {
			ws := &e.workspaces[wi]
			if idx := ws.FindPinned(entry.PinnedItemID); idx >= 0 {
				if ws.PinnedItems[idx].Favicon == favicon {
					return
				}
				ws.PinnedItems[idx].Favicon = favicon
				e.persistLocked(ctx, storage.KeyWorkspaces)
				return
			}
		}
		return
	}
	if entry.FavoriteID != "" {
		for fi := range e.favorites {
			if e.favorites[fi].ID == entry.FavoriteID {
				if e.favorites[fi].Favicon == favicon {
					return
				}
				e.favorites[fi].Favicon = favicon
				e.persistLocked(ctx, storage.KeyFavorites)
				return
			}
		}
	}
}

// Reconcile runs a full pass over the model against the live document
// set: document references that no longer denote a live document, or
// whose mapping entry names a different item (the id was reused), are
// cleared. Called at startup and after anything that may have bypassed
// event delivery.
func (e *Engine) Reconcile(ctx context.Context) error {
	docs, err := e.reg.List(ctx)
	if err != nil {
		return err
	}
	live := make(map[types.DocumentID]bool, len(docs))
	for _, doc := range docs {
		live[doc.ID] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.SetDocumentsOpen(len(docs))

	changed := false
	for wi := range e.workspaces {
		ws := &e.workspaces[wi]
		for pi := range ws.PinnedItems {
			item := &ws.PinnedItems[pi]
			if item.DocumentID == nil {
				continue
			}
			docID := *item.DocumentID
			entry, mapped := e.mapping[docID]
			if !live[docID] || (mapped && entry.PinnedItemID != item.ID) {
				item.DocumentID = nil
				changed = true
			}
		}
		kept := ws.NormalDocumentIDs[:0]
		for _, docID := range ws.NormalDocumentIDs {
			if live[docID] {
				kept = append(kept, docID)
			} else {
				changed = true
			}
		}
		ws.NormalDocumentIDs = kept
	}

	for fi := range e.favorites {
		fav := &e.favorites[fi]
		if fav.DocumentID == nil {
			continue
		}
		docID := *fav.DocumentID
		entry, mapped := e.mapping[docID]
		if !live[docID] || (mapped && entry.FavoriteID != fav.ID) {
			fav.DocumentID = nil
			changed = true
		}
	}

	for docID := range e.mapping {
		if !live[docID] {
			delete(e.mapping, docID)
			changed = true
		}
	}

	if changed {
		e.log.Debug("reconciliation cleared stale references")
		e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)
	}
	return nil
}

// staleReferenceLocked reports whether a recorded document id no longer
// stands for the given logical item: the document is gone, or its id
// was reused and the mapping now names someone else. Caller holds mu.
func (e *Engine) staleReferenceLocked(ctx context.Context, docID types.DocumentID, pinnedID, favoriteID string) bool {
	if _, err := e.reg.Get(ctx, docID); err != nil {
		return true
	}
	entry, ok := e.mapping[docID]
	if !ok {
		return false
	}
	return entry.PinnedItemID != pinnedID || entry.FavoriteID != favoriteID
}

// detachDocumentLocked nils out every item reference to a document and
// drops it from all normal-document lists. Logical items survive with a
// closed state. The mapping entry is left to the caller. Caller holds mu.
func (e *Engine) detachDocumentLocked(docID types.DocumentID) bool {
	changed := false
	for wi := range e.workspaces {
		ws := &e.workspaces[wi]
		for pi := range ws.PinnedItems {
			item := &ws.PinnedItems[pi]
			if item.DocumentID != nil && *item.DocumentID == docID {
				item.DocumentID = nil
				changed = true
			}
		}
		if removeDocumentID(&ws.NormalDocumentIDs, docID) {
			changed = true
		}
	}
	for fi := range e.favorites {
		fav := &e.favorites[fi]
		if fav.DocumentID != nil && *fav.DocumentID == docID {
			fav.DocumentID = nil
			changed = true
		}
	}
	return changed
}

func removeDocumentID(list *[]types.DocumentID, docID types.DocumentID) bool {
	for i, candidate := range *list {
		if candidate == docID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// clearMappingIfOwnedLocked deletes a mapping entry only when it still
// names the given item, so a reused id claimed by someone else is left
// alone. Caller holds mu.
func (e *Engine) clearMappingIfOwnedLocked(docID types.DocumentID, pinnedID, favoriteID string) {
	entry, ok := e.mapping[docID]
	if !ok {
		return
	}
	if entry.PinnedItemID == pinnedID && entry.FavoriteID == favoriteID {
		delete(e.mapping, docID)
	}
}
