package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/id"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
)

// PinDocument converts a normal open document into a pinned item of the
// current workspace, optionally placed into a folder. Pinning a document
// that is already pinned in the current workspace returns the existing
// item unchanged.
func (e *Engine) PinDocument(ctx context.Context, docID types.DocumentID, folderID *string) (types.PinnedItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return types.PinnedItem{}, ErrNoCurrentWorkspace
	}
	if folderID != nil && ws.FindFolder(*folderID) < 0 {
		return types.PinnedItem{}, ErrFolderNotFound
	}

	doc, err := e.reg.Get(ctx, docID)
	if err != nil {
		return types.PinnedItem{}, fmt.Errorf("cannot pin document %d: %w", docID, err)
	}

	for i := range ws.PinnedItems {
		existing := &ws.PinnedItems[i]
		if existing.DocumentID != nil && *existing.DocumentID == docID {
			return *existing, nil
		}
	}

	// A document id is referenced by at most one item at a time.
	e.detachDocumentLocked(docID)

	item := types.PinnedItem{
		ID:         id.NewPinnedID().String(),
		Title:      doc.Title,
		URL:        doc.URL,
		SavedURL:   doc.URL,
		Favicon:    types.SafeFavicon(doc.URL, doc.Favicon),
		CreatedAt:  time.Now(),
		DocumentID: &docID,
		FolderID:   folderID,
	}
	ws.PinnedItems = append(ws.PinnedItems, item)
	e.mapping[docID] = types.MappingEntry{PinnedItemID: item.ID}

	e.metrics.RecordConversion(types.KindNormal.String(), types.KindPinned.String())
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)
	return item, nil
}

// FavoriteDocument converts a normal open document into a global
// favorite, subject to the favorites cap.
func (e *Engine) FavoriteDocument(ctx context.Context, docID types.DocumentID) (types.Favorite, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.favorites {
		existing := &e.favorites[i]
		if existing.DocumentID != nil && *existing.DocumentID == docID {
			return *existing, nil
		}
	}
	if len(e.favorites) >= e.maxFavorites {
		return types.Favorite{}, ErrFavoritesFull
	}

	doc, err := e.reg.Get(ctx, docID)
	if err != nil {
		return types.Favorite{}, fmt.Errorf("cannot favorite document %d: %w", docID, err)
	}

	e.detachDocumentLocked(docID)

	fav := types.Favorite{
		ID:         id.NewFavoriteID().String(),
		Title:      doc.Title,
		URL:        doc.URL,
		SavedURL:   doc.URL,
		Favicon:    types.SafeFavicon(doc.URL, doc.Favicon),
		CreatedAt:  time.Now(),
		DocumentID: &docID,
	}
	e.favorites = append(e.favorites, fav)
	e.mapping[docID] = types.MappingEntry{FavoriteID: fav.ID}

	e.metrics.RecordConversion(types.KindNormal.String(), types.KindFavorite.String())
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)
	return fav, nil
}

// ConvertPinnedToFavorite moves a pinned item of the current workspace
// into the global favorites list. The item's saved state and creation
// time carry over; only its identity is reminted for the new container.
func (e *Engine) ConvertPinnedToFavorite(ctx context.Context, itemID string) (types.Favorite, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return types.Favorite{}, ErrNoCurrentWorkspace
	}
	idx := ws.FindPinned(itemID)
	if idx < 0 {
		return types.Favorite{}, ErrItemNotFound
	}
	if len(e.favorites) >= e.maxFavorites {
		return types.Favorite{}, ErrFavoritesFull
	}

	item := ws.PinnedItems[idx]
	fav := types.Favorite{
		ID:         id.NewFavoriteID().String(),
		Title:      item.Title,
		URL:        item.URL,
		SavedURL:   item.SavedURL,
		Favicon:    item.Favicon,
		CreatedAt:  item.CreatedAt,
		DocumentID: item.DocumentID,
	}
	ws.PinnedItems = append(ws.PinnedItems[:idx], ws.PinnedItems[idx+1:]...)
	e.favorites = append(e.favorites, fav)
	if fav.DocumentID != nil {
		e.mapping[*fav.DocumentID] = types.MappingEntry{FavoriteID: fav.ID}
	}

	e.metrics.RecordConversion(types.KindPinned.String(), types.KindFavorite.String())
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)
	return fav, nil
}

// ConvertFavoriteToPinned moves a global favorite into the current
// workspace's pinned items, optionally into a folder.
func (e *Engine) ConvertFavoriteToPinned(ctx context.Context, favoriteID string, folderID *string) (types.PinnedItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return types.PinnedItem{}, ErrNoCurrentWorkspace
	}
	if folderID != nil && ws.FindFolder(*folderID) < 0 {
		return types.PinnedItem{}, ErrFolderNotFound
	}
	idx := e.indexOfFavoriteLocked(favoriteID)
	if idx < 0 {
		return types.PinnedItem{}, ErrItemNotFound
	}

	fav := e.favorites[idx]
	item := types.PinnedItem{
		ID:         id.NewPinnedID().String(),
		Title:      fav.Title,
		URL:        fav.URL,
		SavedURL:   fav.SavedURL,
		Favicon:    fav.Favicon,
		CreatedAt:  fav.CreatedAt,
		DocumentID: fav.DocumentID,
		FolderID:   folderID,
	}
	e.favorites = append(e.favorites[:idx], e.favorites[idx+1:]...)
	ws.PinnedItems = append(ws.PinnedItems, item)
	if item.DocumentID != nil {
		e.mapping[*item.DocumentID] = types.MappingEntry{PinnedItemID: item.ID}
	}

	e.metrics.RecordConversion(types.KindFavorite.String(), types.KindPinned.String())
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)
	return item, nil
}

// MovePinnedToFolder reassigns a pinned item's folder. A nil folder id
// moves the item to the workspace root. The entity keeps its identity.
func (e *Engine) MovePinnedToFolder(ctx context.Context, itemID string, folderID *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return ErrNoCurrentWorkspace
	}
	idx := ws.FindPinned(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if folderID != nil && ws.FindFolder(*folderID) < 0 {
		return ErrFolderNotFound
	}

	ws.PinnedItems[idx].FolderID = folderID
	e.persistLocked(ctx, storage.KeyWorkspaces)
	return nil
}

// ReorderPinned moves a pinned item immediately after the target item.
// The source is removed first and the target located afterwards, so a
// self-referencing reorder appends the source at the end.
func (e *Engine) ReorderPinned(ctx context.Context, sourceID, targetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return ErrNoCurrentWorkspace
	}

	items, moved := reorderByID(ws.PinnedItems, func(item *types.PinnedItem) string { return item.ID }, sourceID, targetID)
	if !moved {
		return ErrItemNotFound
	}
	ws.PinnedItems = items
	e.persistLocked(ctx, storage.KeyWorkspaces)
	return nil
}

// ReorderFavorites moves a favorite immediately after the target, with
// the same self-reference tie-break as ReorderPinned.
func (e *Engine) ReorderFavorites(ctx context.Context, sourceID, targetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	favorites, moved := reorderByID(e.favorites, func(fav *types.Favorite) string { return fav.ID }, sourceID, targetID)
	if !moved {
		return ErrItemNotFound
	}
	e.favorites = favorites
	e.persistLocked(ctx, storage.KeyFavorites)
	return nil
}

// RemovePinned deletes a pinned item. Its document is not closed: a
// live one is demoted to a normal document of the same workspace.
// Removing an unknown item is a no-op.
func (e *Engine) RemovePinned(ctx context.Context, itemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for wi := range e.workspaces {
		ws := &e.workspaces[wi]
		idx := ws.FindPinned(itemID)
		if idx < 0 {
			continue
		}

		item := ws.PinnedItems[idx]
		ws.PinnedItems = append(ws.PinnedItems[:idx], ws.PinnedItems[idx+1:]...)
		if item.DocumentID != nil {
			e.demoteDocumentLocked(ctx, *item.DocumentID, ws)
		}
		e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyTabMapping)
		return nil
	}
	return nil
}

// RemoveFavorite deletes a favorite. Its document is not closed: a live
// one is demoted to a normal document of the current workspace.
// Removing an unknown favorite is a no-op.
func (e *Engine) RemoveFavorite(ctx context.Context, favoriteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfFavoriteLocked(favoriteID)
	if idx < 0 {
		return nil
	}

	fav := e.favorites[idx]
	e.favorites = append(e.favorites[:idx], e.favorites[idx+1:]...)
	if fav.DocumentID != nil {
		e.demoteDocumentLocked(ctx, *fav.DocumentID, e.currentLocked())
	}
	e.persistLocked(ctx, storage.KeyFavorites, storage.KeyWorkspaces, storage.KeyTabMapping)
	return nil
}

// demoteDocumentLocked reclassifies a removed item's document as a
// normal document of the given workspace. Item removal deletes the
// logical item only; closing the document is CloseDocument's job.
// Stale ids just lose their mapping entry.
func (e *Engine) demoteDocumentLocked(ctx context.Context, docID types.DocumentID, ws *types.Workspace) {
	delete(e.mapping, docID)
	if ws == nil {
		return
	}
	if _, err := e.reg.Get(ctx, docID); err != nil {
		return
	}
	ws.NormalDocumentIDs = append(ws.NormalDocumentIDs, docID)
	e.mapping[docID] = types.MappingEntry{WorkspaceID: ws.ID}
}

// CloseDocument closes a live document while keeping any logical item
// that references it, which degrades to the closed state.
func (e *Engine) CloseDocument(ctx context.Context, docID types.DocumentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detachDocumentLocked(docID)
	delete(e.mapping, docID)
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyFavorites, storage.KeyTabMapping)

	// Stale ids are already in the state this call wants.
	_ = e.reg.Remove(ctx, docID)
	return nil
}

// ActivatePinned focuses the pinned item's document, reopening it at
// the saved address when the recorded document is gone or its id was
// reused for something else.
func (e *Engine) ActivatePinned(ctx context.Context, itemID string) (types.DocumentID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return 0, ErrNoCurrentWorkspace
	}
	idx := ws.FindPinned(itemID)
	if idx < 0 {
		return 0, ErrItemNotFound
	}
	item := &ws.PinnedItems[idx]

	if item.DocumentID != nil {
		docID := *item.DocumentID
		if !e.staleReferenceLocked(ctx, docID, item.ID, "") {
			if err := e.reg.Activate(ctx, docID); err == nil {
				return docID, nil
			}
		}
		item.DocumentID = nil
		e.clearMappingIfOwnedLocked(docID, item.ID, "")
		e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyTabMapping)
	}

	url := item.SavedURL
	if url == "" {
		url = item.URL
	}
	doc, err := e.reg.Create(ctx, url, true)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen pinned item: %w", err)
	}

	docID := doc.ID
	item.DocumentID = &docID
	e.mapping[docID] = types.MappingEntry{PinnedItemID: item.ID}
	e.metrics.IncDocumentsTotal()
	e.persistLocked(ctx, storage.KeyWorkspaces, storage.KeyTabMapping)
	return docID, nil
}

// ActivateFavorite focuses the favorite's document, reopening it at the
// saved address when needed.
func (e *Engine) ActivateFavorite(ctx context.Context, favoriteID string) (types.DocumentID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfFavoriteLocked(favoriteID)
	if idx < 0 {
		return 0, ErrItemNotFound
	}
	fav := &e.favorites[idx]

	if fav.DocumentID != nil {
		docID := *fav.DocumentID
		if !e.staleReferenceLocked(ctx, docID, "", fav.ID) {
			if err := e.reg.Activate(ctx, docID); err == nil {
				return docID, nil
			}
		}
		fav.DocumentID = nil
		e.clearMappingIfOwnedLocked(docID, "", fav.ID)
		e.persistLocked(ctx, storage.KeyFavorites, storage.KeyTabMapping)
	}

	url := fav.SavedURL
	if url == "" {
		url = fav.URL
	}
	doc, err := e.reg.Create(ctx, url, true)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen favorite: %w", err)
	}

	docID := doc.ID
	fav.DocumentID = &docID
	e.mapping[docID] = types.MappingEntry{FavoriteID: fav.ID}
	e.metrics.IncDocumentsTotal()
	e.persistLocked(ctx, storage.KeyFavorites, storage.KeyTabMapping)
	return docID, nil
}

// ActivateDocument focuses a live normal document.
func (e *Engine) ActivateDocument(ctx context.Context, docID types.DocumentID) error {
	return e.reg.Activate(ctx, docID)
}

// RefreshSaved re-baselines an item's saved state from its live
// document: the address to reopen at, the title and the favicon. With
// no live document the call degrades to a no-op.
func (e *Engine) RefreshSaved(ctx context.Context, kind types.Kind, itemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case types.KindPinned:
		ws := e.currentLocked()
		if ws == nil {
			return ErrNoCurrentWorkspace
		}
		idx := ws.FindPinned(itemID)
		if idx < 0 {
			return ErrItemNotFound
		}
		item := &ws.PinnedItems[idx]
		if item.DocumentID == nil {
			return nil
		}
		doc, err := e.reg.Get(ctx, *item.DocumentID)
		if err != nil {
			item.DocumentID = nil
			e.persistLocked(ctx, storage.KeyWorkspaces)
			return nil
		}
		item.SavedURL = doc.URL
		item.Title = doc.Title
		item.Favicon = types.SafeFavicon(doc.URL, doc.Favicon)
		e.persistLocked(ctx, storage.KeyWorkspaces)
		return nil

	case types.KindFavorite:
		idx := e.indexOfFavoriteLocked(itemID)
		if idx < 0 {
			return ErrItemNotFound
		}
		fav := &e.favorites[idx]
		if fav.DocumentID == nil {
			return nil
		}
		doc, err := e.reg.Get(ctx, *fav.DocumentID)
		if err != nil {
			fav.DocumentID = nil
			e.persistLocked(ctx, storage.KeyFavorites)
			return nil
		}
		fav.SavedURL = doc.URL
		fav.Title = doc.Title
		fav.Favicon = types.SafeFavicon(doc.URL, doc.Favicon)
		e.persistLocked(ctx, storage.KeyFavorites)
		return nil

	default:
		return ErrItemNotFound
	}
}

// CreateFolder adds a folder to the current workspace, attached to an
// existing parent folder or to the root.
func (e *Engine) CreateFolder(ctx context.Context, name string, parentID *string) (types.Folder, error) {
	if name == "" {
		return types.Folder{}, fmt.Errorf("folder name required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return types.Folder{}, ErrNoCurrentWorkspace
	}
	if parentID != nil && ws.FindFolder(*parentID) < 0 {
		return types.Folder{}, ErrFolderNotFound
	}

	folder := types.Folder{
		ID:             id.NewFolderID().String(),
		Name:           name,
		ParentFolderID: parentID,
	}
	ws.Folders = append(ws.Folders, folder)
	e.persistLocked(ctx, storage.KeyWorkspaces)
	return folder, nil
}

// RenameFolder changes a folder's display name.
func (e *Engine) RenameFolder(ctx context.Context, folderID, name string) error {
	if name == "" {
		return fmt.Errorf("folder name required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return ErrNoCurrentWorkspace
	}
	idx := ws.FindFolder(folderID)
	if idx < 0 {
		return ErrFolderNotFound
	}
	ws.Folders[idx].Name = name
	e.persistLocked(ctx, storage.KeyWorkspaces)
	return nil
}

// DeleteFolder removes a folder without deleting its contents: its
// pinned items are promoted to the workspace root and its child folders
// are reparented onto the deleted folder's parent.
func (e *Engine) DeleteFolder(ctx context.Context, folderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return ErrNoCurrentWorkspace
	}
	idx := ws.FindFolder(folderID)
	if idx < 0 {
		return ErrFolderNotFound
	}

	parentID := ws.Folders[idx].ParentFolderID
	ws.Folders = append(ws.Folders[:idx], ws.Folders[idx+1:]...)

	for i := range ws.PinnedItems {
		item := &ws.PinnedItems[i]
		if item.FolderID != nil && *item.FolderID == folderID {
			item.FolderID = nil
		}
	}
	for i := range ws.Folders {
		child := &ws.Folders[i]
		if child.ParentFolderID != nil && *child.ParentFolderID == folderID {
			child.ParentFolderID = parentID
		}
	}

	e.persistLocked(ctx, storage.KeyWorkspaces)
	e.log.Debug("folder deleted, contents promoted", zap.String("folder_id", folderID))
	return nil
}

func (e *Engine) indexOfFavoriteLocked(favoriteID string) int {
	for i := range e.favorites {
		if e.favorites[i].ID == favoriteID {
			return i
		}
	}
	return -1
}

// reorderByID removes the source element, locates the target in the
// shrunk list and reinserts the source immediately after it. A target
// that is gone (including the source itself) appends at the end.
func reorderByID[T any](items []T, idOf func(*T) string, sourceID, targetID string) ([]T, bool) {
	src := -1
	for i := range items {
		if idOf(&items[i]) == sourceID {
			src = i
			break
		}
	}
	if src < 0 {
		return items, false
	}

	moved := items[src]
	items = append(items[:src], items[src+1:]...)

	dst := -1
	for i := range items {
		if idOf(&items[i]) == targetID {
			dst = i
			break
		}
	}
	if dst < 0 {
		return append(items, moved), true
	}

	items = append(items, moved)
	copy(items[dst+2:], items[dst+1:len(items)-1])
	items[dst+1] = moved
	return items, true
}
