package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/id"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
)

// ImportResult reports what an import added and what it had to skip.
type ImportResult struct {
	WorkspacesAdded int `json:"workspaces_added"`
	FoldersAdded    int `json:"folders_added"`
	ItemsAdded      int `json:"items_added"`
	Skipped         int `json:"skipped"`
}

// ImportAsWorkspaces creates one workspace per bookmark group, with the
// group's folder nesting preserved and every bookmark as a closed
// pinned item. When no workspace was current the first imported one
// becomes current.
func (e *Engine) ImportAsWorkspaces(ctx context.Context, groups []types.BookmarkGroup) (ImportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result ImportResult
	for _, group := range groups {
		folders, items := importGroup(group, nil)
		if folders == nil {
			folders = []types.Folder{}
		}
		if items == nil {
			items = []types.PinnedItem{}
		}
		ws := types.Workspace{
			ID:                id.NewWorkspaceID().String(),
			Name:              group.Name,
			PinnedItems:       items,
			NormalDocumentIDs: []types.DocumentID{},
			Folders:           folders,
		}
		e.workspaces = append(e.workspaces, ws)
		result.WorkspacesAdded++
		result.FoldersAdded += len(folders)
		result.ItemsAdded += len(items)
	}

	keys := []string{storage.KeyWorkspaces}
	if e.currentID == "" && result.WorkspacesAdded > 0 {
		e.currentID = e.workspaces[len(e.workspaces)-result.WorkspacesAdded].ID
		keys = append(keys, storage.KeyCurrentWorkspace)
	}
	e.persistLocked(ctx, keys...)

	e.metrics.RecordImport(result.ItemsAdded, 0)
	e.log.Info("bookmarks imported as workspaces",
		zap.Int("workspaces", result.WorkspacesAdded),
		zap.Int("items", result.ItemsAdded))
	return result, nil
}

// ImportIntoCurrent merges bookmark groups into the current workspace.
// Folder names are kept as-is, not prefixed with the group name.
func (e *Engine) ImportIntoCurrent(ctx context.Context, groups []types.BookmarkGroup) (ImportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := e.currentLocked()
	if ws == nil {
		return ImportResult{}, ErrNoCurrentWorkspace
	}

	var result ImportResult
	for _, group := range groups {
		folders, items := importGroup(group, nil)
		ws.Folders = append(ws.Folders, folders...)
		ws.PinnedItems = append(ws.PinnedItems, items...)
		result.FoldersAdded += len(folders)
		result.ItemsAdded += len(items)
	}
	e.persistLocked(ctx, storage.KeyWorkspaces)

	e.metrics.RecordImport(result.ItemsAdded, 0)
	return result, nil
}

// ImportAsFavorites flattens every bookmark across all groups and
// nesting levels into the favorites list. Items beyond the favorites
// cap are skipped and counted.
func (e *Engine) ImportAsFavorites(ctx context.Context, groups []types.BookmarkGroup) (ImportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result ImportResult
	now := time.Now()
	for _, group := range groups {
		flattenGroup(group, func(link types.BookmarkLink) {
			if len(e.favorites) >= e.maxFavorites {
				result.Skipped++
				return
			}
			e.favorites = append(e.favorites, types.Favorite{
				ID:        id.NewFavoriteID().String(),
				Title:     linkTitle(link),
				URL:       link.URL,
				SavedURL:  link.URL,
				Favicon:   types.DefaultFavicon,
				CreatedAt: now,
			})
			result.ItemsAdded++
		})
	}
	e.persistLocked(ctx, storage.KeyFavorites)

	e.metrics.RecordImport(result.ItemsAdded, result.Skipped)
	if result.Skipped > 0 {
		e.log.Info("favorites import hit cap",
			zap.Int("added", result.ItemsAdded), zap.Int("skipped", result.Skipped))
	}
	return result, nil
}

// importGroup converts one bookmark group into folders and pinned
// items, returning them rather than mutating a workspace in place.
// Nesting is preserved via ParentFolderID.
func importGroup(group types.BookmarkGroup, parentID *string) ([]types.Folder, []types.PinnedItem) {
	var folders []types.Folder
	var items []types.PinnedItem

	now := time.Now()
	for _, link := range group.Tabs {
		items = append(items, types.PinnedItem{
			ID:        id.NewPinnedID().String(),
			Title:     linkTitle(link),
			URL:       link.URL,
			SavedURL:  link.URL,
			Favicon:   types.DefaultFavicon,
			CreatedAt: now,
			FolderID:  parentID,
		})
	}

	for _, sub := range group.Folders {
		folder := types.Folder{
			ID:             id.NewFolderID().String(),
			Name:           sub.Name,
			ParentFolderID: parentID,
		}
		folders = append(folders, folder)

		folderID := folder.ID
		subFolders, subItems := importGroup(sub, &folderID)
		folders = append(folders, subFolders...)
		items = append(items, subItems...)
	}
	return folders, items
}

func flattenGroup(group types.BookmarkGroup, visit func(types.BookmarkLink)) {
	for _, link := range group.Tabs {
		visit(link)
	}
	for _, sub := range group.Folders {
		flattenGroup(sub, visit)
	}
}

func linkTitle(link types.BookmarkLink) string {
	if link.Title != "" {
		return link.Title
	}
	return link.URL
}
