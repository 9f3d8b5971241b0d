// Package types provides shared data structures for the workspace engine.
//
// This package defines core types used across all engine components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Workspace: Named, switchable collection of pinned items and folders
//   - PinnedItem: Stable reference to a document within a workspace
//   - Favorite: Global, capacity-limited pinned item
//   - Folder: Nestable grouping of pinned items
//   - Document: Live host-managed page with a volatile id
//   - TabMapping: Association table from document id to logical item
//   - SnapshotEntry: Restorable state captured before a workspace switch
//
// Import Types:
//   - BookmarkGroup, BookmarkLink: Tree shape consumed by the importer
//
// State Management:
//   - Kind: Closed item classification (normal, pinned, favorite)
//
// Example Usage:
//
//	item := types.PinnedItem{
//	    ID:        string(id.NewPinnedID()),
//	    Title:     "Docs",
//	    URL:       "https://example.com/docs",
//	    SavedURL:  "https://example.com/docs",
//	    CreatedAt: time.Now(),
//	}
package types
