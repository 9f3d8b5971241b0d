package types

import "time"

// DocumentID is a volatile identifier assigned by the host document
// registry. IDs are reused after a document is removed, so they must
// never be treated as stable identity.
type DocumentID int

// Document represents a live, host-managed open page.
type Document struct {
	ID      DocumentID `json:"id"`
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Favicon string     `json:"favicon"`
	Active  bool       `json:"active"`
}

// PinnedItem is a stable bookmark-like reference inside one workspace.
// URL records the pin-time address; SavedURL is the address used to
// reopen the item after its document has closed, and only changes on an
// explicit refresh. DocumentID is nil while the item has no open document.
type PinnedItem struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	SavedURL   string      `json:"saved_url"`
	Favicon    string      `json:"favicon"`
	CreatedAt  time.Time   `json:"created_at"`
	DocumentID *DocumentID `json:"document_id,omitempty"`
	FolderID   *string     `json:"folder_id,omitempty"`
}

// Favorite is a global, workspace-independent pinned item. The favorites
// list is capacity-limited; the cap is enforced at creation/conversion time.
type Favorite struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	SavedURL   string      `json:"saved_url"`
	Favicon    string      `json:"favicon"`
	CreatedAt  time.Time   `json:"created_at"`
	DocumentID *DocumentID `json:"document_id,omitempty"`
}

// Folder groups pinned items within a single workspace. Folders form a
// forest: ParentFolderID is nil for root-level folders.
type Folder struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
}

// SnapshotEntry captures one open document's restorable state between a
// workspace-switch capture and its matching restore.
type SnapshotEntry struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Favicon      string `json:"favicon"`
	WasActive    bool   `json:"was_active"`
	IsPinnedItem bool   `json:"is_pinned_item"`
	PinnedItemID string `json:"pinned_item_id,omitempty"`
}

// Workspace is a named, switchable collection of pinned items, folders
// and ordinary open documents. OpenTabsSnapshot is only populated between
// a switch capture and the restore that consumes it.
type Workspace struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	PinnedItems       []PinnedItem    `json:"pinned_items"`
	NormalDocumentIDs []DocumentID    `json:"normal_document_ids"`
	Folders           []Folder        `json:"folders"`
	OpenTabsSnapshot  []SnapshotEntry `json:"open_tabs_snapshot,omitempty"`
}

// FindPinned returns the index of the pinned item with the given id, or -1.
func (w *Workspace) FindPinned(itemID string) int {
	for i := range w.PinnedItems {
		if w.PinnedItems[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindFolder returns the index of the folder with the given id, or -1.
func (w *Workspace) FindFolder(folderID string) int {
	for i := range w.Folders {
		if w.Folders[i].ID == folderID {
			return i
		}
	}
	return -1
}

// MappingEntry associates a live document with the logical item it
// currently represents. At most one of PinnedItemID/FavoriteID is set;
// both empty denotes a plain normal document owned by WorkspaceID.
type MappingEntry struct {
	PinnedItemID string `json:"pinned_item_id,omitempty"`
	FavoriteID   string `json:"favorite_id,omitempty"`
	WorkspaceID  string `json:"workspace_id,omitempty"`
}

// TabMapping maps volatile document ids to their logical associations.
// The mapping is advisory: the PinnedItem/Favorite arrays are authoritative
// and reconciliation repairs drift from them.
type TabMapping map[DocumentID]MappingEntry

// Clone returns a copy safe for independent mutation.
func (m TabMapping) Clone() TabMapping {
	out := make(TabMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
