package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/registry"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
)

func TestPinDocument(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc := openNormal(t, eng, reg, "https://a.test", false)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://a.test", item.URL)
	assert.Equal(t, "https://a.test", item.SavedURL)
	require.NotNil(t, item.DocumentID)
	assert.Equal(t, doc.ID, *item.DocumentID)

	st := eng.State()
	ws := st.Workspaces[0]
	require.Len(t, ws.PinnedItems, 1)
	assert.Empty(t, ws.NormalDocumentIDs, "pinning removes the normal-document entry")
	assert.Equal(t, item.ID, st.TabMapping[doc.ID].PinnedItemID)
}

func TestPinDocumentTwiceReturnsExisting(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc := openNormal(t, eng, reg, "https://a.test", false)
	first, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)
	second, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, eng.State().Workspaces[0].PinnedItems, 1)
}

func TestPinDocumentStaleID(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	require.NoError(t, reg.Remove(ctx, doc.ID))

	_, err = eng.PinDocument(ctx, doc.ID, nil)
	assert.ErrorIs(t, err, registry.ErrNoSuchDocument)
}

func TestPinRequiresCurrentWorkspace(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	require.NoError(t, eng.DeleteWorkspace(ctx, eng.State().CurrentWorkspace))
	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)

	_, err = eng.PinDocument(ctx, doc.ID, nil)
	assert.ErrorIs(t, err, ErrNoCurrentWorkspace)
}

func TestFavoritesCapEnforced(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	urls := []string{
		"https://1.test", "https://2.test", "https://3.test", "https://4.test",
		"https://5.test", "https://6.test", "https://7.test", "https://8.test",
	}
	for _, url := range urls {
		doc, err := reg.Create(ctx, url, false)
		require.NoError(t, err)
		_, err = eng.FavoriteDocument(ctx, doc.ID)
		require.NoError(t, err)
	}

	extra, err := reg.Create(ctx, "https://9.test", false)
	require.NoError(t, err)
	_, err = eng.FavoriteDocument(ctx, extra.ID)
	assert.ErrorIs(t, err, ErrFavoritesFull)
	assert.Len(t, eng.State().Favorites, 8)

	// Conversion into favorites is rejected the same way.
	item, err := eng.PinDocument(ctx, extra.ID, nil)
	require.NoError(t, err)
	_, err = eng.ConvertPinnedToFavorite(ctx, item.ID)
	assert.ErrorIs(t, err, ErrFavoritesFull)
	assert.Len(t, eng.State().Favorites, 8)
	assert.Len(t, eng.State().Workspaces[0].PinnedItems, 1, "rejected conversion mutates nothing")
}

func TestConversionRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc := openNormal(t, eng, reg, "https://a.test", false)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	fav, err := eng.ConvertPinnedToFavorite(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, fav.Title)
	assert.Equal(t, item.URL, fav.URL)
	assert.Equal(t, item.SavedURL, fav.SavedURL)
	assert.Equal(t, item.Favicon, fav.Favicon)
	assert.True(t, item.CreatedAt.Equal(fav.CreatedAt))
	require.NotNil(t, fav.DocumentID)
	assert.Equal(t, doc.ID, *fav.DocumentID)

	back, err := eng.ConvertFavoriteToPinned(ctx, fav.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, item.Title, back.Title)
	assert.Equal(t, item.URL, back.URL)
	assert.Equal(t, item.SavedURL, back.SavedURL)
	assert.Equal(t, item.Favicon, back.Favicon)
	assert.True(t, item.CreatedAt.Equal(back.CreatedAt))
	require.NotNil(t, back.DocumentID)
	assert.Equal(t, doc.ID, *back.DocumentID)

	st := eng.State()
	assert.Empty(t, st.Favorites)
	require.Len(t, st.Workspaces[0].PinnedItems, 1)
	assert.Equal(t, back.ID, st.TabMapping[doc.ID].PinnedItemID)
	assert.Empty(t, st.TabMapping[doc.ID].FavoriteID)
}

func pinThree(t *testing.T, eng *Engine, reg *registry.Memory) (a, b, c types.PinnedItem) {
	t.Helper()
	ctx := context.Background()
	urls := []string{"https://a.test", "https://b.test", "https://c.test"}
	items := make([]types.PinnedItem, 0, 3)
	for _, url := range urls {
		doc, err := reg.Create(ctx, url, false)
		require.NoError(t, err)
		item, err := eng.PinDocument(ctx, doc.ID, nil)
		require.NoError(t, err)
		items = append(items, item)
	}
	return items[0], items[1], items[2]
}

func pinnedIDs(st State) []string {
	ids := make([]string, 0, len(st.Workspaces[0].PinnedItems))
	for _, item := range st.Workspaces[0].PinnedItems {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestReorderMoveAfter(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)
	a, b, c := pinThree(t, eng, reg)

	// [A,B,C], move A after C -> [B,C,A]
	require.NoError(t, eng.ReorderPinned(ctx, a.ID, c.ID))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, pinnedIDs(eng.State()))
}

func TestReorderIntoMiddle(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)
	a, b, c := pinThree(t, eng, reg)

	// [A,B,C], move C after A -> [A,C,B]
	require.NoError(t, eng.ReorderPinned(ctx, c.ID, a.ID))
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, pinnedIDs(eng.State()))
}

func TestReorderSelfReferenceAppends(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	// [A,B], reorder(B, B): B is removed before the target lookup, so
	// the lookup misses and B appends, yielding [A,B] again.
	docA, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	a, err := eng.PinDocument(ctx, docA.ID, nil)
	require.NoError(t, err)
	docB, err := reg.Create(ctx, "https://b.test", false)
	require.NoError(t, err)
	b, err := eng.PinDocument(ctx, docB.ID, nil)
	require.NoError(t, err)

	require.NoError(t, eng.ReorderPinned(ctx, b.ID, b.ID))
	assert.Equal(t, []string{a.ID, b.ID}, pinnedIDs(eng.State()))
}

func TestReorderSelfReferenceMovesToEnd(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)
	a, b, c := pinThree(t, eng, reg)

	// [A,B,C], reorder(B, B): B is removed first, the target lookup in
	// [A,C] misses, and B appends -> [A,C,B].
	require.NoError(t, eng.ReorderPinned(ctx, b.ID, b.ID))
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, pinnedIDs(eng.State()))
}

func TestReorderUnknownSource(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)
	_, b, _ := pinThree(t, eng, reg)

	assert.ErrorIs(t, eng.ReorderPinned(ctx, "pin_missing", b.ID), ErrItemNotFound)
}

func TestRemovePinnedIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	require.NoError(t, eng.RemovePinned(ctx, item.ID))
	first := eng.State()
	require.NoError(t, eng.RemovePinned(ctx, item.ID))
	second := eng.State()

	assert.Equal(t, first, second)
	assert.Empty(t, first.Workspaces[0].PinnedItems)

	// Removal deletes the logical item only; the document stays open
	// and is demoted to a normal document of the workspace.
	_, err = reg.Get(ctx, doc.ID)
	require.NoError(t, err, "removal must not close the open document")
	assert.Contains(t, first.Workspaces[0].NormalDocumentIDs, doc.ID)
	assert.Equal(t, first.Workspaces[0].ID, first.TabMapping[doc.ID].WorkspaceID)
	assert.Empty(t, first.TabMapping[doc.ID].PinnedItemID)
}

func TestRemovePinnedStaleDocument(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	// The document dies without an event; removal must not resurrect
	// its id as a normal document.
	require.NoError(t, reg.Remove(ctx, doc.ID))
	require.NoError(t, eng.RemovePinned(ctx, item.ID))

	st := eng.State()
	assert.Empty(t, st.Workspaces[0].PinnedItems)
	assert.Empty(t, st.Workspaces[0].NormalDocumentIDs)
	assert.NotContains(t, st.TabMapping, doc.ID)
}

func TestRemoveFavoriteKeepsDocumentOpen(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	fav, err := eng.FavoriteDocument(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, eng.RemoveFavorite(ctx, fav.ID))

	st := eng.State()
	assert.Empty(t, st.Favorites)
	_, err = reg.Get(ctx, doc.ID)
	require.NoError(t, err, "removal must not close the open document")
	assert.Contains(t, st.Workspaces[0].NormalDocumentIDs, doc.ID)
	assert.Equal(t, st.CurrentWorkspace, st.TabMapping[doc.ID].WorkspaceID)
	assert.Empty(t, st.TabMapping[doc.ID].FavoriteID)
}

func TestCloseDocumentKeepsItem(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	require.NoError(t, eng.CloseDocument(ctx, doc.ID))

	st := eng.State()
	require.Len(t, st.Workspaces[0].PinnedItems, 1)
	assert.Nil(t, st.Workspaces[0].PinnedItems[0].DocumentID)
	assert.NotContains(t, st.TabMapping, doc.ID)

	// Reopening goes through the saved address.
	docID, err := eng.ActivatePinned(ctx, item.ID)
	require.NoError(t, err)
	reopened, err := reg.Get(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.test", reopened.URL)
	assert.True(t, reopened.Active)
}

func TestActivatePinnedLiveDocument(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	other, err := reg.Create(ctx, "https://b.test", true)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	docID, err := eng.ActivatePinned(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, docID, "live documents are focused, not reopened")

	got, err := reg.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	gotOther, err := reg.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, gotOther.Active)
}

func TestActivatePinnedReusedID(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	// The document closes and its id is reused for an unrelated
	// document adopted as a normal document.
	require.NoError(t, reg.Remove(ctx, doc.ID))
	reused, err := reg.Create(ctx, "https://unrelated.test", false)
	require.NoError(t, err)
	require.Equal(t, doc.ID, reused.ID)
	eng.handleEvent(ctx, registry.Event{Type: registry.EventRemoved, ID: doc.ID})
	eng.handleEvent(ctx, registry.Event{Type: registry.EventCreated, ID: reused.ID, Document: reused})

	docID, err := eng.ActivatePinned(ctx, item.ID)
	require.NoError(t, err)
	assert.NotEqual(t, reused.ID, docID, "a reused id must not be adopted")

	opened, err := reg.Get(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.test", opened.URL)
}

func TestActivateFavoriteReopens(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://fav.test", false)
	require.NoError(t, err)
	fav, err := eng.FavoriteDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NoError(t, eng.CloseDocument(ctx, doc.ID))

	docID, err := eng.ActivateFavorite(ctx, fav.ID)
	require.NoError(t, err)
	opened, err := reg.Get(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "https://fav.test", opened.URL)
	assert.Equal(t, fav.ID, eng.State().TabMapping[docID].FavoriteID)
}

func TestRefreshSaved(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	// Ordinary navigation never touches the saved address.
	require.NoError(t, reg.Navigate(ctx, doc.ID, "https://a.test/deep", "Deep"))
	assert.Equal(t, "https://a.test", eng.State().Workspaces[0].PinnedItems[0].SavedURL)

	require.NoError(t, eng.RefreshSaved(ctx, types.KindPinned, item.ID))
	refreshed := eng.State().Workspaces[0].PinnedItems[0]
	assert.Equal(t, "https://a.test/deep", refreshed.SavedURL)
	assert.Equal(t, "Deep", refreshed.Title)
}

func TestFolderLifecycle(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	parent, err := eng.CreateFolder(ctx, "Parent", nil)
	require.NoError(t, err)
	child, err := eng.CreateFolder(ctx, "Child", &parent.ID)
	require.NoError(t, err)

	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, &parent.ID)
	require.NoError(t, err)

	require.NoError(t, eng.RenameFolder(ctx, parent.ID, "Renamed"))
	st := eng.State()
	assert.Equal(t, "Renamed", st.Workspaces[0].Folders[0].Name)

	// Deleting a folder keeps its contents: items go to the root and
	// child folders attach to the deleted folder's parent.
	require.NoError(t, eng.DeleteFolder(ctx, parent.ID))
	st = eng.State()
	require.Len(t, st.Workspaces[0].Folders, 1)
	assert.Equal(t, child.ID, st.Workspaces[0].Folders[0].ID)
	assert.Nil(t, st.Workspaces[0].Folders[0].ParentFolderID)
	require.Len(t, st.Workspaces[0].PinnedItems, 1)
	assert.Nil(t, st.Workspaces[0].PinnedItems[0].FolderID)
	_ = item
}

func TestMovePinnedToFolder(t *testing.T) {
	ctx := context.Background()
	eng, reg, _ := newTestEngine(t)

	folder, err := eng.CreateFolder(ctx, "F", nil)
	require.NoError(t, err)
	doc, err := reg.Create(ctx, "https://a.test", false)
	require.NoError(t, err)
	item, err := eng.PinDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	require.NoError(t, eng.MovePinnedToFolder(ctx, item.ID, &folder.ID))
	got := eng.State().Workspaces[0].PinnedItems[0]
	require.NotNil(t, got.FolderID)
	assert.Equal(t, folder.ID, *got.FolderID)

	missing := "fld_missing"
	assert.ErrorIs(t, eng.MovePinnedToFolder(ctx, item.ID, &missing), ErrFolderNotFound)

	require.NoError(t, eng.MovePinnedToFolder(ctx, item.ID, nil))
	assert.Nil(t, eng.State().Workspaces[0].PinnedItems[0].FolderID)
}
