package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
)

func TestImportAsWorkspaces(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	groups := []types.BookmarkGroup{{
		Name: "Work",
		Tabs: []types.BookmarkLink{{Title: "y", URL: "https://y"}},
		Folders: []types.BookmarkGroup{{
			Name: "F1",
			Tabs: []types.BookmarkLink{{Title: "x", URL: "https://x"}},
		}},
	}}

	result, err := eng.ImportAsWorkspaces(ctx, groups)
	require.NoError(t, err)
	assert.Equal(t, 1, result.WorkspacesAdded)
	assert.Equal(t, 1, result.FoldersAdded)
	assert.Equal(t, 2, result.ItemsAdded)
	assert.Zero(t, result.Skipped)

	st := eng.State()
	require.Len(t, st.Workspaces, 2)
	ws := st.Workspaces[1]
	assert.Equal(t, "Work", ws.Name)
	require.Len(t, ws.Folders, 1)
	assert.Equal(t, "F1", ws.Folders[0].Name)
	assert.Nil(t, ws.Folders[0].ParentFolderID)

	require.Len(t, ws.PinnedItems, 2)
	root := ws.PinnedItems[0]
	assert.Equal(t, "y", root.Title)
	assert.Equal(t, "https://y", root.URL)
	assert.Equal(t, "https://y", root.SavedURL)
	assert.Nil(t, root.FolderID)
	assert.Nil(t, root.DocumentID)

	nested := ws.PinnedItems[1]
	assert.Equal(t, "x", nested.Title)
	assert.Equal(t, "https://x", nested.URL)
	require.NotNil(t, nested.FolderID)
	assert.Equal(t, ws.Folders[0].ID, *nested.FolderID)
}

func TestImportPreservesDeepNesting(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	groups := []types.BookmarkGroup{{
		Name: "Deep",
		Folders: []types.BookmarkGroup{{
			Name: "Outer",
			Folders: []types.BookmarkGroup{{
				Name: "Inner",
				Tabs: []types.BookmarkLink{{Title: "leaf", URL: "https://leaf"}},
			}},
		}},
	}}

	result, err := eng.ImportAsWorkspaces(ctx, groups)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FoldersAdded)

	ws := eng.State().Workspaces[1]
	require.Len(t, ws.Folders, 2)
	outer, inner := ws.Folders[0], ws.Folders[1]
	assert.Nil(t, outer.ParentFolderID)
	require.NotNil(t, inner.ParentFolderID)
	assert.Equal(t, outer.ID, *inner.ParentFolderID)

	require.Len(t, ws.PinnedItems, 1)
	require.NotNil(t, ws.PinnedItems[0].FolderID)
	assert.Equal(t, inner.ID, *ws.PinnedItems[0].FolderID)
}

func TestImportBecomesCurrentWhenNoneIs(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	require.NoError(t, eng.DeleteWorkspace(ctx, eng.State().CurrentWorkspace))

	result, err := eng.ImportAsWorkspaces(ctx, []types.BookmarkGroup{
		{Name: "First"}, {Name: "Second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.WorkspacesAdded)

	st := eng.State()
	assert.Equal(t, st.Workspaces[0].ID, st.CurrentWorkspace)
	assert.Equal(t, "First", st.Workspaces[0].Name)
}

func TestImportIntoCurrent(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	groups := []types.BookmarkGroup{{
		Name:    "Group",
		Tabs:    []types.BookmarkLink{{Title: "a", URL: "https://a"}},
		Folders: []types.BookmarkGroup{{Name: "F", Tabs: []types.BookmarkLink{{Title: "b", URL: "https://b"}}}},
	}}

	result, err := eng.ImportIntoCurrent(ctx, groups)
	require.NoError(t, err)
	assert.Equal(t, 0, result.WorkspacesAdded)
	assert.Equal(t, 1, result.FoldersAdded)
	assert.Equal(t, 2, result.ItemsAdded)

	st := eng.State()
	require.Len(t, st.Workspaces, 1, "no workspace is created")
	ws := st.Workspaces[0]
	assert.Len(t, ws.PinnedItems, 2)
	require.Len(t, ws.Folders, 1)
	assert.Equal(t, "F", ws.Folders[0].Name, "folder names are not prefixed with the group name")
}

func TestImportIntoCurrentRequiresWorkspace(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	require.NoError(t, eng.DeleteWorkspace(ctx, eng.State().CurrentWorkspace))

	_, err := eng.ImportIntoCurrent(ctx, []types.BookmarkGroup{{Name: "G"}})
	assert.ErrorIs(t, err, ErrNoCurrentWorkspace)
}

func TestImportAsFavoritesFlattensAndCaps(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	var links []types.BookmarkLink
	for i := 0; i < 6; i++ {
		links = append(links, types.BookmarkLink{
			Title: fmt.Sprintf("t%d", i),
			URL:   fmt.Sprintf("https://%d.test", i),
		})
	}
	groups := []types.BookmarkGroup{{
		Name: "All",
		Tabs: links[:3],
		Folders: []types.BookmarkGroup{{
			Name: "Nested",
			Tabs: links[3:],
			Folders: []types.BookmarkGroup{{
				Name: "Deeper",
				Tabs: []types.BookmarkLink{
					{Title: "extra1", URL: "https://extra1.test"},
					{Title: "extra2", URL: "https://extra2.test"},
					{Title: "extra3", URL: "https://extra3.test"},
					{Title: "extra4", URL: "https://extra4.test"},
				},
			}},
		}},
	}}

	result, err := eng.ImportAsFavorites(ctx, groups)
	require.NoError(t, err)
	assert.Equal(t, 8, result.ItemsAdded)
	assert.Equal(t, 2, result.Skipped, "items beyond the cap are counted, not imported")

	st := eng.State()
	require.Len(t, st.Favorites, 8)
	assert.Equal(t, "t0", st.Favorites[0].Title)
	for _, fav := range st.Favorites {
		assert.Nil(t, fav.DocumentID)
	}
}

func TestImportEmptyTitleFallsBackToURL(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	_, err := eng.ImportIntoCurrent(ctx, []types.BookmarkGroup{{
		Name: "G",
		Tabs: []types.BookmarkLink{{URL: "https://untitled.test"}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "https://untitled.test", eng.State().Workspaces[0].PinnedItems[0].Title)
}
