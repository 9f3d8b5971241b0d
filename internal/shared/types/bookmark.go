package types

// BookmarkLink is a single exported bookmark.
type BookmarkLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// BookmarkGroup is one node of the import tree produced by the bookmark
// file parser. Top-level groups correspond to candidate workspaces;
// nested groups become folders.
type BookmarkGroup struct {
	Name    string          `json:"name"`
	Tabs    []BookmarkLink  `json:"tabs"`
	Folders []BookmarkGroup `json:"folders"`
}

// CountTabs returns the number of links in the group and all nested groups.
func (g *BookmarkGroup) CountTabs() int {
	count := len(g.Tabs)
	for i := range g.Folders {
		count += g.Folders[i].CountTabs()
	}
	return count
}

// CountFolders returns the number of nested groups at any depth.
func (g *BookmarkGroup) CountFolders() int {
	count := len(g.Folders)
	for i := range g.Folders {
		count += g.Folders[i].CountFolders()
	}
	return count
}
