// Package bookmarks parses Netscape-format bookmark exports (the HTML
// file every major browser produces) into the recursive group shape the
// import translator consumes.
package bookmarks

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
)

// looseGroupName collects top-level links that sit outside any folder.
const looseGroupName = "Imported"

// Parse reads a bookmark file and returns its top-level folders as
// groups, with nesting preserved. Loose top-level links are gathered
// into a synthetic group. Input without a bookmark list yields an empty
// result, not an error.
func Parse(r io.Reader) ([]types.BookmarkGroup, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmark file: %w", err)
	}

	root := doc.Find("dl").First()
	if root.Length() == 0 {
		return []types.BookmarkGroup{}, nil
	}

	links, groups := parseList(root)
	if len(links) > 0 {
		groups = append(groups, types.BookmarkGroup{Name: looseGroupName, Tabs: links})
	}
	return groups, nil
}

// ParseString parses bookmark file content held in memory.
func ParseString(content string) ([]types.BookmarkGroup, error) {
	return Parse(strings.NewReader(content))
}

// parseList walks one definition list. Browsers emit a folder as an H3
// followed by a nested DL; depending on how the markup was normalized
// the nested list lands inside the DT or as its next sibling, so both
// placements are accepted.
func parseList(list *goquery.Selection) ([]types.BookmarkLink, []types.BookmarkGroup) {
	var links []types.BookmarkLink
	var groups []types.BookmarkGroup

	list.ChildrenFiltered("dt").Each(func(_ int, dt *goquery.Selection) {
		if h3 := dt.ChildrenFiltered("h3"); h3.Length() > 0 {
			group := types.BookmarkGroup{Name: strings.TrimSpace(h3.First().Text())}

			sub := dt.ChildrenFiltered("dl").First()
			if sub.Length() == 0 {
				if next := dt.Next(); next.Is("dl") {
					sub = next
				}
			}
			if sub.Length() > 0 {
				group.Tabs, group.Folders = parseList(sub)
			}
			groups = append(groups, group)
			return
		}

		a := dt.ChildrenFiltered("a").First()
		if a.Length() == 0 {
			return
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		links = append(links, types.BookmarkLink{
			Title: strings.TrimSpace(a.Text()),
			URL:   href,
		})
	})

	return links, groups
}
