package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/goliatone/go-freshcache/routes"
)

// item is one selectable row. Every row links to a reader path.
type item struct {
	title string
	desc  string
	path  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

func mangaItems(summaries []routes.MangaSummary) []list.Item {
	items := make([]list.Item, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, item{
			title: s.Title,
			desc:  fmt.Sprintf("★ %.1f  ch. %d", s.Rating, s.LatestChapter),
			path:  routes.MangaPath(s.Slug),
		})
	}
	return items
}

// pageItems lists the rows of a loaded page and a heading for it.
func pageItems(page any) (string, []list.Item) {
	switch p := page.(type) {
	case routes.Homepage:
		items := mangaItems(p.Featured)
		items = append(items, mangaItems(p.Latest)...)
		if p.Page < p.TotalPages {
			items = append(items, item{title: "More…", desc: fmt.Sprintf("page %d of %d", p.Page+1, p.TotalPages), path: routes.HomePath(p.Page + 1)})
		}
		return fmt.Sprintf("Latest updates (page %d)", p.Page), items

	case routes.MangaDetail:
		items := make([]list.Item, 0, len(p.Chapters))
		for i := len(p.Chapters) - 1; i >= 0; i-- {
			ch := p.Chapters[i]
			items = append(items, item{
				title: fmt.Sprintf("Chapter %d", ch.Number),
				desc:  ch.Title,
				path:  routes.ChapterPath(p.Slug, ch.Number),
			})
		}
		heading := fmt.Sprintf("%s by %s  [%s]  ★ %.1f (%d)  ♥ %d",
			p.Title, strings.Join(p.Authors, ", "), p.Status, p.Rating, p.RatingCount, p.Favorites)
		return heading, items

	case routes.Chapter:
		var items []list.Item
		if p.Next > 0 {
			items = append(items, item{title: "Next chapter", desc: fmt.Sprintf("chapter %d", p.Next), path: routes.ChapterPath(p.MangaSlug, p.Next)})
		}
		if p.Prev > 0 {
			items = append(items, item{title: "Previous chapter", desc: fmt.Sprintf("chapter %d", p.Prev), path: routes.ChapterPath(p.MangaSlug, p.Prev)})
		}
		items = append(items, item{title: p.MangaTitle, desc: "back to the manga", path: routes.MangaPath(p.MangaSlug)})
		return fmt.Sprintf("%s, chapter %d (%d pages)", p.MangaTitle, p.Number, len(p.Pages)), items

	case routes.CatalogPage:
		return fmt.Sprintf("Catalog (%d titles)", p.Total), mangaItems(p.Items)
	case routes.SearchResult:
		return fmt.Sprintf("Search %q", p.Query), mangaItems(p.Items)
	case routes.Rankings:
		return fmt.Sprintf("Rankings (%s)", p.Period), mangaItems(p.Items)
	case routes.Favorites:
		return "Favorites", mangaItems(p.Items)

	case routes.Notifications:
		items := make([]list.Item, 0, len(p.Items))
		for _, n := range p.Items {
			desc := n.CreatedAt.Format("2006-01-02 15:04")
			if !n.Read {
				desc = "new  " + desc
			}
			items = append(items, item{title: n.Message, desc: desc, path: routes.MangaPath(n.MangaSlug)})
		}
		return fmt.Sprintf("Notifications (%d unread)", p.Unread), items
	}
	return "", nil
}
