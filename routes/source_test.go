package routes

import (
	"context"
	"sync"
)

// fakeSource records calls and serves canned data.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: map[string]int{}}
}

func (f *fakeSource) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.err
}

func (f *fakeSource) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeSource) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) Homepage(_ context.Context, page int) (Homepage, error) {
	if err := f.record("Homepage"); err != nil {
		return Homepage{}, err
	}
	return Homepage{Page: page, TotalPages: 3, Latest: []MangaSummary{{Slug: "berserk", Title: "Berserk"}}}, nil
}

func (f *fakeSource) Manga(_ context.Context, slug string) (MangaDetail, error) {
	if err := f.record("Manga"); err != nil {
		return MangaDetail{}, err
	}
	return MangaDetail{MangaSummary: MangaSummary{Slug: slug}}, nil
}

func (f *fakeSource) Chapter(_ context.Context, slug string, number int) (Chapter, error) {
	if err := f.record("Chapter"); err != nil {
		return Chapter{}, err
	}
	return Chapter{MangaSlug: slug, Number: number}, nil
}

func (f *fakeSource) Catalog(_ context.Context, q CatalogQuery) (CatalogPage, error) {
	if err := f.record("Catalog"); err != nil {
		return CatalogPage{}, err
	}
	return CatalogPage{Query: q}, nil
}

func (f *fakeSource) Search(_ context.Context, query string) (SearchResult, error) {
	if err := f.record("Search"); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Query: query}, nil
}

func (f *fakeSource) Rankings(_ context.Context, period string) (Rankings, error) {
	if err := f.record("Rankings"); err != nil {
		return Rankings{}, err
	}
	return Rankings{Period: period}, nil
}

func (f *fakeSource) Favorites(_ context.Context, userID string) (Favorites, error) {
	if err := f.record("Favorites"); err != nil {
		return Favorites{}, err
	}
	return Favorites{UserID: userID}, nil
}

func (f *fakeSource) Notifications(_ context.Context, userID string) (Notifications, error) {
	if err := f.record("Notifications"); err != nil {
		return Notifications{}, err
	}
	return Notifications{UserID: userID}, nil
}

func (f *fakeSource) ToggleFavorite(context.Context, string, string) (bool, error) {
	return true, f.record("ToggleFavorite")
}

func (f *fakeSource) PostComment(_ context.Context, userID, slug, body string) (Comment, error) {
	return Comment{UserID: userID, MangaSlug: slug, Body: body}, f.record("PostComment")
}

func (f *fakeSource) RateManga(context.Context, string, string, int) error {
	return f.record("RateManga")
}

func (f *fakeSource) MarkNotificationsRead(context.Context, string) error {
	return f.record("MarkNotificationsRead")
}
