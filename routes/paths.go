package routes

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-freshcache/cache"
)

var (
	// ErrUnknownRoute is returned for paths the reader does not serve.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrSignedOut is returned when loading a user-scoped route without a user.
	ErrSignedOut = errors.New("not signed in")
)

// Resource is a parsed path: what to load and where it is cached.
type Resource struct {
	Path   string
	Kind   string
	Params map[string]any
	Key    string
}

// UserScoped reports whether the resource depends on the signed-in user.
func (r Resource) UserScoped() bool {
	return r.Kind == KindFavorites || r.Kind == KindNotifications
}

func (r Resource) stringParam(name string) string {
	s, _ := r.Params[name].(string)
	return s
}

func (r Resource) intParam(name string) int {
	n, _ := r.Params[name].(int)
	return n
}

// Parse maps path onto a Resource. userID fills the user parameter of
// user-scoped routes and may be empty.
func Parse(path, userID string) (Resource, error) {
	u, err := url.Parse(path)
	if err != nil {
		return Resource{}, fmt.Errorf("%w: %q: %v", ErrUnknownRoute, path, err)
	}
	query := u.Query()
	segments := splitPath(u.Path)

	var (
		kind   string
		params = map[string]any{}
	)

	switch {
	case len(segments) == 0:
		kind = KindHomepage
		page, err := pageParam(query.Get("page"))
		if err != nil {
			return Resource{}, fmt.Errorf("%w: %q: %v", ErrUnknownRoute, path, err)
		}
		params["page"] = page

	case segments[0] == "manga" && len(segments) == 2:
		kind = KindManga
		params["slug"] = segments[1]

	case segments[0] == "manga" && len(segments) == 4 && segments[2] == "chapter":
		number, err := strconv.Atoi(segments[3])
		if err != nil || number < 1 {
			return Resource{}, fmt.Errorf("%w: %q: invalid chapter number", ErrUnknownRoute, path)
		}
		kind = KindChapter
		params["slug"] = segments[1]
		params["number"] = number

	case segments[0] == "catalog" && len(segments) == 1:
		kind = KindCatalog
		page, err := pageParam(query.Get("page"))
		if err != nil {
			return Resource{}, fmt.Errorf("%w: %q: %v", ErrUnknownRoute, path, err)
		}
		params["page"] = page
		for _, name := range []string{"genre", "status", "sort"} {
			if v := strings.TrimSpace(query.Get(name)); v != "" {
				params[name] = strings.ToLower(v)
			}
		}

	case segments[0] == "search" && len(segments) == 1:
		kind = KindSearch
		if q := normalizeSearch(query.Get("q")); q != "" {
			params["q"] = q
		}

	case segments[0] == "rankings" && len(segments) == 1:
		kind = KindRankings
		period := strings.ToLower(strings.TrimSpace(query.Get("period")))
		if period == "" {
			period = PeriodWeekly
		}
		if !validPeriod(period) {
			return Resource{}, fmt.Errorf("%w: %q: unknown period %q", ErrUnknownRoute, path, period)
		}
		params["period"] = period

	case segments[0] == "favorites" && len(segments) == 1:
		kind = KindFavorites
		if userID != "" {
			params["user"] = userID
		}

	case segments[0] == "notifications" && len(segments) == 1:
		kind = KindNotifications
		if userID != "" {
			params["user"] = userID
		}

	default:
		return Resource{}, fmt.Errorf("%w: %q", ErrUnknownRoute, path)
	}

	key, err := cache.BuildKey(kind, params)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Path: path, Kind: kind, Params: params, Key: key}, nil
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func pageParam(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q", raw)
	}
	return page, nil
}

func normalizeSearch(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func validPeriod(p string) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAll:
		return true
	}
	return false
}

// MangaKey returns the cache key of the manga page for slug.
func MangaKey(slug string) string {
	return cache.MustBuildKey(KindManga, map[string]any{"slug": slug})
}

// HomePath returns the path of a homepage page.
func HomePath(page int) string {
	if page <= 1 {
		return "/"
	}
	return "/?page=" + strconv.Itoa(page)
}

// MangaPath returns the path of a manga page.
func MangaPath(slug string) string {
	return "/manga/" + url.PathEscape(slug)
}

// ChapterPath returns the path of a chapter.
func ChapterPath(slug string, number int) string {
	return MangaPath(slug) + "/chapter/" + strconv.Itoa(number)
}

// CatalogPath returns the path of a catalog query.
func CatalogPath(q CatalogQuery) string {
	values := url.Values{}
	if q.Genre != "" {
		values.Set("genre", q.Genre)
	}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Page > 1 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if len(values) == 0 {
		return "/catalog"
	}
	return "/catalog?" + values.Encode()
}

// SearchPath returns the path of a search.
func SearchPath(query string) string {
	if query == "" {
		return "/search"
	}
	return "/search?" + url.Values{"q": {query}}.Encode()
}

// RankingsPath returns the path of a rankings period.
func RankingsPath(period string) string {
	if period == "" || period == PeriodWeekly {
		return "/rankings"
	}
	return "/rankings?period=" + url.QueryEscape(period)
}
