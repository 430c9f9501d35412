package syncer

import (
	"strconv"
	"strings"

	"github-repo-explorer/internal/cache"
	"github-repo-explorer/internal/model"
)

const keyRoot = "repositories"

// searchSeriesKey identifies a search independent of page. The query is quoted
// so separators inside it cannot collide with other segments.
func searchSeriesKey(p model.SearchParams) string {
	return cache.Key(keyRoot, "search", strconv.Quote(p.Query), strconv.Itoa(p.PerPage), string(p.Sort), string(p.Order))
}

// searchPageKey scopes pages to a refresh generation, so a page fetched for a
// refreshed series can never be served to its replacement.
func searchPageKey(p model.SearchParams, gen uint64) string {
	return cache.Key(searchSeriesKey(p), "gen", strconv.FormatUint(gen, 10), "page", strconv.Itoa(p.Page))
}

func detailKey(id int64) string {
	return cache.Key(keyRoot, "detail", strconv.FormatInt(id, 10))
}

// GitHub owner and repository names are case-insensitive.
func ownerDetailKey(owner, name string) string {
	return cache.Key(keyRoot, "detail", strings.ToLower(owner+"/"+name))
}
