// internal/syncer/search.go
package syncer

import (
	"context"
	"errors"

	"github-repo-explorer/internal/cache"
	custom_errors "github-repo-explorer/internal/errors"
	"github-repo-explorer/internal/model"
)

// ErrNoMorePages is returned by FetchNextPage when the last loaded page reported no successor.
var ErrNoMorePages = errors.New("syncer: no more pages")

// SearchResults is a snapshot of the pages loaded so far for one search.
type SearchResults struct {
	Params model.SearchParams
	Pages  []model.SearchResultPage
}

// Repositories flattens every loaded page in page order.
func (r *SearchResults) Repositories() []model.Repository {
	var out []model.Repository
	for _, p := range r.Pages {
		out = append(out, p.Items...)
	}
	return out
}

// HasNextPage reports whether another page can be requested.
func (r *SearchResults) HasNextPage() bool {
	if len(r.Pages) == 0 {
		return false
	}
	return r.Pages[len(r.Pages)-1].HasNextPage
}

// TotalCount is the total reported by the most recently loaded page.
func (r *SearchResults) TotalCount() int {
	if len(r.Pages) == 0 {
		return 0
	}
	return r.Pages[len(r.Pages)-1].TotalCount
}

// searchSeries is the loaded page sequence for one search identity.
// It is only mutated while Syncer.mu is held.
type searchSeries struct {
	params     model.SearchParams
	generation uint64
	pages      []model.SearchResultPage
}

func (s *searchSeries) lastPage() model.SearchResultPage {
	return s.pages[len(s.pages)-1]
}

func (s *searchSeries) snapshot() *SearchResults {
	pages := make([]model.SearchResultPage, len(s.pages))
	copy(pages, s.pages)
	return &SearchResults{Params: s.params, Pages: pages}
}

// seriesParams normalizes params and pins them to the first page so every
// page of one search shares an identity.
func seriesParams(params model.SearchParams) (model.SearchParams, error) {
	params.Page = 1
	return params.Normalize()
}

// Search returns the cached series for params, loading page 1 on a miss.
// Any page set in params is ignored; use FetchNextPage to extend the series.
func (s *Syncer) Search(ctx context.Context, params model.SearchParams) (*SearchResults, error) {
	params, err := seriesParams(params)
	if err != nil {
		return nil, err
	}
	key := searchSeriesKey(params)

	s.mu.Lock()
	if series, ok := s.series[key]; ok {
		res := series.snapshot()
		s.mu.Unlock()
		return res, nil
	}
	gen := s.searchGens[key]
	s.mu.Unlock()

	page, err := s.fetchSearchPage(ctx, params, gen)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if series, ok := s.series[key]; ok {
		return series.snapshot(), nil
	}
	series := &searchSeries{params: params, generation: gen, pages: []model.SearchResultPage{*page}}
	if s.searchGens[key] != gen {
		// Refreshed while page 1 was in flight; answer without keeping it.
		return series.snapshot(), nil
	}
	s.series[key] = series
	return series.snapshot(), nil
}

// FetchNextPage loads the page after the last loaded one and appends it.
// Concurrent calls for the same search share a single request and append once.
func (s *Syncer) FetchNextPage(ctx context.Context, params model.SearchParams) (*SearchResults, error) {
	params, err := seriesParams(params)
	if err != nil {
		return nil, err
	}
	key := searchSeriesKey(params)

	s.mu.Lock()
	series, ok := s.series[key]
	if !ok {
		s.mu.Unlock()
		return nil, custom_errors.InvalidRequest("search has not been started")
	}
	last := series.lastPage()
	if !last.HasNextPage {
		res := series.snapshot()
		s.mu.Unlock()
		return res, ErrNoMorePages
	}
	next := last.Page + 1
	s.mu.Unlock()

	page, err := s.fetchSearchPage(ctx, params.WithPage(next), series.generation)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.series[key]
	if !ok || current != series {
		// Refreshed while the page was in flight; the page belongs to the
		// old generation and is never read again.
		s.logger.Debug("Search series replaced during page fetch", "query", params.Query, "page", next)
		if ok {
			return current.snapshot(), nil
		}
		return series.snapshot(), nil
	}
	if series.lastPage().Page == next-1 {
		series.pages = append(series.pages, *page)
	}
	return series.snapshot(), nil
}

// RefreshSearch drops every cached page of the search and reloads page 1.
func (s *Syncer) RefreshSearch(ctx context.Context, params model.SearchParams) (*SearchResults, error) {
	params, err := seriesParams(params)
	if err != nil {
		return nil, err
	}
	key := searchSeriesKey(params)

	s.mu.Lock()
	delete(s.series, key)
	s.searchGens[key]++
	removed := s.cache.DeletePrefix(key + cache.KeySeparator)
	s.mu.Unlock()
	s.logger.Info("Refreshing search", "query", params.Query, "pages_dropped", removed)

	return s.Search(ctx, params)
}

// fetchSearchPage reads one page through the cache. Fetched repositories also
// seed the detail cache so opening a search result costs no request.
func (s *Syncer) fetchSearchPage(ctx context.Context, params model.SearchParams, gen uint64) (*model.SearchResultPage, error) {
	return cache.GetOrFetch(ctx, s.cache, searchPageKey(params, gen), func(ctx context.Context) (*model.SearchResultPage, error) {
		s.logger.Info("Fetching search page", "query", params.Query, "page", params.Page, "per_page", params.PerPage)
		page, err := withRetry(ctx, s, "search", func(ctx context.Context) (*model.SearchResultPage, error) {
			return s.api.SearchRepositories(ctx, params)
		})
		if err != nil {
			return nil, err
		}
		for _, repo := range page.Items {
			s.cache.Set(detailKey(repo.ID), repo)
		}
		return page, nil
	})
}
