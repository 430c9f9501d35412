// internal/views/favorites.go
package views

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github-repo-explorer/internal/model"
)

// DefaultConcurrency bounds parallel detail fetches when none is configured.
const DefaultConcurrency = 8

// RepositorySource provides favorite ids and repository details.
type RepositorySource interface {
	FavoriteIDs(ctx context.Context) []int64
	CachedRepository(id int64) (*model.Repository, bool)
	Repository(ctx context.Context, id int64) (*model.Repository, error)
}

// FavoriteTimestamps lists stored favorites with the time they were added.
type FavoriteTimestamps interface {
	ListFavorites(ctx context.Context) []model.FavoriteEntry
}

// Favorites derives the list of favorite repositories from the favorite ids
// and the detail cache.
type Favorites struct {
	source      RepositorySource
	timestamps  FavoriteTimestamps
	concurrency int
	logger      *slog.Logger
}

// NewFavorites creates a new Favorites view.
func NewFavorites(source RepositorySource, timestamps FavoriteTimestamps, concurrency int, logger *slog.Logger) *Favorites {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Favorites{
		source:      source,
		timestamps:  timestamps,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FavoriteRepositories returns cached favorites first, then the ones that had
// to be fetched. A favorite whose fetch fails is logged and left out; this
// never returns an error.
func (f *Favorites) FavoriteRepositories(ctx context.Context) []model.Repository {
	ids := dedupe(f.source.FavoriteIDs(ctx))

	repos := make([]model.Repository, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		if repo, ok := f.source.CachedRepository(id); ok {
			repos = append(repos, *repo)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return repos
	}

	fetched := make([]*model.Repository, len(missing))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	var mu sync.Mutex
	failed := 0
	for i, id := range missing {
		g.Go(func() error {
			repo, err := f.source.Repository(gCtx, id)
			if err != nil {
				f.logger.Warn("Could not load favorite repository", "repository_id", id, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			fetched[i] = repo
			return nil
		})
	}
	_ = g.Wait()

	for _, repo := range fetched {
		if repo != nil {
			repos = append(repos, *repo)
		}
	}
	f.logger.Debug("Loaded favorite repositories", "cached", len(ids)-len(missing), "fetched", len(missing)-failed, "failed", failed)
	return repos
}

// FavoriteRepositoriesWithTimestamps joins the favorite repositories with the
// time each was added, newest first. Repositories without a stored entry sort last.
func (f *Favorites) FavoriteRepositoriesWithTimestamps(ctx context.Context) []model.FavoriteRepository {
	repos := f.FavoriteRepositories(ctx)

	added := make(map[int64]time.Time)
	for _, e := range f.timestamps.ListFavorites(ctx) {
		added[e.ID] = e.AddedAt
	}

	out := make([]model.FavoriteRepository, len(repos))
	for i, r := range repos {
		out[i] = model.FavoriteRepository{Repository: r, AddedAt: added[r.ID]}
	}
	slices.SortStableFunc(out, func(a, b model.FavoriteRepository) int {
		return b.AddedAt.Compare(a.AddedAt)
	})
	return out
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
