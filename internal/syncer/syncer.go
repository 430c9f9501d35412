// internal/syncer/syncer.go
package syncer

import (
	"context"
	"log/slog"
	"sync"

	"github-repo-explorer/internal/cache"
	"github-repo-explorer/internal/model"
)

// RepositoryAPI is the remote source of repository data.
type RepositoryAPI interface {
	SearchRepositories(ctx context.Context, params model.SearchParams) (*model.SearchResultPage, error)
	GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (*model.Repository, error)
	GetRepositoryByID(ctx context.Context, id int64) (*model.Repository, error)
}

// FavoritesStore is the durable favorites list.
type FavoritesStore interface {
	ListFavoriteIDs(ctx context.Context) []int64
	AddFavorite(ctx context.Context, id int64) error
	RemoveFavorite(ctx context.Context, id int64) error
}

// Syncer keeps the query cache consistent with the remote API and the favorites store.
//
// Search pages and repository details are fetched once and then served from
// the cache until explicitly refreshed. The favorite id list is re-read from
// the store on every FavoriteIDs call and patched optimistically by
// ToggleFavorite.
//
// The page cache is capacity capped and may evict. Loaded search series and
// the favorite ids are bookkeeping rather than cached responses, so they are
// held here and only dropped by RefreshSearch or a rolled-back toggle.
type Syncer struct {
	cache     *cache.Store
	api       RepositoryAPI
	favorites FavoritesStore
	retry     RetryPolicy
	logger    *slog.Logger

	// mu guards everything below.
	mu             sync.Mutex
	series         map[string]*searchSeries
	searchGens     map[string]uint64
	favIDs         *favoriteIDs
	favVersion     uint64
	pendingToggles int
}

// NewSyncer creates a new Syncer instance around an explicitly constructed cache.
func NewSyncer(store *cache.Store, api RepositoryAPI, favorites FavoritesStore, logger *slog.Logger, retry RetryPolicy) *Syncer {
	return &Syncer{
		cache:      store,
		api:        api,
		favorites:  favorites,
		retry:      retry,
		logger:     logger,
		series:     make(map[string]*searchSeries),
		searchGens: make(map[string]uint64),
	}
}
