// internal/syncer/repository.go
package syncer

import (
	"context"
	"strings"

	"github-repo-explorer/internal/cache"
	custom_errors "github-repo-explorer/internal/errors"
	"github-repo-explorer/internal/model"
)

// Repository returns the detail record for id, fetching it on a cache miss.
func (s *Syncer) Repository(ctx context.Context, id int64) (*model.Repository, error) {
	if id <= 0 {
		return nil, custom_errors.InvalidRequest("repository id must be positive")
	}

	repo, err := cache.GetOrFetch(ctx, s.cache, detailKey(id), func(ctx context.Context) (model.Repository, error) {
		s.logger.Info("Fetching repository", "repository_id", id)
		r, err := withRetry(ctx, s, "repository", func(ctx context.Context) (*model.Repository, error) {
			return s.api.GetRepositoryByID(ctx, id)
		})
		if err != nil {
			return model.Repository{}, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// RepositoryByOwner returns the detail record for owner/name. The result is
// also cached by id.
func (s *Syncer) RepositoryByOwner(ctx context.Context, owner, name string) (*model.Repository, error) {
	owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
	if owner == "" || name == "" {
		return nil, custom_errors.InvalidRequest("owner and name are required")
	}

	repo, err := cache.GetOrFetch(ctx, s.cache, ownerDetailKey(owner, name), func(ctx context.Context) (model.Repository, error) {
		s.logger.Info("Fetching repository", "owner", owner, "name", name)
		r, err := withRetry(ctx, s, "repository", func(ctx context.Context) (*model.Repository, error) {
			return s.api.GetRepositoryByOwnerAndName(ctx, owner, name)
		})
		if err != nil {
			return model.Repository{}, err
		}
		s.cache.Set(detailKey(r.ID), *r)
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// RefreshRepository drops the cached detail for id and fetches it again.
func (s *Syncer) RefreshRepository(ctx context.Context, id int64) (*model.Repository, error) {
	s.cache.Delete(detailKey(id))
	return s.Repository(ctx, id)
}

// CachedRepository returns the detail for id only if it is already cached.
func (s *Syncer) CachedRepository(id int64) (*model.Repository, bool) {
	repo, ok := cache.Get[model.Repository](s.cache, detailKey(id))
	if !ok {
		return nil, false
	}
	return &repo, true
}
