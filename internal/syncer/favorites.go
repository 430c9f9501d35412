// internal/syncer/favorites.go
package syncer

import (
	"context"
	"slices"
)

// favoriteIDs is the cached favorites list. Stale entries are still served but
// are re-read on the next FavoriteIDs call.
type favoriteIDs struct {
	ids   []int64
	stale bool
}

// ToggleOutcome says whether a toggle was kept or undone.
type ToggleOutcome string

const (
	ToggleCommitted  ToggleOutcome = "committed"
	ToggleRolledBack ToggleOutcome = "rolled_back"
)

// ToggleResult describes the settled state of one ToggleFavorite call.
type ToggleResult struct {
	RepositoryID int64         `json:"repositoryId"`
	IsFavorite   bool          `json:"isFavorite"`
	Outcome      ToggleOutcome `json:"outcome"`
}

// pendingToggle is the rollback context captured before a store write.
type pendingToggle struct {
	id          int64
	wasFavorite bool
	snapshot    []int64
	hadSnapshot bool
}

// FavoriteIDs re-reads the favorite ids from the store and caches them.
// If a toggle started or finished while the read was in flight, the cached
// value is kept and returned instead, since the read may predate the write.
func (s *Syncer) FavoriteIDs(ctx context.Context) []int64 {
	s.mu.Lock()
	version := s.favVersion
	s.mu.Unlock()

	ids := s.favorites.ListFavoriteIDs(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingToggles == 0 && s.favVersion == version {
		s.favIDs = &favoriteIDs{ids: slices.Clone(ids)}
		return slices.Clone(ids)
	}
	if s.favIDs != nil {
		return slices.Clone(s.favIDs.ids)
	}
	return slices.Clone(ids)
}

// CachedFavoriteIDs returns the cached favorite ids without touching the store.
func (s *Syncer) CachedFavoriteIDs() ([]int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favIDs == nil {
		return nil, false
	}
	return slices.Clone(s.favIDs.ids), true
}

// IsFavorite reports whether id is in the current favorite ids.
func (s *Syncer) IsFavorite(ctx context.Context, id int64) bool {
	return slices.Contains(s.FavoriteIDs(ctx), id)
}

// ToggleFavorite flips the favorite state of id. wasFavorite is the state the
// caller saw. The cached ids are updated before the store write; if the write
// fails they are restored to exactly what they were and the store error is
// returned alongside a rolled-back result. Either way the cached ids are then
// marked stale.
func (s *Syncer) ToggleFavorite(ctx context.Context, id int64, wasFavorite bool) (ToggleResult, error) {
	pending := s.beginToggle(id, wasFavorite)

	var err error
	if wasFavorite {
		err = s.favorites.RemoveFavorite(ctx, id)
	} else {
		err = s.favorites.AddFavorite(ctx, id)
	}

	return s.settleToggle(pending, err), err
}

func (s *Syncer) beginToggle(id int64, wasFavorite bool) pendingToggle {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev favoriteIDs
	if s.favIDs != nil {
		prev = *s.favIDs
	}
	pending := pendingToggle{
		id:          id,
		wasFavorite: wasFavorite,
		snapshot:    slices.Clone(prev.ids),
		hadSnapshot: s.favIDs != nil,
	}

	s.favIDs = &favoriteIDs{ids: applyToggle(prev.ids, id, wasFavorite), stale: prev.stale}
	s.pendingToggles++
	s.favVersion++
	return pending
}

func (s *Syncer) settleToggle(p pendingToggle, err error) ToggleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingToggles--
	s.favVersion++

	result := ToggleResult{RepositoryID: p.id, IsFavorite: !p.wasFavorite, Outcome: ToggleCommitted}
	if err != nil {
		if p.hadSnapshot {
			s.favIDs = &favoriteIDs{ids: p.snapshot}
		} else {
			s.favIDs = nil
		}
		result.IsFavorite = p.wasFavorite
		result.Outcome = ToggleRolledBack
		s.logger.Error("Favorite toggle rolled back", "repository_id", p.id, "was_favorite", p.wasFavorite, "error", err)
	} else {
		s.logger.Info("Favorite toggled", "repository_id", p.id, "is_favorite", result.IsFavorite)
	}

	if s.favIDs != nil {
		s.favIDs.stale = true
	}
	return result
}

// applyToggle returns a new slice; ids is never modified.
func applyToggle(ids []int64, id int64, wasFavorite bool) []int64 {
	if wasFavorite {
		return slices.DeleteFunc(slices.Clone(ids), func(v int64) bool { return v == id })
	}
	next := slices.Clone(ids)
	if !slices.Contains(next, id) {
		next = append(next, id)
	}
	return next
}
