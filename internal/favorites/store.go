// internal/favorites/store.go
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github-repo-explorer/internal/model"
)

// BlobKey is the single durable key holding every favorite.
const BlobKey = "favorite_repositories"

// BlobStore reads and writes whole values by key. Get returns nil, nil for an absent key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store persists favorites as one JSON array of model.FavoriteEntry.
// Every operation reads or writes the whole blob; concurrent writers are last-write-wins.
type Store struct {
	blobs  BlobStore
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store on top of a blob backend.
func NewStore(blobs BlobStore, logger *slog.Logger) *Store {
	return &Store{
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
	}
}

// ListFavorites returns every entry in stored order. Missing, unreadable or
// corrupt data degrades to an empty list.
func (s *Store) ListFavorites(ctx context.Context) []model.FavoriteEntry {
	entries, err := s.load(ctx)
	if err != nil {
		s.logger.Error("Error getting favorites", "error", err)
		return []model.FavoriteEntry{}
	}
	return entries
}

// ListFavoriteIDs returns the favorited repository ids in stored order.
func (s *Store) ListFavoriteIDs(ctx context.Context) []int64 {
	entries := s.ListFavorites(ctx)
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// AddFavorite appends id with the current time. Adding an existing id writes nothing.
func (s *Store) AddFavorite(ctx context.Context, id int64) error {
	entries := s.ListFavorites(ctx)
	if slices.ContainsFunc(entries, func(e model.FavoriteEntry) bool { return e.ID == id }) {
		return nil
	}

	entries = append(entries, model.FavoriteEntry{ID: id, AddedAt: s.now().UTC()})
	if err := s.save(ctx, entries); err != nil {
		s.logger.Error("Error adding favorite", "repository_id", id, "error", err)
		return fmt.Errorf("add favorite %d: %w", id, err)
	}
	return nil
}

// RemoveFavorite drops every entry for id. The blob is written even when nothing matched.
func (s *Store) RemoveFavorite(ctx context.Context, id int64) error {
	entries := slices.DeleteFunc(s.ListFavorites(ctx), func(e model.FavoriteEntry) bool { return e.ID == id })
	if err := s.save(ctx, entries); err != nil {
		s.logger.Error("Error removing favorite", "repository_id", id, "error", err)
		return fmt.Errorf("remove favorite %d: %w", id, err)
	}
	return nil
}

// IsFavorite reports whether id is stored. Read failures count as false.
func (s *Store) IsFavorite(ctx context.Context, id int64) bool {
	return slices.Contains(s.ListFavoriteIDs(ctx), id)
}

func (s *Store) load(ctx context.Context) ([]model.FavoriteEntry, error) {
	raw, err := s.blobs.Get(ctx, BlobKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []model.FavoriteEntry{}, nil
	}

	var entries []model.FavoriteEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode favorites blob: %w", err)
	}
	if entries == nil {
		entries = []model.FavoriteEntry{}
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, entries []model.FavoriteEntry) error {
	if entries == nil {
		entries = []model.FavoriteEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, BlobKey, raw)
}
