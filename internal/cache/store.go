// Package cache is the in-memory query cache shared by the sync layer.
//
// A Store is constructed explicitly and passed to whatever needs it; there is
// no package-level instance. Reads go through GetOrFetch, which coalesces
// concurrent fetches of the same key into a single call of the fetch function.
package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/viccon/sturdyc"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// ErrInvalidType is returned when a cached value does not have the requested type.
var ErrInvalidType = errors.New("cache: cached value has unexpected type")

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Store wraps a sturdyc client.
type Store struct {
	client *sturdyc.Client[any]
}

// New validates cfg and builds a Store.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)
	return &Store{client: client}, nil
}

// Key joins segments with KeySeparator.
func Key(segments ...string) string {
	return strings.Join(segments, KeySeparator)
}

// GetOrFetch returns the cached value for key, or calls fetchFn and caches its
// result. Callers asking for the same key while a fetch is in flight share that
// fetch. Errors are returned to every waiting caller and are not cached.
func GetOrFetch[T any](ctx context.Context, s *Store, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	value, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, ErrInvalidType
	}
	return typed, nil
}

// Get returns the cached value for key without fetching.
func Get[T any](s *Store, key string) (T, bool) {
	var zero T
	value, ok := s.client.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(key string, value any) {
	s.client.Set(key, value)
}

// Delete removes a single entry.
func (s *Store) Delete(key string) {
	s.client.Delete(key)
}

// DeletePrefix removes every entry whose key starts with prefix and reports how many were dropped.
func (s *Store) DeletePrefix(prefix string) int {
	removed := 0
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
			removed++
		}
	}
	return removed
}
