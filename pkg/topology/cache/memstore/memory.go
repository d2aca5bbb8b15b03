// Package memstore is an in-memory cache.Store for tests and runs without
// a cache file.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/topology/pkg/topology/cache"
)

type key struct {
	kind        cache.Kind
	contentHash uint64
	argsHash    uint64
}

// Store is an in-memory implementation of cache.Store.
type Store struct {
	mu        sync.RWMutex
	artifacts map[key]cache.Artifact
}

// New creates an empty store.
func New() *Store {
	return &Store{artifacts: make(map[key]cache.Artifact)}
}

// Close implements cache.Store.
func (s *Store) Close() error { return nil }

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, kind cache.Kind, contentHash, argsHash uint64) (cache.Artifact, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[key{kind, contentHash, argsHash}]
	if !ok {
		return cache.Artifact{}, false, nil
	}
	return copyArtifact(a), true, nil
}

// Put implements cache.Store.
func (s *Store) Put(ctx context.Context, a cache.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifacts[key{a.Kind, a.Meta.ContentHash, a.Meta.ArgsHash}] = copyArtifact(a)
	return nil
}

// Invalidate implements cache.Store.
func (s *Store) Invalidate(ctx context.Context, kind *cache.Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.artifacts {
		if kind == nil || k.kind == *kind {
			delete(s.artifacts, k)
			n++
		}
	}
	return n, nil
}

// Info implements cache.Store.
func (s *Store) Info(ctx context.Context) ([]cache.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cache.Info, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		out = append(out, cache.Info{
			Kind:        a.Kind,
			ID:          a.Meta.ID,
			ContentHash: a.Meta.ContentHash,
			ArgsHash:    a.Meta.ArgsHash,
			RowCount:    a.Meta.RowCount,
			Version:     a.Meta.Version,
			CreatedAt:   a.Meta.CreatedAt,
			SizeBytes:   int64(len(a.Payload)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// SizeBytes implements cache.Store as the sum of payload sizes.
func (s *Store) SizeBytes(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, a := range s.artifacts {
		total += int64(len(a.Payload))
	}
	return total, nil
}

func copyArtifact(a cache.Artifact) cache.Artifact {
	a.Payload = append([]byte(nil), a.Payload...)
	return a
}

var _ cache.Store = (*Store)(nil)
