package boltview

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
)

// MemoryStore is an in-process ArtifactStore backed by a lock-free hash map.
// All data is lost when the process terminates.
type MemoryStore struct {
	artifacts *haxmap.Map[string, *Artifact]
	closed    atomic.Bool
}

// MemoryStoreDriver is the driver for creating MemoryStore instances.
type MemoryStoreDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStoreDriver{})
}

// Open creates a new MemoryStore. The dsn is ignored.
func (d *MemoryStoreDriver) Open(dsn string) (ArtifactStore, error) {
	return NewMemoryStore(), nil
}

// NewMemoryStore creates an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts: haxmap.New[string, *Artifact](),
	}
}

// Get returns a copy of the artifact stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, NewStorageClosedError()
	}

	artifact, ok := s.artifacts.Get(key)
	if !ok {
		return nil, NewArtifactNotFoundError(key)
	}
	cp := *artifact
	return &cp, nil
}

// Save stores a copy of artifact.
func (s *MemoryStore) Save(ctx context.Context, artifact *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateArtifact(artifact); err != nil {
		return err
	}
	if s.closed.Load() {
		return NewStorageClosedError()
	}

	stored := stamp(artifact, time.Now())
	s.artifacts.Set(stored.Key, stored)
	artifact.UpdatedAt = stored.UpdatedAt
	artifact.CheckedAt = stored.CheckedAt
	return nil
}

// Delete removes the artifact stored under key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return NewStorageClosedError()
	}

	if _, ok := s.artifacts.Get(key); !ok {
		return NewArtifactNotFoundError(key)
	}
	s.artifacts.Del(key)
	return nil
}

// List returns every stored key, sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, NewStorageClosedError()
	}

	keys := make([]string, 0, s.artifacts.Len())
	s.artifacts.ForEach(func(key string, _ *Artifact) bool {
		keys = append(keys, key)
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	return int(s.artifacts.Len())
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	var keys []string
	s.artifacts.ForEach(func(key string, _ *Artifact) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		s.artifacts.Del(key)
	}
	return nil
}
