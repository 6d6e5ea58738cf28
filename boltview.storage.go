package boltview

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Artifact is one compiled template kept by an ArtifactStore.
type Artifact struct {
	// Key identifies the artifact; see ArtifactKey.
	Key string `json:"key"`

	// Template is the source file path, or StringTemplate for text sources.
	Template string `json:"template"`

	// Code is the full compiled output, manifest header included.
	Code string `json:"code"`

	// Compress records the compress flag the code was compiled with.
	Compress bool `json:"compress"`

	// CheckedAt is the last time the manifest was verified against the sources.
	CheckedAt time.Time `json:"checked_at"`

	// UpdatedAt is set by the store on every Save.
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtifactStore is the interface for pluggable compiled artifact caches.
// Implementations must be safe for concurrent use.
type ArtifactStore interface {
	// Get returns the artifact stored under key.
	// Returns an error matching IsArtifactNotFound when there is none.
	Get(ctx context.Context, key string) (*Artifact, error)

	// Save stores the artifact, replacing any previous one with the same key.
	// UpdatedAt is set by the store; a zero CheckedAt is set to the same time.
	Save(ctx context.Context, artifact *Artifact) error

	// Delete removes the artifact stored under key.
	Delete(ctx context.Context, key string) error

	// List returns every stored key in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// StorageDriver is a factory for ArtifactStore instances.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a store. The dsn format is driver specific.
	Open(dsn string) (ArtifactStore, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if driver is nil or the name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStore opens an artifact store using the named driver.
//
//	store, err := boltview.OpenStore("memory", "")
//	store, err := boltview.OpenStore("filesystem", "/var/cache/views")
//	store, err := boltview.OpenStore("postgres", "postgres://localhost/views?sslmode=disable")
func OpenStore(driverName, dsn string) (ArtifactStore, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}
	return driver.Open(dsn)
}

// ListStorageDrivers returns the names of all registered storage drivers, sorted.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
)

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgArtifactNotFound        = "artifact not found"
	ErrMsgInvalidArtifactKey      = "invalid artifact key"
	ErrMsgNilArtifact             = "artifact is nil"
)

// StorageError represents a storage related error.
type StorageError struct {
	Message string
	Key     string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg += ": " + e.Key
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageDriverNotFoundError creates an error for a missing storage driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{Message: ErrMsgStorageDriverNotFound, Key: name}
}

// NewArtifactNotFoundError creates an error for a missing artifact.
func NewArtifactNotFoundError(key string) error {
	return &StorageError{Message: ErrMsgArtifactNotFound, Key: key}
}

// NewStorageClosedError creates an error for operations on a closed store.
func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}

// IsArtifactNotFound reports whether err says an artifact does not exist.
func IsArtifactNotFound(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr) && storageErr.Message == ErrMsgArtifactNotFound
}

func validateArtifact(artifact *Artifact) error {
	if artifact == nil {
		return &StorageError{Message: ErrMsgNilArtifact}
	}
	if artifact.Key == "" {
		return &StorageError{Message: ErrMsgInvalidArtifactKey}
	}
	return nil
}

// stamp sets the store managed timestamps on a copy of artifact.
func stamp(artifact *Artifact, now time.Time) *Artifact {
	cp := *artifact
	cp.UpdatedAt = now
	if cp.CheckedAt.IsZero() {
		cp.CheckedAt = now
	}
	return &cp
}
