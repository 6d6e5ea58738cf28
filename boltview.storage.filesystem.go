package boltview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
)

// FilesystemStore keeps one JSON document per artifact under a root
// directory. With compression enabled documents are brotli encoded; both
// encodings are readable regardless of the setting.
//
// Directory structure:
//
//	<root>/
//	  <key>.json
//	  <key>.json.br
type FilesystemStore struct {
	mu       sync.RWMutex
	root     string
	compress bool
	closed   bool
}

// Filesystem store constants
const (
	FilesystemDirPermissions  = 0755
	FilesystemFilePermissions = 0644
	FilesystemArtifactExt     = ".json"
	FilesystemCompressedExt   = ".json.br"
	FilesystemDSNCompress     = "compress"
	FilesystemBrotliLevel     = brotli.BestCompression
)

// Filesystem store error messages
const (
	ErrMsgInvalidStorageRoot   = "storage root directory is empty"
	ErrMsgCreateStorageDir     = "failed to create storage directory"
	ErrMsgReadStorageDir       = "failed to read storage directory"
	ErrMsgReadArtifact         = "failed to read artifact"
	ErrMsgWriteArtifact        = "failed to write artifact"
	ErrMsgDecodeArtifact       = "failed to decode artifact"
	ErrMsgInvalidFilesystemDSN = "invalid filesystem storage dsn"
)

// FilesystemStoreDriver is the driver for creating FilesystemStore instances.
type FilesystemStoreDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStoreDriver{})
}

// Open creates a FilesystemStore. The dsn is the root directory, optionally
// followed by ?compress=true.
func (d *FilesystemStoreDriver) Open(dsn string) (ArtifactStore, error) {
	root, compress, err := parseFilesystemDSN(dsn)
	if err != nil {
		return nil, err
	}
	return NewFilesystemStore(root, compress)
}

func parseFilesystemDSN(dsn string) (string, bool, error) {
	root, rawQuery, found := strings.Cut(dsn, "?")
	if !found {
		return root, false, nil
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false, &StorageError{Message: ErrMsgInvalidFilesystemDSN, Key: dsn, Cause: err}
	}
	value := query.Get(FilesystemDSNCompress)
	if value == "" {
		return root, false, nil
	}
	compress, err := strconv.ParseBool(value)
	if err != nil {
		return "", false, &StorageError{Message: ErrMsgInvalidFilesystemDSN, Key: dsn, Cause: err}
	}
	return root, compress, nil
}

// NewFilesystemStore creates a filesystem artifact store rooted at root,
// creating the directory when needed.
func NewFilesystemStore(root string, compress bool) (*FilesystemStore, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgInvalidStorageRoot}
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgCreateStorageDir, Key: root, Cause: err}
	}
	return &FilesystemStore{root: root, compress: compress}, nil
}

// Root returns the store directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

// Compressed reports whether new artifacts are brotli encoded.
func (s *FilesystemStore) Compressed() bool {
	return s.compress
}

// Get loads the artifact stored under key.
func (s *FilesystemStore) Get(ctx context.Context, key string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateArtifactKeyForFilesystem(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	return s.load(key)
}

// Save writes the artifact, replacing the document in the other encoding if
// one exists.
func (s *FilesystemStore) Save(ctx context.Context, artifact *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateArtifact(artifact); err != nil {
		return err
	}
	if err := validateArtifactKeyForFilesystem(artifact.Key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	stored := stamp(artifact, time.Now().UTC())
	data, err := json.Marshal(stored)
	if err != nil {
		return &StorageError{Message: ErrMsgWriteArtifact, Key: artifact.Key, Cause: err}
	}

	target, stale := s.plainPath(artifact.Key), s.compressedPath(artifact.Key)
	if s.compress {
		if data, err = brotliEncode(data); err != nil {
			return &StorageError{Message: ErrMsgWriteArtifact, Key: artifact.Key, Cause: err}
		}
		target, stale = stale, target
	}
	if err := os.WriteFile(target, data, FilesystemFilePermissions); err != nil {
		return &StorageError{Message: ErrMsgWriteArtifact, Key: artifact.Key, Cause: err}
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Message: ErrMsgWriteArtifact, Key: artifact.Key, Cause: err}
	}

	artifact.UpdatedAt = stored.UpdatedAt
	artifact.CheckedAt = stored.CheckedAt
	return nil
}

// Delete removes the artifact in either encoding.
func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateArtifactKeyForFilesystem(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	removed := false
	for _, path := range []string{s.plainPath(key), s.compressedPath(key)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return &StorageError{Message: ErrMsgWriteArtifact, Key: key, Cause: err}
		}
	}
	if !removed {
		return NewArtifactNotFoundError(key)
	}
	return nil
}

// List returns the keys of every stored document, sorted.
func (s *FilesystemStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadStorageDir, Key: s.root, Cause: err}
	}

	seen := make(map[string]bool)
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		var key string
		switch {
		case strings.HasSuffix(name, FilesystemCompressedExt):
			key = strings.TrimSuffix(name, FilesystemCompressedExt)
		case strings.HasSuffix(name, FilesystemArtifactExt):
			key = strings.TrimSuffix(name, FilesystemArtifactExt)
		default:
			continue
		}
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed. Files are left in place.
func (s *FilesystemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FilesystemStore) plainPath(key string) string {
	return filepath.Join(s.root, key+FilesystemArtifactExt)
}

func (s *FilesystemStore) compressedPath(key string) string {
	return filepath.Join(s.root, key+FilesystemCompressedExt)
}

// load reads whichever encoding is newer.
func (s *FilesystemStore) load(key string) (*Artifact, error) {
	var newest *Artifact
	for _, candidate := range []struct {
		path       string
		compressed bool
	}{
		{s.plainPath(key), false},
		{s.compressedPath(key), true},
	} {
		data, err := os.ReadFile(candidate.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &StorageError{Message: ErrMsgReadArtifact, Key: key, Cause: err}
		}
		if candidate.compressed {
			if data, err = brotliDecode(data); err != nil {
				return nil, &StorageError{Message: ErrMsgDecodeArtifact, Key: key, Cause: err}
			}
		}
		var artifact Artifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, &StorageError{Message: ErrMsgDecodeArtifact, Key: key, Cause: err}
		}
		if newest == nil || artifact.UpdatedAt.After(newest.UpdatedAt) {
			newest = &artifact
		}
	}
	if newest == nil {
		return nil, NewArtifactNotFoundError(key)
	}
	return newest, nil
}

func brotliEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, FilesystemBrotliLevel)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecode(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}

// validateArtifactKeyForFilesystem rejects keys that could escape the root.
func validateArtifactKeyForFilesystem(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return &StorageError{Message: ErrMsgInvalidArtifactKey, Key: key}
	}
	return nil
}
