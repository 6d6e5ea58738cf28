package boltview

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/itsatony/go-boltview/internal"
	"github.com/itsatony/go-cuserr"
)

// ManifestEntry maps a participating template file to its md5 fingerprint.
// Files under the home directory are recorded without the home prefix.
type ManifestEntry = internal.ManifestEntry

// Manifest is the decoded first line of a compiled artifact.
type Manifest struct {
	Entries  []ManifestEntry
	Compress bool
	// HasCompress is false for headers written without the compress flag.
	HasCompress bool
}

// ParseManifest decodes the manifest header of compiled code.
func ParseManifest(code string) (*Manifest, error) {
	data, err := internal.ParseManifest(code)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeTemplate, internal.ErrMsgManifestMalformed)
	}
	return &Manifest{Entries: data.Entries, Compress: data.Compress, HasCompress: data.HasCompress}, nil
}

// Fresh reports whether compiled code with this manifest can be reused: the
// compress flag must match and every listed file must still exist with the
// same fingerprint. homeDir is prepended to home-relative entry paths; files
// outside the home dir are recorded absolute and checked as is.
func (m *Manifest) Fresh(homeDir string, compress bool) bool {
	if !m.HasCompress || m.Compress != compress {
		return false
	}
	for _, entry := range m.Entries {
		sum, err := Fingerprint(entryPath(homeDir, entry.Path))
		if err != nil || sum != entry.Hash {
			return false
		}
	}
	return true
}

// entryPath maps a manifest entry back to a file path. Home-relative entries
// keep their leading separator, so an absolute entry falls back to itself
// only when nothing exists under homeDir.
func entryPath(homeDir, name string) string {
	if homeDir == "" {
		return name
	}
	joined := homeDir + name
	if filepath.IsAbs(name) {
		if _, err := os.Stat(joined); err != nil {
			return name
		}
	}
	return joined
}

// Files returns the entry paths in header order.
func (m *Manifest) Files() []string {
	files := make([]string, len(m.Entries))
	for i, entry := range m.Entries {
		files[i] = entry.Path
	}
	return files
}

// Fingerprint returns the md5 hex digest of a regular file.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", os.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
