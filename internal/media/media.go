// Package media is a write-once blob store for uploaded files. Files get
// random hex names under a single directory and are served back under the
// /media/ URL prefix.
package media

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// URLPrefix is the public path files are served under.
const URLPrefix = "/media/"

// SavedFile describes one stored blob.
type SavedFile struct {
	Name         string `json:"-"`
	URL          string `json:"url"`
	OriginalName string `json:"filename"`
}

// Store writes uploaded files into a single directory.
type Store struct {
	dir string
}

// NewStore creates the media directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("media: create directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory, for static file serving.
func (s *Store) Dir() string { return s.dir }

// Save writes data under a random name, keeping only the extension of the
// original filename. Stored files are never overwritten or mutated.
func (s *Store) Save(originalName string, data []byte) (SavedFile, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return SavedFile{}, fmt.Errorf("media: random name: %w", err)
	}

	name := hex.EncodeToString(buf[:]) + sanitizeExt(originalName)
	dest := filepath.Join(s.dir, name)

	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return SavedFile{}, fmt.Errorf("media: write %s: %w", name, err)
	}

	return SavedFile{
		Name:         name,
		URL:          URLPrefix + name,
		OriginalName: originalName,
	}, nil
}

// sanitizeExt keeps a plain lowercase extension and drops anything odd.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
