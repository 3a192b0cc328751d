package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// FileStore keeps each document in <dir>/<escaped graph id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-based document store.
// If dir is empty, defaults to ~/.local/share/nodeflow/graphs.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "nodeflow", "graphs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id ids.GraphID) string {
	return filepath.Join(s.dir, url.PathEscape(string(id))+".json")
}

// Put writes the canonical encoding of d.
func (s *FileStore) Put(ctx context.Context, d *document.Document) (Entry, error) {
	data, err := document.Marshal(d)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(d.GraphID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Entry{}, fmt.Errorf("write document: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat document: %w", err)
	}
	return Entry{GraphID: d.GraphID, Hash: cache.Hash(data), UpdatedAt: info.ModTime()}, nil
}

// Get reads and parses the document stored for id.
func (s *FileStore) Get(ctx context.Context, id ids.GraphID) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return document.Parse(data)
}

// List returns every stored document sorted by graph id. Files whose names
// do not decode to a valid graph id are ignored.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var out []Entry
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		raw, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		id := ids.GraphID(raw)
		if !ids.Valid(id) {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat document: %w", err)
		}
		out = append(out, Entry{GraphID: id, Hash: cache.Hash(data), UpdatedAt: info.ModTime()})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(string(a.GraphID), string(b.GraphID)) })
	return out, nil
}

// Delete removes the document stored for id.
func (s *FileStore) Delete(ctx context.Context, id ids.GraphID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
