// Package jsonfile stores items as JSON documents under .wreckit/items.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/item"
)

// TmpSuffix marks in-flight atomic writes. Leftovers indicate a crash.
const TmpSuffix = ".tmp"

// ItemStore implements item.Store with one directory per item.
type ItemStore struct {
	paths config.Paths
	mu    sync.RWMutex
}

var _ item.Store = (*ItemStore)(nil)

// NewItemStore creates a store rooted at paths.ItemsDir().
func NewItemStore(paths config.Paths) *ItemStore {
	return &ItemStore{paths: paths}
}

// List returns every readable item sorted by id. Directories without an
// item.json are skipped; unreadable items fail the listing.
func (s *ItemStore) List(ctx context.Context) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.paths.ItemsDir())
	if errors.Is(err, os.ErrNotExist) {
		return []item.Item{}, nil
	}
	if err != nil {
		return nil, &item.StorageError{Op: "list", Err: err}
	}

	items := make([]item.Item, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		it, err := s.load(e.Name())
		if errors.Is(err, item.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Get returns the item with the given id. Returns item.ErrNotFound if missing.
func (s *ItemStore) Get(ctx context.Context, id string) (item.Item, error) {
	if err := validID(id); err != nil {
		return item.Item{}, &item.StorageError{Op: "read", ID: id, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

// Save atomically replaces the stored item.
func (s *ItemStore) Save(ctx context.Context, it item.Item) error {
	if err := validID(it.ID); err != nil {
		return &item.StorageError{Op: "save", ID: it.ID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.paths.Artifact(it.ID, config.ItemFile), it); err != nil {
		return &item.StorageError{Op: "save", ID: it.ID, Err: err}
	}
	return nil
}

// Create stores a new item. Returns item.ErrExists if the id is taken.
func (s *ItemStore) Create(ctx context.Context, it item.Item) error {
	if err := validID(it.ID); err != nil {
		return &item.StorageError{Op: "create", ID: it.ID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.paths.Artifact(it.ID, config.ItemFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", item.ErrExists, it.ID)
	}

	if err := writeJSON(path, it); err != nil {
		return &item.StorageError{Op: "create", ID: it.ID, Err: err}
	}
	return nil
}

// GetRequirements returns the parsed prd.json or nil when it does not exist.
// A present but malformed document is an error.
func (s *ItemStore) GetRequirements(ctx context.Context, id string) (*item.RequirementsDoc, error) {
	if err := validID(id); err != nil {
		return nil, &item.StorageError{Op: "read requirements", ID: id, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.paths.Artifact(id, config.RequirementsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &item.StorageError{Op: "read requirements", ID: id, Err: err}
	}

	var doc item.RequirementsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &item.StorageError{Op: "decode requirements", ID: id, Err: err}
	}
	if err := doc.Validate(); err != nil {
		return nil, &item.StorageError{Op: "validate requirements", ID: id, Err: err}
	}

	return &doc, nil
}

// SaveRequirements atomically replaces prd.json for doc.ID.
func (s *ItemStore) SaveRequirements(ctx context.Context, doc item.RequirementsDoc) error {
	if err := validID(doc.ID); err != nil {
		return &item.StorageError{Op: "save requirements", ID: doc.ID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.paths.Artifact(doc.ID, config.RequirementsFile), doc); err != nil {
		return &item.StorageError{Op: "save requirements", ID: doc.ID, Err: err}
	}
	return nil
}

// ArtifactExists reports whether a non-empty artifact file exists.
func (s *ItemStore) ArtifactExists(ctx context.Context, id, name string) (bool, error) {
	if err := validID(id); err != nil {
		return false, &item.StorageError{Op: "stat " + name, ID: id, Err: err}
	}
	info, err := os.Stat(s.paths.Artifact(id, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &item.StorageError{Op: "stat " + name, ID: id, Err: err}
	}
	return !info.IsDir() && info.Size() > 0, nil
}

// ReadArtifact returns the raw content of an artifact.
func (s *ItemStore) ReadArtifact(ctx context.Context, id, name string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, &item.StorageError{Op: "read " + name, ID: id, Err: err}
	}
	data, err := os.ReadFile(s.paths.Artifact(id, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s for %s: %w", name, id, os.ErrNotExist)
	}
	if err != nil {
		return nil, &item.StorageError{Op: "read " + name, ID: id, Err: err}
	}
	return data, nil
}

// WriteArtifact atomically writes a raw artifact.
func (s *ItemStore) WriteArtifact(ctx context.Context, id, name string, data []byte) error {
	if err := validID(id); err != nil {
		return &item.StorageError{Op: "write " + name, ID: id, Err: err}
	}
	if err := writeAtomic(s.paths.Artifact(id, name), data); err != nil {
		return &item.StorageError{Op: "write " + name, ID: id, Err: err}
	}
	return nil
}

// AppendProgress appends a line to the item's progress log.
func (s *ItemStore) AppendProgress(id, line string) error {
	if err := validID(id); err != nil {
		return &item.StorageError{Op: "append progress", ID: id, Err: err}
	}
	path := s.paths.Artifact(id, config.ProgressFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err = f.WriteString(line)
	return err
}

// ProgressWriter opens the progress log for appending raw worker output.
func (s *ItemStore) ProgressWriter(id string) (io.WriteCloser, error) {
	if err := validID(id); err != nil {
		return nil, &item.StorageError{Op: "open progress", ID: id, Err: err}
	}
	path := s.paths.Artifact(id, config.ProgressFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func (s *ItemStore) load(id string) (item.Item, error) {
	data, err := os.ReadFile(s.paths.Artifact(id, config.ItemFile))
	if errors.Is(err, os.ErrNotExist) {
		return item.Item{}, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	if err != nil {
		return item.Item{}, &item.StorageError{Op: "read", ID: id, Err: err}
	}

	var it item.Item
	if err := json.Unmarshal(data, &it); err != nil {
		return item.Item{}, &item.StorageError{Op: "decode", ID: id, Err: err}
	}
	if it.ID != id {
		return item.Item{}, &item.StorageError{Op: "decode", ID: id, Err: fmt.Errorf("item.json declares id %q", it.ID)}
	}

	return it, nil
}

func validID(id string) error {
	switch {
	case id == "":
		return errors.New("id is required")
	case strings.ContainsAny(id, `/\`), id == ".", id == "..":
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(path, append(data, '\n'))
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+TmpSuffix)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
