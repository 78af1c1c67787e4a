package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes one JSON file per session under a root directory.
// Writes go to a temporary file that is renamed into place.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// path maps an id to a file name that is safe for any id content.
func (s *FileStore) path(id string) string {
	return filepath.Join(s.root, base64.RawURLEncoding.EncodeToString([]byte(id))+".json")
}

func (s *FileStore) Load(_ context.Context, id string) (Snapshot, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return decode(id, data)
}

func (s *FileStore) Save(_ context.Context, id string, snap Snapshot) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	data, err := encode(id, snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save session %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save session %s: %w", id, err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
