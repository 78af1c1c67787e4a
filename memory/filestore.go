package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// noteExt is the file extension of a note. Keys omit it.
const noteExt = ".md"

type notesDir struct {
	fsys fs.FS
}

// NewFileStore reads notes from the Markdown files under root. The key of
// root/user/preferences.md is "user/preferences". A missing root holds no
// notes.
func NewFileStore(root string) Store {
	return NewFSStore(os.DirFS(root))
}

// NewFSStore reads notes from the Markdown files of fsys. Hidden files and
// directories are skipped, as is anything without the .md extension.
func NewFSStore(fsys fs.FS) Store {
	return &notesDir{fsys: fsys}
}

func (s *notesDir) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && path.Ext(p) == noteExt {
			keys = append(keys, strings.TrimSuffix(p, noteExt))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return keys, nil
}

func (s *notesDir) Load(_ context.Context, keys ...string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		data, err := fs.ReadFile(s.fsys, key+noteExt)
		switch {
		case err == nil:
			entries = append(entries, Entry{Key: key, Value: data})
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		default:
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
		}
	}
	return entries, nil
}
