// Package memory supplies standing notes that are added to the system
// prompt of every answer: house rules, user preferences, reference facts.
//
// Notes live in a Store as key/value entries. Keys are /-separated paths;
// Compose renders all of them, in key order, after the base prompt.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrLoadFailed  = errors.New("load failed")
)

// Entry is one note.
type Entry struct {
	Key   string
	Value []byte
}

// Store lists and reads notes. Implementations perform I/O on each call.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, keys ...string) ([]Entry, error)
}

// Config holds memory store initialization parameters.
type Config struct {
	// Path is the FileStore root directory; empty disables memory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MaxBytes bounds the rendered notes. Notes past the limit are dropped
	// whole.
	MaxBytes int `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
}

// DefaultConfig returns the default memory configuration (disabled, 16 KiB
// limit when enabled).
func DefaultConfig() Config {
	return Config{MaxBytes: 16 << 10}
}

func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.MaxBytes > 0 {
		c.MaxBytes = source.MaxBytes
	}
}

// NewStore creates a Store from configuration. It returns a nil Store when
// Path is empty, indicating memory is disabled.
func NewStore(cfg *Config) Store {
	if cfg.Path == "" {
		return nil
	}
	return NewFileStore(cfg.Path)
}

// Compose appends every note in store to base. A nil store returns base
// unchanged. With maxBytes > 0, notes that would push the notes section past
// maxBytes are skipped.
func Compose(ctx context.Context, store Store, base string, maxBytes int) (string, error) {
	if store == nil {
		return base, nil
	}

	keys, err := store.List(ctx)
	if err != nil {
		return base, fmt.Errorf("list memory keys: %w", err)
	}
	if len(keys) == 0 {
		return base, nil
	}
	slices.Sort(keys)

	entries, err := store.Load(ctx, keys...)
	if err != nil {
		return base, fmt.Errorf("load memory entries: %w", err)
	}

	var b strings.Builder
	b.WriteString(base)
	used := 0
	for _, e := range entries {
		content := strings.TrimSpace(string(e.Value))
		if content == "" {
			continue
		}
		section := fmt.Sprintf("\n\n## %s\n%s", e.Key, content)
		if maxBytes > 0 && used+len(section) > maxBytes {
			continue
		}
		used += len(section)
		b.WriteString(section)
	}
	return b.String(), nil
}
