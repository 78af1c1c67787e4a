package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxIDLength is the longest session id in bytes. The file store encodes ids
// into file names and the gorm store keys them in a 191-character column.
const MaxIDLength = 128

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("invalid session id")
	ErrClosed    = errors.New("session store closed")
)

// Store persists snapshots by session id.
//
// Save replaces the whole snapshot atomically: a concurrent Load sees either
// the previous snapshot or the new one. Load returns ErrNotFound for unknown
// ids. Delete of an unknown id is not an error.
type Store interface {
	Load(ctx context.Context, id string) (Snapshot, error)
	Save(ctx context.Context, id string, snap Snapshot) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// ValidateID rejects empty, whitespace-only and over-long ids.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidID, len(id), MaxIDLength)
	}
	return nil
}
