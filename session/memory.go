package session

import (
	"container/list"
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory. With a positive capacity
// the least recently used session is evicted when a new one is saved.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	closed   bool
}

type memoryEntry struct {
	id   string
	snap Snapshot
}

// NewMemoryStore creates a MemoryStore. capacity <= 0 means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	el, ok := s.entries[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	s.order.MoveToFront(el)
	return el.Value.(*memoryEntry).snap.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, snap Snapshot) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if el, ok := s.entries[id]; ok {
		el.Value.(*memoryEntry).snap = snap.Clone()
		s.order.MoveToFront(el)
		return nil
	}

	s.entries[id] = s.order.PushFront(&memoryEntry{id: id, snap: snap.Clone()})
	for s.capacity > 0 && s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*memoryEntry).id)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if el, ok := s.entries[id]; ok {
		s.order.Remove(el)
		delete(s.entries, id)
	}
	return nil
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	s.order.Init()
	return nil
}
