package vars

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore keeps variables in process memory. Values are round-tripped
// through the JSON codec on Set so reads behave exactly like the SQLite
// backend's.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func memKey(popID string, subPop int, name string) string {
	return popID + "\x00" + strconv.Itoa(subPop) + "\x00" + name
}

// Init is a no-op for the memory backend.
func (s *MemoryStore) Init(ctx context.Context) error { return ctx.Err() }

// Set stores a value.
func (s *MemoryStore) Set(ctx context.Context, popID string, subPop int, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[memKey(popID, subPop, name)] = raw
	return nil
}

// Get returns a stored value.
func (s *MemoryStore) Get(ctx context.Context, popID string, subPop int, name string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	raw, ok := s.data[memKey(popID, subPop, name)]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, false, ErrClosed
	}
	if !ok {
		return nil, false, nil
	}
	v, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Delete removes a value.
func (s *MemoryStore) Delete(ctx context.Context, popID string, subPop int, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.data, memKey(popID, subPop, name))
	return nil
}

// Names lists stored variable names for a scope, sorted.
func (s *MemoryStore) Names(ctx context.Context, popID string, subPop int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := popID + "\x00" + strconv.Itoa(subPop) + "\x00"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var names []string
	for k := range s.data {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			names = append(names, k[len(prefix):])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Clear removes every variable of popID.
func (s *MemoryStore) Clear(ctx context.Context, popID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := popID + "\x00"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for k := range s.data {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(s.data, k)
		}
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
