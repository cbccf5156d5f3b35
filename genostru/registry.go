package genostru

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Index is the one-byte handle of an interned Structure. Individuals store
// an Index rather than a pointer, so the per-individual structural overhead
// is a single byte.
type Index uint8

// MaxStructures caps the process-wide registry. The cap exists so Index
// fits in a byte; it is a memory-density contract, not an incidental limit.
const MaxStructures = 256

// The registry is append-only. Intern serializes writers with a mutex and
// publishes a fresh slice header through an atomic pointer, so Get never
// takes a lock: interned entries are immutable after append.
var (
	internMu sync.Mutex
	entries  atomic.Pointer[[]*Structure]
)

// Intern returns the Index of a registry entry equal to s by value, adding a
// new entry when none exists. Returns ErrRegistryFull once MaxStructures
// distinct structures have been interned.
func Intern(s Structure) (Index, error) {
	internMu.Lock()
	defer internMu.Unlock()

	cur := loadEntries()
	for i, e := range cur {
		if e.equal(&s) {
			return Index(i), nil
		}
	}
	if len(cur) >= MaxStructures {
		return 0, ErrRegistryFull
	}

	next := make([]*Structure, len(cur)+1)
	copy(next, cur)
	own := s // registry owns its copy
	next[len(cur)] = &own
	entries.Store(&next)
	return Index(len(cur)), nil
}

// Get returns the interned Structure at idx. The returned pointer must be
// treated as read-only.
func Get(idx Index) (*Structure, error) {
	cur := loadEntries()
	if int(idx) >= len(cur) {
		return nil, fmt.Errorf("%w: structure index %d of %d", ErrIndexOutOfRange, idx, len(cur))
	}
	return cur[idx], nil
}

// MustGet is Get for callers holding an index obtained from Intern; such an
// index cannot be stale because entries are never removed.
func MustGet(idx Index) *Structure {
	s, err := Get(idx)
	if err != nil {
		panic(err)
	}
	return s
}

// NumStructures returns the current registry size.
func NumStructures() int { return len(loadEntries()) }

func loadEntries() []*Structure {
	p := entries.Load()
	if p == nil {
		return nil
	}
	return *p
}
