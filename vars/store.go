package vars

import (
	"context"
	"errors"
)

// PopScope is the subpopulation scope addressing the whole population.
const PopScope = -1

var (
	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("vars: store is closed")

	// ErrUnknownKind indicates an unrecognized backend kind.
	ErrUnknownKind = errors.New("vars: unknown store kind")
)

// Store persists population variables. Implementations must be safe for
// concurrent use.
type Store interface {
	// Init prepares the backend (schema creation for SQLite).
	Init(ctx context.Context) error

	// Set stores a value under (popID, subPop, name), overwriting any
	// previous value.
	Set(ctx context.Context, popID string, subPop int, name string, value any) error

	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, popID string, subPop int, name string) (any, bool, error)

	// Delete removes a value; deleting a missing value is not an error.
	Delete(ctx context.Context, popID string, subPop int, name string) error

	// Names lists the variable names stored under (popID, subPop), sorted.
	Names(ctx context.Context, popID string, subPop int) ([]string, error)

	// Clear removes every variable of popID across all scopes.
	Clear(ctx context.Context, popID string) error

	// Close releases backend resources.
	Close() error
}
