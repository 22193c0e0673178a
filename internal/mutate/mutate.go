package mutate

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds returned by the mutation service. Handlers map these to
// transport status codes: ErrValidation -> 400, ErrNotFound -> 404,
// everything else -> 500. Match with errors.Is.
var (
	ErrValidation  = errors.New("mutate: required input missing")
	ErrNotFound    = errors.New("mutate: record not found")
	ErrPersistence = errors.New("mutate: store operation failed")
)

// Record is the minimal contract an entity must satisfy to be mutated
// through the service. Entities are plain value types; every snapshot the
// service hands out is a value copy, never a live reference.
type Record interface {
	RecordID() string
}

// Actor identifies who a mutation is attributed to.
type Actor struct {
	UserID    string
	IPAddress string
}

// Filter selects records by a single field match. Which fields are
// queryable is up to the store implementation.
type Filter struct {
	Field string
	Value string
}

// Store is the persistence contract for a single entity type. The store
// owns the canonical copy and maintains created_at/updated_at; callers
// always re-fetch rather than reuse stale snapshots.
//
// Implementations return ErrNotFound (possibly wrapped) when a key or
// filter has no match on Get/Update/Delete.
type Store[T Record] interface {
	Get(ctx context.Context, id string) (T, error)
	FindBy(ctx context.Context, f Filter) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
}

// Outcome reports the secondary audit step of a committed mutation.
// A non-nil AuditErr means degraded success: the store write committed but
// the audit append failed, and the caller decides how loudly to surface it.
type Outcome struct {
	AuditErr error
}

func (o Outcome) Degraded() bool { return o.AuditErr != nil }

// wrapStore keeps not-found distinct and folds everything else into the
// persistence kind without losing the underlying message.
func wrapStore(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
