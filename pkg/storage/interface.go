package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordStore is the persistence contract for link records. The store is the
// single synchronization point of the service: TryConsumeView and DeleteOwned
// must be atomic conditional writes, never fetch-then-act sequences.
type RecordStore interface {
	// Insert stores a new record. Returns ErrDuplicateID if the identifier
	// is already taken.
	Insert(ctx context.Context, rec *LinkRecord) error

	// FindByID returns the record regardless of expiry or view state.
	// Returns ErrNotFound if no row exists.
	FindByID(ctx context.Context, id string) (*LinkRecord, error)

	// TryConsumeView increments the view counter by one if and only if the
	// record exists, has not expired at now, and is below its view ceiling.
	// The predicate and the increment execute as one conditional update.
	// On failure it returns ErrNotFound, ErrExpired, or ErrAtLimit.
	TryConsumeView(ctx context.Context, id string, now time.Time) (*LinkRecord, error)

	// ListByOwner returns the owner's non-expired records, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]LinkRecord, error)

	// DeleteByID removes a record unconditionally. Deleting a missing record
	// is not an error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteOwned removes a record only if it belongs to ownerID, as a single
	// conditional delete. Returns the deleted record, or ErrNotFound when no
	// row matched (absent or not owned; callers cannot tell which).
	DeleteOwned(ctx context.Context, id string, ownerID uuid.UUID) (*LinkRecord, error)

	// FindExpired returns records whose expiry time is at or before now.
	FindExpired(ctx context.Context, now time.Time) ([]LinkRecord, error)
}
