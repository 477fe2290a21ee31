package service

import (
	"context"
	"errors"

	"linkvault/pkg/storage"

	"github.com/google/uuid"
)

// ListOwned returns the metadata of the owner's non-expired records, newest
// first. Content bodies and password hashes never leave the store here.
func (s *RecordService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]storage.RecordMeta, error) {
	records, err := s.store.ListByOwner(ctx, ownerID, s.nowFunc())
	if err != nil {
		return nil, err
	}
	metas := make([]storage.RecordMeta, 0, len(records))
	for i := range records {
		metas = append(metas, records[i].Meta())
	}
	return metas, nil
}

// DeleteOwned removes a record if and only if it belongs to ownerID. The
// ownership check and the delete are one conditional statement in the store;
// a caller who does not own the record gets the same answer as for a record
// that does not exist.
func (s *RecordService) DeleteOwned(ctx context.Context, ownerID uuid.UUID, id string) error {
	rec, err := s.store.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.LogAccessDenied(ctx, "delete", id, "absent_or_forbidden")
			return ErrNotFound
		}
		return err
	}

	if rec.Kind == storage.KindFile {
		// Best effort: the metadata row is already gone, so a failed blob
		// delete leaves an orphaned object, never a dangling reference.
		if err := s.blobs.Delete(ctx, rec.Content); err != nil {
			s.logger.Warn(ctx, "blob delete failed", "key", rec.Content, "error", err)
		}
	}
	_ = s.cache.Delete(ctx, id)

	s.logger.LogRecordOperation(ctx, "delete", id, true)
	return nil
}
