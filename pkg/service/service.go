package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkvault/pkg/blob"
	"linkvault/pkg/cache"
	"linkvault/pkg/logging"
	"linkvault/pkg/security"
	"linkvault/pkg/storage"

	"github.com/google/uuid"
)

// insertRetries bounds regeneration attempts after an identifier collision.
const insertRetries = 5

type RecordService struct {
	store         storage.RecordStore
	cache         cache.PeekCacheInterface
	blobs         blob.Store
	gen           IDGenerator
	logger        *logging.Logger
	defaultExpiry time.Duration
	nowFunc       func() time.Time
}

func NewRecordService(store storage.RecordStore, peekCache cache.PeekCacheInterface, blobs blob.Store, gen IDGenerator, logger *logging.Logger, defaultExpiry time.Duration) *RecordService {
	if defaultExpiry <= 0 {
		defaultExpiry = 10 * time.Minute
	}
	return &RecordService{
		store:         store,
		cache:         peekCache,
		blobs:         blobs,
		gen:           gen,
		logger:        logger,
		defaultExpiry: defaultExpiry,
		nowFunc:       time.Now,
	}
}

type CreateRequest struct {
	// Text is the literal payload for a text record.
	Text string
	// FileKey is the blob object key for a file record, set by the upload
	// gateway after storing the payload.
	FileKey string
	// FileName is the original filename shown to viewers of a file record.
	FileName string

	ExpiresAt *time.Time
	MaxViews  *int
	Password  string
	OwnerID   *uuid.UUID
}

// Create validates the request, assigns an identifier, and persists the
// record. Immutable fields are fixed here; nothing but the view counter
// changes afterwards.
func (s *RecordService) Create(ctx context.Context, req *CreateRequest) (*storage.LinkRecord, error) {
	now := s.nowFunc()

	hasText := req.Text != ""
	hasFile := req.FileKey != ""
	if hasText == hasFile {
		return nil, fmt.Errorf("%w: provide either text or a file", ErrValidation)
	}

	expiresAt := now.Add(s.defaultExpiry)
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, fmt.Errorf("%w: expiry must be in the future", ErrValidation)
		}
		expiresAt = *req.ExpiresAt
	}

	if req.MaxViews != nil && *req.MaxViews <= 0 {
		return nil, fmt.Errorf("%w: max views must be positive", ErrValidation)
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := security.HashPassword(req.Password)
		if err != nil {
			if errors.Is(err, security.ErrPasswordTooShort) {
				return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, security.MinPasswordLength)
			}
			return nil, err
		}
		passwordHash = &hash
	}

	rec := &storage.LinkRecord{
		Kind:         storage.KindText,
		Content:      req.Text,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		MaxViews:     req.MaxViews,
		PasswordHash: passwordHash,
		OwnerID:      req.OwnerID,
	}
	if hasFile {
		rec.Kind = storage.KindFile
		rec.Content = req.FileKey
		if req.FileName != "" {
			name := req.FileName
			rec.DisplayName = &name
		}
	}

	for attempt := 0; attempt < insertRetries; attempt++ {
		id, err := s.gen.NewID()
		if err != nil {
			return nil, err
		}
		rec.ID = id

		err = s.store.Insert(ctx, rec)
		if err == nil {
			s.logger.LogRecordOperation(ctx, "create", rec.ID, true)
			return rec, nil
		}
		if !errors.Is(err, storage.ErrDuplicateID) {
			return nil, err
		}
		s.logger.Warn(ctx, "identifier collision, regenerating", "attempt", attempt+1)
	}
	return nil, fmt.Errorf("could not allocate a unique identifier after %d attempts", insertRetries)
}
