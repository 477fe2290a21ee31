package service

import (
	"context"
	"errors"
	"time"

	"linkvault/pkg/cache"
	"linkvault/pkg/security"
	"linkvault/pkg/storage"
)

// PeekResult is the non-consuming metadata view of a live record.
type PeekResult struct {
	Kind        storage.RecordKind `json:"kind"`
	DisplayName *string            `json:"display_name,omitempty"`
	Protected   bool               `json:"protected"`
}

// RevealResult is returned once a view has been consumed. Content is the
// text payload for a text record and the blob object key for a file record.
type RevealResult struct {
	Kind        storage.RecordKind `json:"kind"`
	Content     string             `json:"content"`
	DisplayName *string            `json:"display_name,omitempty"`
}

// Peek reports whether a record is accessible without consuming a view.
// Absent, expired, and at-limit records are indistinguishable to the caller.
func (s *RecordService) Peek(ctx context.Context, id string) (*PeekResult, error) {
	now := s.nowFunc()

	if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
		if !cached.ExpiresAt.After(now) {
			_ = s.cache.Delete(ctx, id)
			s.logger.LogAccessDenied(ctx, "peek", id, "expired")
			return nil, ErrNotFound
		}
		return &PeekResult{
			Kind:        storage.RecordKind(cached.Kind),
			DisplayName: cached.DisplayName,
			Protected:   cached.Protected,
		}, nil
	}

	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.LogAccessDenied(ctx, "peek", id, "absent")
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cause, gone := isGone(rec, now); gone {
		s.logger.LogAccessDenied(ctx, "peek", id, cause)
		return nil, ErrNotFound
	}

	// Only ceiling-free records are cached; a ceiling check needs the live
	// counter and must go to the store every time.
	if rec.MaxViews == nil {
		ttl := rec.ExpiresAt.Sub(now)
		if ttl > 0 {
			_ = s.cache.Set(ctx, id, &cache.CachedPeek{
				Kind:        string(rec.Kind),
				DisplayName: rec.DisplayName,
				Protected:   rec.PasswordHash != nil,
				ExpiresAt:   rec.ExpiresAt,
			}, ttl)
		}
	}

	return &PeekResult{
		Kind:        rec.Kind,
		DisplayName: rec.DisplayName,
		Protected:   rec.PasswordHash != nil,
	}, nil
}

// Reveal returns the record's content and consumes one view. The password
// gate runs before consumption: a failed attempt never changes the counter.
// The increment itself is a single conditional update in the store, so two
// concurrent reveals cannot both take the last remaining view.
func (s *RecordService) Reveal(ctx context.Context, id, password string) (*RevealResult, error) {
	now := s.nowFunc()

	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.LogAccessDenied(ctx, "reveal", id, "absent")
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cause, gone := isGone(rec, now); gone {
		s.logger.LogAccessDenied(ctx, "reveal", id, cause)
		return nil, ErrNotFound
	}

	if rec.PasswordHash != nil {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if !security.VerifyPassword(password, *rec.PasswordHash) {
			s.logger.LogAccessDenied(ctx, "reveal", id, "bad_password")
			return nil, ErrIncorrectPassword
		}
	}

	// Consume-view errors are never retried: a retry after an ambiguous
	// failure could take two views for one reveal.
	consumed, err := s.store.TryConsumeView(ctx, id, now)
	if err != nil {
		if storage.IsGone(err) {
			s.logger.LogAccessDenied(ctx, "reveal", id, err.Error())
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.LogRecordOperation(ctx, "reveal", id, true)
	return &RevealResult{
		Kind:        consumed.Kind,
		Content:     consumed.Content,
		DisplayName: consumed.DisplayName,
	}, nil
}

// isGone applies the lazy-expiry rules: a record past its expiry time or at
// its view ceiling behaves as nonexistent even while physically present.
func isGone(rec *storage.LinkRecord, now time.Time) (string, bool) {
	if !rec.ExpiresAt.After(now) {
		return "expired", true
	}
	if rec.MaxViews != nil && rec.ViewCount >= *rec.MaxViews {
		return "at_limit", true
	}
	return "", false
}
