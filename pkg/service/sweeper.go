package service

import (
	"context"
	"time"

	"linkvault/pkg/blob"
	"linkvault/pkg/cache"
	"linkvault/pkg/logging"
	"linkvault/pkg/storage"
)

// Sweeper reclaims expired records and their blobs on a fixed interval. It is
// advisory cleanup only: the access engine's lazy-expiry checks are the
// authority, so a missed cycle delays reclamation but never access decisions.
type Sweeper struct {
	store    storage.RecordStore
	blobs    blob.Store
	cache    cache.PeekCacheInterface
	logger   *logging.Logger
	interval time.Duration
	nowFunc  func() time.Time
}

func NewSweeper(store storage.RecordStore, blobs blob.Store, peekCache cache.PeekCacheInterface, logger *logging.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		store:    store,
		blobs:    blobs,
		cache:    peekCache,
		logger:   logger,
		interval: interval,
		nowFunc:  time.Now,
	}
}

// Run sweeps on every tick until ctx is cancelled. A pass that fails is
// logged and retried at the next tick; it never takes the process down.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.logger.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce purges every record already expired at the time of the call.
// Records are handled one at a time; a blob-store failure on one record is
// logged and its metadata row is deleted anyway, so the dashboard never shows
// entries whose blob may already be gone.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	expired, err := s.store.FindExpired(ctx, s.nowFunc())
	if err != nil {
		return err
	}

	purged, blobFailures := 0, 0
	for i := range expired {
		rec := &expired[i]
		if rec.Kind == storage.KindFile {
			if err := s.blobs.Delete(ctx, rec.Content); err != nil {
				blobFailures++
				s.logger.Warn(ctx, "blob delete failed during sweep", "key", rec.Content, "error", err)
			}
		}
		if err := s.store.DeleteByID(ctx, rec.ID); err != nil {
			s.logger.Warn(ctx, "record delete failed during sweep", "error", err)
			continue
		}
		_ = s.cache.Delete(ctx, rec.ID)
		purged++
	}

	if len(expired) > 0 {
		s.logger.LogSweep(ctx, len(expired), purged, blobFailures)
	}
	return nil
}
