package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"linkvault/pkg/cache"
	"linkvault/pkg/logging"
	"linkvault/pkg/storage"

	"github.com/google/uuid"
)

// memStore is an in-memory RecordStore whose TryConsumeView holds a lock
// across the predicate check and the increment, matching the atomicity the
// Postgres conditional update provides.
type memStore struct {
	mu      sync.Mutex
	records map[string]*storage.LinkRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*storage.LinkRecord)}
}

func (m *memStore) Insert(ctx context.Context, rec *storage.LinkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; exists {
		return storage.ErrDuplicateID
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*storage.LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) TryConsumeView(ctx context.Context, id string, now time.Time) (*storage.LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if !rec.ExpiresAt.After(now) {
		return nil, storage.ErrExpired
	}
	if rec.MaxViews != nil && rec.ViewCount >= *rec.MaxViews {
		return nil, storage.ErrAtLimit
	}
	rec.ViewCount++
	cp := *rec
	return &cp, nil
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]storage.LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.LinkRecord
	for _, rec := range m.records {
		if rec.OwnerID != nil && *rec.OwnerID == ownerID && rec.ExpiresAt.After(now) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memStore) DeleteOwned(ctx context.Context, id string, ownerID uuid.UUID) (*storage.LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[id]
	if !exists || rec.OwnerID == nil || *rec.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	delete(m.records, id)
	cp := *rec
	return &cp, nil
}

func (m *memStore) FindExpired(ctx context.Context, now time.Time) ([]storage.LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.LinkRecord
	for _, rec := range m.records {
		if !rec.ExpiresAt.After(now) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// viewCount reads the stored counter directly, bypassing the service.
func (m *memStore) viewCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, exists := m.records[id]; exists {
		return rec.ViewCount
	}
	return -1
}

func (m *memStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.records[id]
	return exists
}

var _ storage.RecordStore = (*memStore)(nil)

// noopCache is a PeekCache that never hits.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, id string) (*cache.CachedPeek, error) { return nil, nil }
func (noopCache) Set(ctx context.Context, id string, peek *cache.CachedPeek, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, id string) error { return nil }

// recordingCache is a PeekCache that stores entries and records every Set
// and Delete, so tests can see which records were cached and evicted.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*cache.CachedPeek
	sets    []string
	deletes []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*cache.CachedPeek)}
}

func (c *recordingCache) Get(ctx context.Context, id string) (*cache.CachedPeek, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if peek, exists := c.entries[id]; exists {
		cp := *peek
		return &cp, nil
	}
	return nil, nil
}

func (c *recordingCache) Set(ctx context.Context, id string, peek *cache.CachedPeek, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *peek
	c.entries[id] = &cp
	c.sets = append(c.sets, id)
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.deletes = append(c.deletes, id)
	return nil
}

func (c *recordingCache) setIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sets...)
}

func (c *recordingCache) deletedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deletes...)
}

// memBlob records deletes and can be made to fail them.
type memBlob struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (b *memBlob) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (b *memBlob) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memBlob) PublicURL(key string) string { return "http://blob.test/" + key }

func (b *memBlob) deletedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func newTestService(store storage.RecordStore) *RecordService {
	return NewRecordService(store, noopCache{}, &memBlob{}, NewRandomIDGenerator(12),
		logging.NewLogger(logging.LevelError), 10*time.Minute)
}

func newTestServiceWithCache(store storage.RecordStore, peekCache cache.PeekCacheInterface) *RecordService {
	return NewRecordService(store, peekCache, &memBlob{}, NewRandomIDGenerator(12),
		logging.NewLogger(logging.LevelError), 10*time.Minute)
}
