package storage

import (
	"time"

	"github.com/google/uuid"
)

type RecordKind string

const (
	KindText RecordKind = "text"
	KindFile RecordKind = "file"
)

// LinkRecord is the unit of shared content addressed by a public identifier.
// For KindText, Content holds the payload itself; for KindFile it holds the
// object key of the blob in external storage.
type LinkRecord struct {
	ID           string     `json:"id" db:"id"`
	Kind         RecordKind `json:"kind" db:"kind"`
	Content      string     `json:"-" db:"content"`
	DisplayName  *string    `json:"display_name,omitempty" db:"display_name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at" db:"expires_at"`
	ViewCount    int        `json:"view_count" db:"view_count"`
	MaxViews     *int       `json:"max_views,omitempty" db:"max_views"`
	PasswordHash *string    `json:"-" db:"password_hash"`
	OwnerID      *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
}

// RecordMeta is the owner-facing projection of a LinkRecord: no content body,
// no password hash.
type RecordMeta struct {
	ID          string     `json:"id"`
	Kind        RecordKind `json:"kind"`
	DisplayName *string    `json:"display_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ViewCount   int        `json:"view_count"`
	MaxViews    *int       `json:"max_views,omitempty"`
	Protected   bool       `json:"protected"`
}

// Meta returns the owner-facing projection of r.
func (r *LinkRecord) Meta() RecordMeta {
	return RecordMeta{
		ID:          r.ID,
		Kind:        r.Kind,
		DisplayName: r.DisplayName,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
		ViewCount:   r.ViewCount,
		MaxViews:    r.MaxViews,
		Protected:   r.PasswordHash != nil,
	}
}
