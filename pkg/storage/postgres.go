package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, kind, content, display_name, created_at, expires_at, view_count, max_views, password_hash, owner_id`

type PostgresRecordStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRecordStore(pool *pgxpool.Pool) *PostgresRecordStore {
	return &PostgresRecordStore{pool: pool}
}

// Migrate creates the records table if it does not exist.
func (s *PostgresRecordStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			id            TEXT PRIMARY KEY,
			kind          TEXT NOT NULL,
			content       TEXT NOT NULL,
			display_name  TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at    TIMESTAMPTZ NOT NULL,
			view_count    INTEGER NOT NULL DEFAULT 0,
			max_views     INTEGER,
			password_hash TEXT,
			owner_id      UUID
		);
		CREATE INDEX IF NOT EXISTS idx_records_expires_at ON records (expires_at);
		CREATE INDEX IF NOT EXISTS idx_records_owner_id ON records (owner_id);
	`)
	return err
}

func (s *PostgresRecordStore) Insert(ctx context.Context, rec *LinkRecord) error {
	query := `INSERT INTO records (id, kind, content, display_name, created_at, expires_at, max_views, password_hash, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Kind, rec.Content, rec.DisplayName, rec.CreatedAt, rec.ExpiresAt,
		rec.MaxViews, rec.PasswordHash, rec.OwnerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (s *PostgresRecordStore) FindByID(ctx context.Context, id string) (*LinkRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	return scanRecord(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresRecordStore) TryConsumeView(ctx context.Context, id string, now time.Time) (*LinkRecord, error) {
	query := `UPDATE records
		SET view_count = view_count + 1
		WHERE id = $1
		  AND (max_views IS NULL OR view_count < max_views)
		  AND expires_at > $2
		RETURNING ` + recordColumns
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id, now))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// No row matched; re-read to classify the refusal. The classification is
	// diagnostic only, all three collapse to one answer at the engine boundary.
	existing, ferr := s.FindByID(ctx, id)
	if ferr != nil {
		return nil, ferr
	}
	if !existing.ExpiresAt.After(now) {
		return nil, ErrExpired
	}
	return nil, ErrAtLimit
}

func (s *PostgresRecordStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]LinkRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM records
		WHERE owner_id = $1 AND expires_at > $2
		ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, ownerID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresRecordStore) DeleteByID(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	return err
}

func (s *PostgresRecordStore) DeleteOwned(ctx context.Context, id string, ownerID uuid.UUID) (*LinkRecord, error) {
	query := `DELETE FROM records WHERE id = $1 AND owner_id = $2 RETURNING ` + recordColumns
	return scanRecord(s.pool.QueryRow(ctx, query, id, ownerID))
}

func (s *PostgresRecordStore) FindExpired(ctx context.Context, now time.Time) ([]LinkRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE expires_at <= $1`
	rows, err := s.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func scanRecord(row pgx.Row) (*LinkRecord, error) {
	var rec LinkRecord
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Content, &rec.DisplayName, &rec.CreatedAt,
		&rec.ExpiresAt, &rec.ViewCount, &rec.MaxViews, &rec.PasswordHash, &rec.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]LinkRecord, error) {
	var out []LinkRecord
	for rows.Next() {
		var rec LinkRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Content, &rec.DisplayName, &rec.CreatedAt,
			&rec.ExpiresAt, &rec.ViewCount, &rec.MaxViews, &rec.PasswordHash, &rec.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ RecordStore = (*PostgresRecordStore)(nil)
