package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/jaxon/pkg/upload"
)

const uploadsLogPrefix = "db:uploads"

// UploadTokenRepository stores upload records in Postgres. It implements
// upload.TempStore.
type UploadTokenRepository struct {
	pool *pgxpool.Pool
}

// NewUploadTokenRepository creates a repository over pool.
func NewUploadTokenRepository(pool *pgxpool.Pool) *UploadTokenRepository {
	return &UploadTokenRepository{pool: pool}
}

// Save writes rec under id, replacing any previous record.
func (r *UploadTokenRepository) Save(ctx context.Context, id string, rec *upload.StoredRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jaxon_upload_tokens (id, entries, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET entries = EXCLUDED.entries, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		id, rec.Entries, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s - save %s: %w", uploadsLogPrefix, id, err)
	}
	return nil
}

// Load reads the record saved under id.
func (r *UploadTokenRepository) Load(ctx context.Context, id string) (*upload.StoredRecord, error) {
	rec := &upload.StoredRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT entries, created_at, expires_at FROM jaxon_upload_tokens WHERE id = $1`, id,
	).Scan(&rec.Entries, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, upload.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s - load %s: %w", uploadsLogPrefix, id, err)
	}
	return rec, nil
}

// Delete removes the record saved under id.
func (r *UploadTokenRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM jaxon_upload_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s - delete %s: %w", uploadsLogPrefix, id, err)
	}
	return nil
}

// Purge deletes every record expired at now.
func (r *UploadTokenRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jaxon_upload_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s - purge failed: %w", uploadsLogPrefix, err)
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.Info(fmt.Sprintf("%s - Purged %d expired upload records", uploadsLogPrefix, n))
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of stored records.
func (r *UploadTokenRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM jaxon_upload_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s - count failed: %w", uploadsLogPrefix, err)
	}
	return n, nil
}
