package upload

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteLogPrefix = "upload:sqlitestore"

// SQLiteStore keeps upload records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s - opening database: %w", sqliteLogPrefix, err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s - setting busy timeout: %w", sqliteLogPrefix, err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS jaxon_upload_records (
		id TEXT PRIMARY KEY,
		entries TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s - creating table: %w", sqliteLogPrefix, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save writes rec under id.
func (s *SQLiteStore) Save(ctx context.Context, id string, rec *StoredRecord) error {
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return fmt.Errorf("%s - encoding entries: %w", sqliteLogPrefix, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jaxon_upload_records (id, entries, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		id, string(entries), rec.CreatedAt.UnixMilli(), rec.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("%s - saving record: %w", sqliteLogPrefix, err)
	}
	return nil
}

// Load reads the record saved under id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*StoredRecord, error) {
	var entries string
	var created, expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT entries, created_at, expires_at FROM jaxon_upload_records WHERE id = ?`, id,
	).Scan(&entries, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s - loading record: %w", sqliteLogPrefix, err)
	}

	rec := &StoredRecord{CreatedAt: time.UnixMilli(created), ExpiresAt: time.UnixMilli(expires)}
	if err := json.Unmarshal([]byte(entries), &rec.Entries); err != nil {
		return nil, fmt.Errorf("%s - decoding entries: %w", sqliteLogPrefix, err)
	}
	return rec, nil
}

// Delete removes the record saved under id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jaxon_upload_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%s - deleting record: %w", sqliteLogPrefix, err)
	}
	return nil
}

// Purge deletes every record expired at now.
func (s *SQLiteStore) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jaxon_upload_records WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%s - purging records: %w", sqliteLogPrefix, err)
	}
	return res.RowsAffected()
}
