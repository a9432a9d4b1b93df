package upload

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound is returned by TempStore.Load for unknown ids.
var ErrTokenNotFound = errors.New("upload record not found")

// StoredRecord is the persisted file list of one upload.
type StoredRecord struct {
	Entries   map[string]string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record expired at now.
func (r *StoredRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// TempStore persists upload records between the upload request and the call
// that consumes them. Records stay readable until they expire.
type TempStore interface {
	Save(ctx context.Context, id string, rec *StoredRecord) error
	Load(ctx context.Context, id string) (*StoredRecord, error)
	Delete(ctx context.Context, id string) error
	Purge(ctx context.Context, now time.Time) (int64, error)
}
