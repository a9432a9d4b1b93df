package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const fileStoreLogPrefix = "upload:filestore"

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("upload: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// fileRecord is the on-disk form of a StoredRecord.
type fileRecord struct {
	Entries   map[string]string `cbor:"1,keyasint"`
	CreatedAt int64             `cbor:"2,keyasint"`
	ExpiresAt int64             `cbor:"3,keyasint"`
}

// FileStore keeps one CBOR file per upload record in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%s - failed to create %s: %w", fileStoreLogPrefix, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%s - invalid record id %q", fileStoreLogPrefix, id)
	}
	return filepath.Join(s.dir, id+".cbor"), nil
}

// Save writes rec under id.
func (s *FileStore) Save(_ context.Context, id string, rec *StoredRecord) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	data, err := cborEncMode.Marshal(fileRecord{
		Entries:   rec.Entries,
		CreatedAt: rec.CreatedAt.UnixMilli(),
		ExpiresAt: rec.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("%s - failed to encode record: %w", fileStoreLogPrefix, err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%s - failed to write record: %w", fileStoreLogPrefix, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s - failed to commit record: %w", fileStoreLogPrefix, err)
	}
	return nil
}

// Load reads the record saved under id.
func (s *FileStore) Load(_ context.Context, id string) (*StoredRecord, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, ErrTokenNotFound
	}
	return readFileRecord(p)
}

func readFileRecord(p string) (*StoredRecord, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read record: %w", fileStoreLogPrefix, err)
	}
	var fr fileRecord
	if err := cbor.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("%s - failed to decode record %s: %w", fileStoreLogPrefix, filepath.Base(p), err)
	}
	return &StoredRecord{
		Entries:   fr.Entries,
		CreatedAt: time.UnixMilli(fr.CreatedAt),
		ExpiresAt: time.UnixMilli(fr.ExpiresAt),
	}, nil
}

// Delete removes the record saved under id.
func (s *FileStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s - failed to delete record: %w", fileStoreLogPrefix, err)
	}
	return nil
}

// Purge deletes every record expired at now. Unreadable records are removed
// as well.
func (s *FileStore) Purge(ctx context.Context, now time.Time) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("%s - failed to list %s: %w", fileStoreLogPrefix, s.dir, err)
	}

	var purged int64
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cbor") {
			continue
		}
		p := filepath.Join(s.dir, e.Name())
		rec, err := readFileRecord(p)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - removing unreadable record %s: %v", fileStoreLogPrefix, e.Name(), err))
		} else if !rec.Expired(now) {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return purged, fmt.Errorf("%s - failed to purge %s: %w", fileStoreLogPrefix, e.Name(), err)
		}
		purged++
	}
	return purged, nil
}
