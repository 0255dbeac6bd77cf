package jugledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore keeps the ledger in a single CSV file. Save truncates and
// rewrites the file; there is no locking between processes.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore for the CSV file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the CSV file.
func (s *FileStore) Path() string {
	return s.path
}

// Init implements Store.
func (s *FileStore) Init(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat ledger file: %w", err)
	}
	return s.Save(ctx, nil)
}

// Load implements Store. A missing file is an empty ledger.
func (s *FileStore) Load(_ context.Context) ([]Event, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnreadable, s.path, err)
	}
	defer f.Close()

	events, err := decodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnreadable, s.path, err)
	}
	return events, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, events []Event) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file for write: %w", err)
	}
	if err := encodeCSV(f, events); err != nil {
		_ = f.Close()
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger file: %w", err)
	}
	return nil
}

// Raw implements Store. The bytes are returned exactly as stored, including
// a leading BOM if the file has one.
func (s *FileStore) Raw(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageUnreadable, s.path, err)
	}
	return b, nil
}
