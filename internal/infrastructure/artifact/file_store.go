// Package artifact stores the serialized model on the local filesystem.
// A single named blob is kept; each training run overwrites it atomically.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edusignal/dropout-radar/internal/domain/shared"
)

// FileStore implements ml.ArtifactStore on a single file path.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the artifact location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the artifact via a temp file and rename, so a crashed run can
// never leave a truncated artifact behind.
func (s *FileStore) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("artifact: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("artifact: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("artifact: replace: %w", err)
	}
	return nil
}

// Load reads the current artifact. A missing file satisfies
// errors.Is(err, shared.ErrNotFound).
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no model artifact at %s", shared.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("artifact: read: %w", err)
	}
	return data, nil
}
