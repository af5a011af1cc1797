// Package overrides provides the persistence backends for the booking
// override blob. Each backend stores the whole mapping as one
// JSON-serialized value; the core never sees the medium.
package overrides

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/bellhart/clinic-portal/internal/schedule"
)

// FileStore keeps the override mapping in a single JSON file, the
// local-disk analog of the browser's storage blob. Saves go through a
// temp file and rename so a crash mid-write cannot corrupt the blob.
type FileStore struct {
	path string
	log  *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, log: logger}
}

// Load returns the persisted mapping. A missing file means no bookings
// yet; a corrupt file is logged and treated the same way, leaving the
// base schedule fully usable.
func (s *FileStore) Load(_ context.Context) (map[string]schedule.Override, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]schedule.Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read override blob: %w", err)
	}
	return decodeBlob(data, s.log), nil
}

func (s *FileStore) Save(_ context.Context, overrides map[string]schedule.Override) error {
	data, err := json.MarshalIndent(overrides, "", "  ")
	if err != nil {
		return fmt.Errorf("encode override blob: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create override dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write override blob: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace override blob: %w", err)
	}
	return nil
}

// decodeBlob deserializes a stored mapping, falling back to an empty
// mapping on corrupt data.
func decodeBlob(data []byte, log *zap.Logger) map[string]schedule.Override {
	var overrides map[string]schedule.Override
	if err := json.Unmarshal(data, &overrides); err != nil {
		log.Warn("override blob is corrupt, starting with empty overrides", zap.Error(err))
		return map[string]schedule.Override{}
	}
	if overrides == nil {
		return map[string]schedule.Override{}
	}
	return overrides
}
