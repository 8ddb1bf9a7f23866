package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ypg-dashboard/internal/model"
)

// MediaStore removes files owned by records when they are permanently
// deleted.
type MediaStore interface {
	Remove(mediaPath string) error
}

type Storage struct {
	validator *PathValidator
}

var _ MediaStore = (*Storage)(nil)

func New(root string) (*Storage, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}

	return &Storage{validator: validator}, nil
}

func (s *Storage) RootAbs() string {
	return s.validator.RootAbs()
}

// External reports whether a media reference points off-host, in which case
// there is nothing local to remove.
func External(mediaPath string) bool {
	lower := strings.ToLower(strings.TrimSpace(mediaPath))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//")
}

func (s *Storage) Exists(mediaPath string) bool {
	if External(mediaPath) {
		return false
	}
	resolved, err := s.validator.ResolvePath(mediaPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(resolved)
	return err == nil && !info.IsDir()
}

func (s *Storage) Remove(mediaPath string) error {
	if External(mediaPath) {
		return nil
	}

	resolved, err := s.validator.ResolvePath(mediaPath)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ErrMediaNotFound
		}
		return fmt.Errorf("remove media %q: %w", mediaPath, err)
	}

	s.pruneEmptyParents(filepath.Dir(resolved))
	return nil
}

func (s *Storage) pruneEmptyParents(dir string) {
	root := s.validator.RootAbs()
	for dir != root && isWithinRoot(root, dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
