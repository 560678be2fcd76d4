package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrOutsideRoot = errors.New("path escapes storage root")

// LocalStorage keeps uploaded files under a media root and hands out paths
// relative to it.
type LocalStorage struct {
	root string
	now  func() time.Time
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStorage{root: root, now: time.Now}, nil
}

// Save writes r to dir/YYYY/MM/DD/<uuid><ext> and returns that relative path
// with forward slashes.
func (s *LocalStorage) Save(ctx context.Context, r io.Reader, filename, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext
	datePath := s.now().UTC().Format("2006/01/02")
	rel := filepath.Join(filepath.Clean(dir), datePath, name)

	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(full)
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// Delete removes the file at a path returned by Save. A missing file is not
// an error.
func (s *LocalStorage) Delete(path string) error {
	full, err := s.resolve(filepath.FromSlash(path))
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, rel)
	back, err := filepath.Rel(s.root, full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return full, nil
}
