package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

	path, err := s.Save(context.Background(), strings.NewReader("image-bytes"), "Photo.JPG", "problem_images")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "problem_images/2024/03/15/"), path)
	assert.True(t, strings.HasSuffix(path, ".jpg"), path)

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(content))

	require.NoError(t, s.Delete(path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(path)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(path), "deleting a missing file is a no-op")
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = s.Delete("../../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}
