package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/storage"
)

// Store keeps assets as plain files under the root directory
// Directories are created on first write
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) path(key string) (string, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes to temporary file first and renames it, so readers never see partial content
func (s *Store) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := s.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("localfs: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("localfs: create file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("localfs: write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localfs: close file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("localfs: chmod file: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("localfs: rename file: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localfs: remove file: %w", err)
	}

	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	var info storage.ObjectInfo

	if err := ctx.Err(); err != nil {
		return nil, info, err
	}

	p, err := s.path(key)
	if err != nil {
		return nil, info, err
	}

	f, err := os.Open(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, info, apperrors.ErrAssetNotFound
	case err != nil:
		return nil, info, fmt.Errorf("localfs: open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, info, fmt.Errorf("localfs: stat file: %w", err)
	}

	if stat.IsDir() {
		_ = f.Close()
		return nil, info, apperrors.ErrAssetNotFound
	}

	info = storage.ObjectInfo{
		Size:        stat.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(p)),
		ModTime:     stat.ModTime(),
	}

	return f, info, nil
}
