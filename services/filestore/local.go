package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
)

// LocalStorage stores files on disk; they are served under baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return &LocalStorage{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", errors.Errorf("invalid file name %q", name)
	}
	fp := filepath.Join(s.dir, name)
	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing file")
	}
	if err = ctx.Err(); err != nil {
		_ = os.Remove(fp)
		return "", err
	}
	return s.baseURL + "/" + name, nil
}
