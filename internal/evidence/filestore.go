package evidence

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Storage persists photo bytes under a relative key.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(key string) (io.ReadCloser, error)
}

type LocalStorage struct {
	dirPath string
}

func NewLocalStorage(dirPath string) *LocalStorage {
	return &LocalStorage{dirPath: dirPath}
}

func (l *LocalStorage) Save(ctx context.Context, key string, r io.Reader) error {
	path := filepath.Join(l.dirPath, filepath.FromSlash(key))
	dst, err := prepareFilepath(path)
	if err != nil {
		return &ErrPrepareFilepath{Err: err}
	}

	_, copyErr := io.Copy(dst, readerWithContext(ctx, r))
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
	return nil
}

func (l *LocalStorage) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.dirPath, filepath.FromSlash(key)))
}
