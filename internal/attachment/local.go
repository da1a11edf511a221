package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// LocalStore keeps images in a directory on the local file system.
// References have the form "<dir name>/<object name>", e.g. "images/01H...-cat.png".
type LocalStore struct {
	dir    string
	prefix string
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:    dir,
		prefix: filepath.Base(filepath.Clean(dir)),
	}, nil
}

// Save writes the upload to a new file.
func (s *LocalStore) Save(ctx context.Context, upload Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(upload.Filename)
	target := filepath.Join(s.dir, name)

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, upload.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close file: %w", err)
	}

	return path.Join(s.prefix, name), nil
}

// Remove deletes the file behind ref. A missing file is reported as an error.
func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := splitRef(ref, s.prefix)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", ref, fs.ErrNotExist)
		}
		return fmt.Errorf("remove %s: %w", ref, err)
	}
	return nil
}

// Path resolves ref to a file path inside the store directory.
func (s *LocalStore) Path(ref string) (string, error) {
	name, err := splitRef(ref, s.prefix)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}
