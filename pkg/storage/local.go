package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const URLPrefix = "/uploads"

var (
	ErrUnsupportedType = errors.New("only JPG and PNG images are allowed")
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
)

var allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// CheckImage validates an upload by extension and size and returns the
// normalized extension.
func CheckImage(filename string, size, maxBytes int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}
	if size > maxBytes {
		return "", ErrTooLarge
	}
	return ext, nil
}

// LocalStore keeps uploads on the local filesystem under root and exposes
// them as /uploads/<folder>/<name>.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage: root directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

// Save writes r under a random name and returns the public URL.
func (s *LocalStore) Save(ctx context.Context, folder, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create folder: %w", err)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: write file: %w", err)
	}

	return URLPrefix + "/" + folder + "/" + name, nil
}

// Delete removes the file behind url. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	path, err := s.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) pathFor(url string) (string, error) {
	rel := strings.TrimPrefix(url, URLPrefix+"/")
	if rel == url {
		return "", fmt.Errorf("storage: %q is not an upload url", url)
	}
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	root, _ := filepath.Abs(s.root)
	abs, _ := filepath.Abs(path)
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: %q escapes the upload root", url)
	}
	return path, nil
}
