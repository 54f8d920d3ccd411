package service

import (
	"context"
	"io"

	"github.com/Eursukkul/restaurant-service/pkg/storage"
)

// FileStore persists uploaded images and hands back their public URL.
type FileStore interface {
	Save(ctx context.Context, folder, ext string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type imageStore struct {
	files    FileStore
	maxBytes int64
}

func (s imageStore) check(img *ImageUpload) (string, error) {
	if img == nil {
		return "", nil
	}
	ext, err := storage.CheckImage(img.Filename, img.Size, s.maxBytes)
	if err != nil {
		return "", fieldError("image", err.Error())
	}
	return ext, nil
}

func (s imageStore) save(ctx context.Context, folder, ext string, img *ImageUpload) (string, error) {
	url, err := s.files.Save(ctx, folder, ext, img.Content)
	if err != nil {
		return "", storageErr("save image", err)
	}
	return url, nil
}
