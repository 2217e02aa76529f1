// Package storage validates uploaded post images and writes them under the
// media root.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

var ErrInvalidImage = errors.New("upload a valid image")

var extensions = map[string]string{
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
	"webp": ".webp",
}

type Service struct {
	root string
}

func NewService(root string) *Service {
	return &Service{root: root}
}

// Validate returns the canonical extension for data, or ErrInvalidImage.
func (s *Service) Validate(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImage
	}
	ext, ok := extensions[format]
	if !ok {
		return "", ErrInvalidImage
	}
	return ext, nil
}

// Save stores the image and returns its path relative to the media root.
func (s *Service) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, err := s.Validate(data)
	if err != nil {
		return "", err
	}

	rel := path.Join("posts", uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored image. Missing files are ignored.
func (s *Service) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Root is the directory served under /media.
func (s *Service) Root() string {
	return s.root
}
