package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PhotoStorage keeps the uploaded image bytes. Keys are slash-separated
// and generated by the server, see PhotoKey.
type PhotoStorage interface {
	SavePhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	OpenPhoto(ctx context.Context, key string) (io.ReadCloser, error)
	DeletePhoto(ctx context.Context, key string) error
}

type LocalPhotoStorage struct {
	Directory string
}

func (s *LocalPhotoStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid photo key %q", key)
	}
	return filepath.Join(s.Directory, clean), nil
}

func (s *LocalPhotoStorage) SavePhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("create photo directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create photo file: %w", err)
	}
	defer file.Close()

	if _, err = io.Copy(file, r); err != nil {
		os.Remove(filePath)
		return fmt.Errorf("write photo file: %w", err)
	}
	return nil
}

func (s *LocalPhotoStorage) OpenPhoto(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalPhotoStorage) DeletePhoto(ctx context.Context, key string) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
