// Package storage persists encoded studio output on the local filesystem and
// hands back a URL for it, standing in for a remote upload endpoint.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName rejects names that would escape the storage root.
var ErrInvalidName = errors.New("invalid object name")

// FileStorage stores objects under a base directory.
type FileStorage interface {
	Save(name string, data io.Reader) error
	Get(name string) (io.ReadCloser, error)
	Delete(name string) error
	Exists(name string) bool
}

type fileStorage struct {
	basePath string
}

// NewFileStorage roots a FileStorage at basePath.
func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

func (s *fileStorage) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.basePath, clean), nil
}

func (s *fileStorage) Save(name string, data io.Reader) error {
	fullPath, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file first so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

func (s *fileStorage) Get(name string) (io.ReadCloser, error) {
	fullPath, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (s *fileStorage) Delete(name string) error {
	fullPath, err := s.path(name)
	if err != nil {
		return err
	}
	return os.Remove(fullPath)
}

func (s *fileStorage) Exists(name string) bool {
	fullPath, err := s.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return !os.IsNotExist(err)
}

// Uploader saves bytes to a FileStorage and returns a URL for them: the public
// base URL joined with the name when one is configured, a file:// URL otherwise.
type Uploader struct {
	store         FileStorage
	basePath      string
	publicBaseURL string
}

// NewUploader stores uploads under basePath.
func NewUploader(basePath, publicBaseURL string) *Uploader {
	return &Uploader{
		store:         NewFileStorage(basePath),
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload implements the studio upload collaborator.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := u.store.Save(name, bytes.NewReader(data)); err != nil {
		return "", err
	}
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + strings.TrimLeft(filepath.ToSlash(name), "/"), nil
	}
	abs, err := filepath.Abs(filepath.Join(u.basePath, filepath.FromSlash(name)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve stored path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Storage exposes the underlying FileStorage, e.g. for serving uploads.
func (u *Uploader) Storage() FileStorage { return u.store }
