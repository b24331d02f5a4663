// Package localfs is the development object store. Files live under a base
// directory keyed by their storage key; public URLs are served by the API's
// static file handler.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/infrastructure/storage/objectkey"
)

type Storage struct {
	basePath string
	baseURL  string
}

func New(basePath, baseURL string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Storage) Put(_ context.Context, key string, data io.Reader) (string, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", domain.WrapError(domain.ErrStorage, "create object dir", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "create object", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", domain.WrapError(domain.ErrStorage, "write object", err)
	}
	return s.URLOf(key), nil
}

func (s *Storage) Open(_ context.Context, keyOrURL string) (io.ReadCloser, error) {
	path, err := s.keyPath(s.KeyOf(keyOrURL))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open object", err)
		}
		return nil, domain.WrapError(domain.ErrStorage, "open object", err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, keyOrURL string) error {
	path, err := s.keyPath(s.KeyOf(keyOrURL))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(domain.ErrStorage, "delete object", err)
	}
	return nil
}

func (s *Storage) DeletePrefix(_ context.Context, prefix string) error {
	path, err := s.keyPath(objectkey.Normalize(prefix))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return domain.WrapError(domain.ErrStorage, "delete prefix", err)
	}
	return nil
}

// KeyOf inverts URLOf: a reference under the configured public base URL maps
// back to the stored key, including any path the base URL carries. Anything
// else falls through to generic normalization.
func (s *Storage) KeyOf(urlOrKey string) string {
	if s.baseURL != "" {
		if rest, ok := strings.CutPrefix(urlOrKey, s.baseURL+"/"); ok {
			if decoded, err := url.PathUnescape(rest); err == nil {
				return decoded
			}
			return rest
		}
	}
	return objectkey.Normalize(urlOrKey)
}

func (s *Storage) URLOf(key string) string {
	return s.baseURL + "/" + objectkey.Escape(key)
}

// keyPath maps a key onto the base directory and rejects keys that would
// escape it.
func (s *Storage) keyPath(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve object path", errors.New(key))
	}
	return filepath.Join(s.basePath, cleaned), nil
}
