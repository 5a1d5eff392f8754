package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/storage"
)

func init() {
	storage.RegisterFactory("local", func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return New(cfg, log)
	})
}

// Storage stores payloads under a base directory on the local filesystem.
type Storage struct {
	basePath string
	log      *logger.Logger
}

// New creates a local filesystem storage rooted at cfg.BasePath.
func New(cfg storage.Config, log *logger.Logger) (*Storage, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = storage.DefaultBasePath
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base path %s: %w", cfg.BasePath, err)
	}
	return &Storage{
		basePath: cfg.BasePath,
		log:      log.WithComponent("storage.local"),
	}, nil
}

func (s *Storage) fullPath(path string) (string, error) {
	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid path: %s", path)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Upload writes the reader's contents to path, creating parent directories.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	full, err := s.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directories for %s: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, reader)
	if err != nil {
		return fmt.Errorf("write file %s: %w", path, err)
	}
	s.log.Debug("uploaded file", map[string]interface{}{"path": path, "bytes": n})
	return nil
}

// Download opens the file at path for reading. The caller closes it.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return f, nil
}

// Exists reports whether a regular file exists at path.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// List walks the tree under prefix and returns every regular file.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	root, err := s.fullPath(prefix)
	if err != nil {
		return nil, err
	}
	var files []storage.FileInfo
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		files = append(files, storage.FileInfo{
			Path:         filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return files, nil
}

var _ storage.Storage = (*Storage)(nil)
