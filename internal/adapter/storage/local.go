package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/semmidev/yabu/internal/domain"
)

type LocalStorage struct {
	basePath string
}

// NewLocal opens an existing destination directory. Destinations are never
// created implicitly.
func NewLocal(basePath string) (*LocalStorage, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDestinationNotFound, basePath)
		}
		return nil, fmt.Errorf("failed to stat backup directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidDestination, basePath)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Open satisfies the engine's storage factory signature.
func Open(basePath string) (domain.Storage, error) {
	return NewLocal(basePath)
}

func (l *LocalStorage) List(ctx context.Context, ext string) ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	return files, nil
}

func (l *LocalStorage) Delete(ctx context.Context, name string) error {
	filePath := filepath.Join(l.basePath, name)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) GetPath(name string) string {
	return filepath.Join(l.basePath, name)
}

var _ domain.Storage = (*LocalStorage)(nil)
