package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/semmidev/yabu/internal/domain"
)

// RestoreBackup replaces target entirely with the contents of b. The prior
// state of target is discarded; nothing is merged.
func (e *Engine) RestoreBackup(ctx context.Context, target string, b domain.Backup) error {
	target = filepath.Clean(target)
	parent := filepath.Dir(target)

	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrTargetParentNotFound, parent)
	}

	if !b.ContentType.Valid() {
		return fmt.Errorf("%w: backup has content type %q", domain.ErrContentTypeMismatch, b.ContentType)
	}

	// An existing symlink is restored through, so the link itself survives.
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	existing, err := os.Lstat(target)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if exists && existing.IsDir() != (b.ContentType == domain.ContentDirectory) {
		return fmt.Errorf("%w: %s exists and the backup holds a %s",
			domain.ErrContentTypeMismatch, target, b.ContentType)
	}

	// Make sure the archive is readable before anything on disk is touched.
	codec, err := e.codecs.ForFile(b.Path)
	if err != nil {
		return err
	}
	meta, err := codec.ReadMetadata(b.Path)
	if err != nil {
		return &domain.ArchiveError{Path: b.Path, Err: err}
	}
	if meta.ContentType != b.ContentType {
		return fmt.Errorf("%w: archive records %q, backup describes %q",
			domain.ErrContentTypeMismatch, meta.ContentType, b.ContentType)
	}

	e.logger.Infof("Restoring %s to %s", b.Path, target)

	switch b.ContentType {
	case domain.ContentDirectory:
		if exists {
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("clear %s: %w", target, err)
			}
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}
		if err := codec.Extract(ctx, b.Path, target); err != nil {
			return fmt.Errorf("extract %s: %w", b.Path, err)
		}

	case domain.ContentFile:
		if err := e.restoreFile(ctx, codec, b.Path, filepath.Base(meta.Target), target); err != nil {
			return err
		}
	}

	e.logger.Infof("Restored %s", target)
	return nil
}

// restoreFile extracts a file archive next to target and moves the entry,
// stored under its original name, onto target.
func (e *Engine) restoreFile(ctx context.Context, codec domain.Archiver, archivePath, entry, target string) error {
	staging, err := os.MkdirTemp(filepath.Dir(target), ".yabu-restore-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := codec.Extract(ctx, archivePath, staging); err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", target, err)
	}
	if err := os.Rename(filepath.Join(staging, entry), target); err != nil {
		return fmt.Errorf("move restored file to %s: %w", target, err)
	}
	return nil
}
