package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/semmidev/yabu/internal/domain"
)

// DeleteCandidates returns the backups of target in dest that exceed the
// destination's retention count, oldest first. Nothing is deleted.
func (e *Engine) DeleteCandidates(ctx context.Context, target string, dest domain.Destination) ([]domain.Backup, error) {
	store, codec, err := e.open(dest)
	if err != nil {
		return nil, err
	}
	candidates, failures, err := e.candidates(ctx, store, codec, target, dest)
	if err != nil {
		return nil, err
	}
	return candidates, errors.Join(failures...)
}

// DeleteOldBackups rotates the backups of target in dest down to the
// destination's retention count and returns what was deleted.
func (e *Engine) DeleteOldBackups(ctx context.Context, target string, dest domain.Destination) ([]domain.Backup, error) {
	store, codec, err := e.open(dest)
	if err != nil {
		return nil, err
	}
	return e.rotate(ctx, store, codec, target, dest)
}

// PresetDeleteCandidates collects DeleteCandidates over every
// (target, destination) pair of preset.
func (e *Engine) PresetDeleteCandidates(ctx context.Context, preset *domain.Preset) ([]domain.Backup, error) {
	var all []domain.Backup
	var errs []error
	for _, target := range preset.Targets() {
		for _, dest := range preset.Destinations() {
			candidates, err := e.DeleteCandidates(ctx, target, dest)
			if err != nil {
				errs = append(errs, pairError(target, dest, "", err))
			}
			all = append(all, candidates...)
		}
	}
	return all, errors.Join(errs...)
}

// PrunePreset applies retention to every (target, destination) pair of
// preset. A failing pair does not stop the others.
func (e *Engine) PrunePreset(ctx context.Context, preset *domain.Preset) ([]domain.Backup, error) {
	e.logger.Infof("[%s] Starting cleanup", preset.Name())

	var deleted []domain.Backup
	var errs []error
	for _, target := range preset.Targets() {
		for _, dest := range preset.Destinations() {
			removed, err := e.DeleteOldBackups(ctx, target, dest)
			if err != nil {
				e.logger.Errorf("[%s] Cleanup failed for %s in %s: %v", preset.Name(), target, dest.Path(), err)
				errs = append(errs, pairError(target, dest, "", err))
			}
			deleted = append(deleted, removed...)
		}
	}

	e.logger.Infof("[%s] Deleted %d old backup(s)", preset.Name(), len(deleted))
	return deleted, errors.Join(errs...)
}

// DeleteBackup removes the archive behind b. A missing archive is not an
// error.
func (e *Engine) DeleteBackup(ctx context.Context, b domain.Backup) error {
	store, err := e.storage(filepath.Dir(b.Path))
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, filepath.Base(b.Path)); err != nil {
		return fmt.Errorf("delete %s: %w", b.Path, err)
	}
	e.logger.Infof("Deleted backup %s", b.Path)
	return nil
}

func (e *Engine) candidates(
	ctx context.Context,
	store domain.Storage,
	codec domain.Archiver,
	target string,
	dest domain.Destination,
) ([]domain.Backup, []error, error) {
	backups, failures, err := e.discover(ctx, store, codec, target)
	if err != nil {
		return nil, nil, err
	}
	surplus := len(backups) - dest.RetentionCount()
	if surplus <= 0 {
		return nil, failures, nil
	}
	return backups[:surplus], failures, nil
}

func (e *Engine) rotate(
	ctx context.Context,
	store domain.Storage,
	codec domain.Archiver,
	target string,
	dest domain.Destination,
) ([]domain.Backup, error) {
	candidates, failures, err := e.candidates(ctx, store, codec, target, dest)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		e.logger.Warnf("Skipping unreadable archive during cleanup: %v", f)
	}

	deleted := make([]domain.Backup, 0, len(candidates))
	var errs []error
	for _, b := range candidates {
		e.logger.Infof("Deleting old backup from %s: %s", dest.Path(), filepath.Base(b.Path))

		if err := store.Delete(ctx, filepath.Base(b.Path)); err != nil {
			e.logger.Errorf("Failed to delete %s from %s: %v", filepath.Base(b.Path), dest.Path(), err)
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, b)
	}

	return deleted, errors.Join(errs...)
}
