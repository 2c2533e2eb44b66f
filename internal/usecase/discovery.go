package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/semmidev/yabu/internal/domain"
)

// ReadBackup reconstructs a Backup from any archive file, choosing the codec
// by extension.
func (e *Engine) ReadBackup(archivePath string) (domain.Backup, error) {
	codec, err := e.codecs.ForFile(archivePath)
	if err != nil {
		return domain.Backup{}, &domain.ArchiveError{Path: archivePath, Err: err}
	}
	return readBackup(codec, archivePath)
}

func readBackup(codec domain.Archiver, archivePath string) (domain.Backup, error) {
	meta, err := codec.ReadMetadata(archivePath)
	if err != nil {
		return domain.Backup{}, &domain.ArchiveError{Path: archivePath, Err: err}
	}
	b, err := describe(archivePath, meta)
	if err != nil {
		return domain.Backup{}, &domain.ArchiveError{Path: archivePath, Err: err}
	}
	return b, nil
}

// Backups lists the backups stored in dest, ascending by date. An empty
// target lists every backup, otherwise only those made from target.
//
// Archives that cannot be read do not abort the listing: the valid backups
// are returned together with a joined error of *domain.ArchiveError values.
func (e *Engine) Backups(ctx context.Context, dest domain.Destination, target string) ([]domain.Backup, error) {
	store, codec, err := e.open(dest)
	if err != nil {
		return nil, err
	}
	backups, failures, err := e.discover(ctx, store, codec, target)
	if err != nil {
		return nil, err
	}
	return backups, errors.Join(failures...)
}

// LatestBackup returns the most recent backup of target in dest, or nil when
// there is none. Like Backups, a non-nil error may accompany a result.
func (e *Engine) LatestBackup(ctx context.Context, dest domain.Destination, target string) (*domain.Backup, error) {
	backups, err := e.Backups(ctx, dest, target)
	return latest(backups), err
}

// PresetBackups merges the backups of every destination in preset, ascending
// by date. Destinations that cannot be read are reported in the error.
func (e *Engine) PresetBackups(ctx context.Context, preset *domain.Preset, target string) ([]domain.Backup, error) {
	var all []domain.Backup
	var errs []error

	for _, dest := range preset.Destinations() {
		backups, err := e.Backups(ctx, dest, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("destination %s: %w", dest.Path(), err))
		}
		all = append(all, backups...)
	}

	sortByDate(all)
	return all, errors.Join(errs...)
}

// LatestPresetBackup returns the most recent backup across all destinations
// of preset, or nil.
func (e *Engine) LatestPresetBackup(ctx context.Context, preset *domain.Preset, target string) (*domain.Backup, error) {
	backups, err := e.PresetBackups(ctx, preset, target)
	return latest(backups), err
}

func (e *Engine) discover(
	ctx context.Context,
	store domain.Storage,
	codec domain.Archiver,
	target string,
) ([]domain.Backup, []error, error) {
	names, err := store.List(ctx, codec.Extension())
	if err != nil {
		return nil, nil, err
	}

	var backups []domain.Backup
	var failures []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		b, err := readBackup(codec, store.GetPath(name))
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if target != "" && b.Target != filepath.Clean(target) {
			continue
		}
		backups = append(backups, b)
	}

	sortByDate(backups)
	return backups, failures, nil
}

// sortByDate orders backups ascending by date. Equal dates keep their
// discovery order, which is lexical by file name.
func sortByDate(backups []domain.Backup) {
	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].Date.Before(backups[j].Date)
	})
}

func latest(backups []domain.Backup) *domain.Backup {
	if len(backups) == 0 {
		return nil
	}
	b := backups[len(backups)-1]
	return &b
}
