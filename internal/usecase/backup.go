package usecase

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"path/filepath"
	"time"

	"github.com/semmidev/yabu/internal/domain"
)

type EventKind int

const (
	EventProgress EventKind = iota
	EventBackup
	EventError
)

// Event is one item of a backup run: a progress step, a created backup or
// the failure of one (target, destination) pair.
type Event struct {
	Kind     EventKind
	Progress domain.Progress
	Backup   domain.Backup
	Err      error
}

type CreateOptions struct {
	// Force keeps a new archive even when its content hash equals the latest
	// backup's.
	Force bool
	// Keep disables retention after a successful backup.
	Keep bool
}

// CreateBackups backs up every target of preset to every destination, one
// pair at a time in list order. The returned sequence yields progress events
// interleaved with exactly one Backup or error per pair; a failing pair never
// stops the others. It performs the work while being ranged over and must be
// consumed once.
//
// Cancelling ctx, or breaking out of the loop, while an archive is written
// removes the partial archive and ends the run.
func (e *Engine) CreateBackups(ctx context.Context, preset *domain.Preset, opts CreateOptions) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		start := time.Now()
		e.logger.Infof("[%s] Starting backup...", preset.Name())

		for _, target := range preset.Targets() {
			for _, dest := range preset.Destinations() {
				if !e.createOne(ctx, target, dest, opts, yield) {
					e.logger.Warnf("[%s] Backup run stopped", preset.Name())
					return
				}
			}
		}

		e.logger.Infof("[%s] Backup completed in %s", preset.Name(), time.Since(start).Round(time.Second))
	}
}

// Collect drains a backup run, dropping progress events.
func Collect(events iter.Seq[Event]) ([]domain.Backup, []error) {
	var backups []domain.Backup
	var errs []error
	for ev := range events {
		switch ev.Kind {
		case EventBackup:
			backups = append(backups, ev.Backup)
		case EventError:
			errs = append(errs, ev.Err)
		}
	}
	return backups, errs
}

// createOne handles a single pair and reports whether the run continues.
func (e *Engine) createOne(
	ctx context.Context,
	target string,
	dest domain.Destination,
	opts CreateOptions,
	yield func(Event) bool,
) bool {
	fail := func(path string, err error) bool {
		e.logger.Warnf("[%s -> %s] %v", target, dest.Path(), err)
		return yield(Event{Kind: EventError, Err: pairError(target, dest, path, err)})
	}

	if err := ctx.Err(); err != nil {
		fail("", abortError(err))
		return false
	}

	contentType, err := domain.ContentTypeOf(target)
	if err != nil {
		return fail("", err)
	}
	store, err := e.storage(dest.Path())
	if err != nil {
		return fail("", err)
	}
	codec, err := e.codecs.Get(dest.ArchiveFormat())
	if err != nil {
		return fail("", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := false
	progress := func(p domain.Progress) {
		if stopped {
			return
		}
		if !yield(Event{Kind: EventProgress, Progress: p}) {
			stopped = true
			cancel()
		}
	}

	// interrupted reports whether err ended the run rather than the pair.
	interrupted := func(err error) bool {
		if stopped {
			return true
		}
		if errors.Is(err, domain.ErrBackupAborted) {
			fail("", err)
			return true
		}
		if ctx.Err() != nil {
			fail("", abortError(ctx.Err()))
			return true
		}
		return false
	}

	hash, err := ContentHash(runCtx, target, progress)
	if err != nil {
		if interrupted(err) {
			return false
		}
		return fail("", err)
	}

	previous, failures, err := e.discover(ctx, store, codec, target)
	if err != nil {
		return fail("", err)
	}
	for _, f := range failures {
		e.logger.Warnf("Ignoring unreadable archive: %v", f)
	}
	last := latest(previous)

	meta := domain.Metadata{
		Target:          target,
		NameSeparator:   dest.NameSeparator(),
		TimestampFormat: dest.TimestampFormat(),
		ContentHash:     hash,
		ContentType:     contentType,
	}

	e.logger.Infof("[%s] Creating backup in: %s", target, dest.Path())
	duplicate := !opts.Force && last != nil && last.ContentHash == hash

	archivePath, err := codec.Write(runCtx, target, dest, meta, e.clock.Now(), progress)
	if err != nil {
		if interrupted(err) {
			return false
		}
		// Same second as an unchanged previous backup: the name is taken, but
		// the outcome is a duplicate.
		if duplicate && errors.Is(err, fs.ErrExist) {
			return fail(last.Path, domain.ErrDuplicateContent)
		}
		return fail("", err)
	}
	if stopped {
		e.discard(ctx, store, archivePath, "partial")
		return false
	}

	if duplicate {
		e.discard(ctx, store, archivePath, "duplicate")
		return fail(last.Path, domain.ErrDuplicateContent)
	}

	backup, err := describe(archivePath, meta)
	if err != nil {
		e.discard(ctx, store, archivePath, "unreadable")
		return fail(archivePath, err)
	}

	if !opts.Keep {
		if _, err := e.rotate(ctx, store, codec, target, dest); err != nil {
			e.logger.Errorf("[%s] Cleanup failed in %s: %v", target, dest.Path(), err)
		}
	}

	e.logger.Infof("[%s] Backup created: %s", target, archivePath)
	return yield(Event{Kind: EventBackup, Backup: backup})
}

// discard removes an archive the run will not keep.
func (e *Engine) discard(ctx context.Context, store domain.Storage, archivePath, kind string) {
	if err := store.Delete(ctx, filepath.Base(archivePath)); err != nil {
		e.logger.Errorf("Failed to remove %s archive %s: %v", kind, archivePath, err)
	}
}
