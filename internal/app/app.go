package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/semmidev/yabu/internal/adapter/archive"
	"github.com/semmidev/yabu/internal/adapter/notifier"
	"github.com/semmidev/yabu/internal/adapter/storage"
	"github.com/semmidev/yabu/internal/config"
	"github.com/semmidev/yabu/internal/domain"
	"github.com/semmidev/yabu/internal/infrastructure/logger"
	"github.com/semmidev/yabu/internal/infrastructure/scheduler"
	"github.com/semmidev/yabu/internal/usecase"
)

type Notifier interface {
	Notify(ctx context.Context, summary domain.Summary) error
}

type App struct {
	config    *config.Config
	logger    *logger.Logger
	engine    *usecase.Engine
	scheduler *scheduler.Scheduler
	notifier  Notifier
	clock     usecase.Clock

	// runMu serialises backup runs; the engine itself does no locking.
	runMu sync.Mutex
}

type Option func(*App)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func WithNotifier(n Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithClock is used by tests to control archive timestamps.
func WithClock(c usecase.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{config: cfg}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile, logger.Rotation{
			MaxSize:    cfg.App.LogMaxSize,
			MaxBackups: cfg.App.LogMaxBackups,
			MaxAge:     cfg.App.LogMaxAge,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = log
	}

	a.engine = usecase.NewEngine(archive.Default(), storage.Open,
		usecase.WithLogger(a.logger.Named("engine")), usecase.WithClock(a.clock))

	if a.notifier == nil && cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(&cfg.Notify.Telegram)
		if err != nil {
			a.logger.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			a.notifier = tg
			a.logger.Infof("✓ Telegram notifications enabled")
		}
	}

	a.scheduler = scheduler.New(a.logger.Named("scheduler"))

	a.logger.Debugf("Loaded %d preset(s)", len(cfg.Presets))
	return a, nil
}

// Preset builds the named preset from the configuration.
func (a *App) Preset(name string) (*domain.Preset, error) {
	pc, err := a.config.Preset(name)
	if err != nil {
		return nil, err
	}
	return pc.Build()
}

// Presets builds every configured preset, stopping at the first invalid one.
func (a *App) Presets() ([]*domain.Preset, error) {
	presets := make([]*domain.Preset, 0, len(a.config.Presets))
	for _, pc := range a.config.Presets {
		p, err := pc.Build()
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// Backup runs one backup of the named preset. progress may be nil.
func (a *App) Backup(
	ctx context.Context,
	name string,
	opts usecase.CreateOptions,
	progress domain.ProgressFunc,
) (domain.Summary, error) {
	preset, err := a.Preset(name)
	if err != nil {
		return domain.Summary{}, err
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	start := time.Now()
	var created []domain.Backup
	var errs []error
	for ev := range a.engine.CreateBackups(ctx, preset, opts) {
		switch ev.Kind {
		case usecase.EventProgress:
			if progress != nil {
				progress(ev.Progress)
			}
		case usecase.EventBackup:
			created = append(created, ev.Backup)
		case usecase.EventError:
			errs = append(errs, ev.Err)
		}
	}

	summary := domain.Summarize(name, created, errs, time.Since(start))
	a.notify(ctx, summary)
	return summary, nil
}

func (a *App) notify(ctx context.Context, summary domain.Summary) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, summary); err != nil {
		a.logger.Errorf("[%s] Failed to send notification: %v", summary.Preset, err)
	}
}

// ListBackups lists backups of the named preset across all destinations.
// An empty target lists every target.
func (a *App) ListBackups(ctx context.Context, name, target string) ([]domain.Backup, error) {
	preset, err := a.Preset(name)
	if err != nil {
		return nil, err
	}
	return a.engine.PresetBackups(ctx, preset, target)
}

// ListDirectory lists the backups in an arbitrary directory, treated as a
// destination with the default policy.
func (a *App) ListDirectory(ctx context.Context, dir string) ([]domain.Backup, error) {
	dest, err := domain.NewDestination(dir)
	if err != nil {
		return nil, err
	}
	return a.engine.Backups(ctx, dest, "")
}

// Restore restores the archive at archivePath. With an empty to, the backup
// is restored onto its own target, which must belong to the named preset.
// Otherwise it is restored onto to and the preset is not consulted.
func (a *App) Restore(ctx context.Context, name, archivePath, to string) (domain.Backup, error) {
	b, err := a.engine.ReadBackup(archivePath)
	if err != nil {
		return domain.Backup{}, err
	}

	if to == "" {
		preset, err := a.Preset(name)
		if err != nil {
			return b, err
		}
		if !preset.HasTarget(b.Target) {
			return b, fmt.Errorf("%w: %s is not a target of %s", domain.ErrTargetNotInPreset, b.Target, name)
		}
		to = b.Target
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	return b, a.engine.RestoreBackup(ctx, to, b)
}

// Prune applies retention to the named preset. With dryRun set it only
// reports the candidates.
func (a *App) Prune(ctx context.Context, name string, dryRun bool) ([]domain.Backup, error) {
	preset, err := a.Preset(name)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return a.engine.PresetDeleteCandidates(ctx, preset)
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	return a.engine.PrunePreset(ctx, preset)
}

// DeleteBackup removes a single archive after checking it is a backup.
func (a *App) DeleteBackup(ctx context.Context, archivePath string) (domain.Backup, error) {
	b, err := a.engine.ReadBackup(archivePath)
	if err != nil {
		return domain.Backup{}, err
	}
	return b, a.engine.DeleteBackup(ctx, b)
}

// Run schedules every preset that has a schedule and blocks until ctx ends.
func (a *App) Run(ctx context.Context) error {
	scheduled := a.config.GetScheduledPresets()
	if len(scheduled) == 0 {
		return fmt.Errorf("no scheduled presets found")
	}

	for _, pc := range scheduled {
		name := pc.Name
		opts := usecase.CreateOptions{Force: pc.Force, Keep: pc.Keep}

		if err := a.scheduler.AddJob(name, pc.Schedule, func(ctx context.Context) error {
			a.logger.Infof("=== Triggered scheduled backup for %s ===", name)
			summary, err := a.Backup(ctx, name, opts, nil)
			if err != nil {
				return err
			}
			a.logger.Infof("[%s] %d created, %d unchanged, %d failed",
				name, len(summary.Created), summary.Duplicates, len(summary.Failures))
			return nil
		}); err != nil {
			return fmt.Errorf("failed to schedule backup for %s: %w", name, err)
		}
		a.logger.Infof("✓ Scheduled backup for %s: %s", name, pc.Schedule)
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started with %d job(s)", a.scheduler.Len())

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down...")
	a.scheduler.Stop()
	a.logger.Close()
}
