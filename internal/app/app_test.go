package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/yabu/internal/config"
	"github.com/semmidev/yabu/internal/domain"
	"github.com/semmidev/yabu/internal/infrastructure/logger"
	"github.com/semmidev/yabu/internal/usecase"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

type fakeNotifier struct {
	summaries []domain.Summary
}

func (n *fakeNotifier) Notify(ctx context.Context, s domain.Summary) error {
	n.summaries = append(n.summaries, s)
	return nil
}

func TestApp(t *testing.T) {
	Convey("Given an App with one preset", t, func() {
		ctx := context.Background()
		tempDir, err := os.MkdirTemp("", "app_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		target := filepath.Join(tempDir, "documents")
		So(os.MkdirAll(filepath.Join(target, "sub"), 0755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(target, "a.txt"), []byte("x"), 0644), ShouldBeNil)
		So(os.WriteFile(filepath.Join(target, "sub", "b.txt"), []byte("y"), 0644), ShouldBeNil)

		destDir := filepath.Join(tempDir, "backups")
		So(os.Mkdir(destDir, 0755), ShouldBeNil)

		cfg := &config.Config{Presets: []config.PresetConfig{{
			Name:         "docs",
			Targets:      []string{target},
			Destinations: []config.DestinationConfig{{Path: destDir, RetentionCount: 1}},
		}}}

		notifier := &fakeNotifier{}
		a, err := New(cfg,
			WithLogger(logger.NewNop()),
			WithNotifier(notifier),
			WithClock(&fakeClock{now: time.Date(2024, time.May, 1, 8, 0, 0, 0, time.Local)}),
		)
		So(err, ShouldBeNil)
		defer a.Shutdown()

		Convey("Backup", func() {
			Convey("When the preset exists", func() {
				var steps int
				summary, err := a.Backup(ctx, "docs", usecase.CreateOptions{}, func(domain.Progress) { steps++ })

				Convey("It should create a backup and notify", func() {
					So(err, ShouldBeNil)
					So(summary.OK(), ShouldBeTrue)
					So(len(summary.Created), ShouldEqual, 1)
					So(steps, ShouldBeGreaterThan, 0)
					So(len(notifier.summaries), ShouldEqual, 1)
					So(notifier.summaries[0].Preset, ShouldEqual, "docs")
				})

				Convey("Then an unchanged run should count as a duplicate", func() {
					summary, err := a.Backup(ctx, "docs", usecase.CreateOptions{}, nil)
					So(err, ShouldBeNil)
					So(summary.OK(), ShouldBeTrue)
					So(summary.Created, ShouldBeEmpty)
					So(summary.Duplicates, ShouldEqual, 1)
				})
			})

			Convey("When the preset is unknown", func() {
				_, err := a.Backup(ctx, "music", usecase.CreateOptions{}, nil)
				So(errors.Is(err, domain.ErrPresetNotFound), ShouldBeTrue)
			})
		})

		Convey("With an existing backup", func() {
			summary, err := a.Backup(ctx, "docs", usecase.CreateOptions{}, nil)
			So(err, ShouldBeNil)
			So(len(summary.Created), ShouldEqual, 1)
			created := summary.Created[0]

			Convey("ListBackups should find it", func() {
				backups, err := a.ListBackups(ctx, "docs", "")
				So(err, ShouldBeNil)
				So(len(backups), ShouldEqual, 1)
				So(backups[0].Path, ShouldEqual, created.Path)
			})

			Convey("ListDirectory should find it", func() {
				backups, err := a.ListDirectory(ctx, destDir)
				So(err, ShouldBeNil)
				So(len(backups), ShouldEqual, 1)
			})

			Convey("Restore onto the original target", func() {
				So(os.WriteFile(filepath.Join(target, "a.txt"), []byte("changed"), 0644), ShouldBeNil)
				b, err := a.Restore(ctx, "docs", created.Path, "")

				So(err, ShouldBeNil)
				So(b.Target, ShouldEqual, target)
				data, err := os.ReadFile(filepath.Join(target, "a.txt"))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "x")
			})

			Convey("Restore to another location", func() {
				to := filepath.Join(tempDir, "copy")
				_, err := a.Restore(ctx, "", created.Path, to)

				So(err, ShouldBeNil)
				data, err := os.ReadFile(filepath.Join(to, "sub", "b.txt"))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "y")
			})

			Convey("Restore through a preset that does not own the target", func() {
				other := filepath.Join(tempDir, "other")
				So(os.Mkdir(other, 0755), ShouldBeNil)
				cfg.Presets = append(cfg.Presets, config.PresetConfig{
					Name:         "other",
					Targets:      []string{other},
					Destinations: []config.DestinationConfig{{Path: destDir}},
				})

				_, err := a.Restore(ctx, "other", created.Path, "")
				So(errors.Is(err, domain.ErrTargetNotInPreset), ShouldBeTrue)
			})

			Convey("Prune", func() {
				So(os.WriteFile(filepath.Join(target, "a.txt"), []byte("x2"), 0644), ShouldBeNil)
				_, err := a.Backup(ctx, "docs", usecase.CreateOptions{Keep: true}, nil)
				So(err, ShouldBeNil)

				Convey("A dry run should only report the oldest backup", func() {
					candidates, err := a.Prune(ctx, "docs", true)
					So(err, ShouldBeNil)
					So(len(candidates), ShouldEqual, 1)
					So(candidates[0].Path, ShouldEqual, created.Path)

					_, err = os.Stat(created.Path)
					So(err, ShouldBeNil)
				})

				Convey("A real run should delete it", func() {
					deleted, err := a.Prune(ctx, "docs", false)
					So(err, ShouldBeNil)
					So(len(deleted), ShouldEqual, 1)

					_, err = os.Stat(created.Path)
					So(os.IsNotExist(err), ShouldBeTrue)
				})
			})

			Convey("DeleteBackup should remove the archive", func() {
				b, err := a.DeleteBackup(ctx, created.Path)
				So(err, ShouldBeNil)
				So(b.Path, ShouldEqual, created.Path)

				_, err = os.Stat(created.Path)
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("Run without scheduled presets", func() {
			err := a.Run(ctx)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no scheduled presets")
		})
	})
}
