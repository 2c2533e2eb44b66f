package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/yabu/internal/adapter/archive"
	"github.com/semmidev/yabu/internal/adapter/storage"
	"github.com/semmidev/yabu/internal/domain"
)

// stepClock advances one second on every reading so consecutive archives
// never share a timestamp.
type stepClock struct {
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)}
}

func (c *stepClock) Now() time.Time {
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

// fixedClock always reads the same instant.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Debugf(string, ...interface{}) {}
func (l *recordingLogger) Infof(string, ...interface{})  {}
func (l *recordingLogger) Warnf(string, ...interface{})  {}

func (l *recordingLogger) Errorf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(template, args...))
}

func (l *recordingLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// readOnlyStorage lists archives normally but refuses to delete them.
type readOnlyStorage struct {
	domain.Storage
}

func (readOnlyStorage) Delete(context.Context, string) error {
	return errors.New("read-only file system")
}

func openReadOnly(path string) (domain.Storage, error) {
	s, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return readOnlyStorage{s}, nil
}

func newTestEngine(clock Clock) *Engine {
	return NewEngine(archive.Default(), storage.Open, WithClock(clock))
}

func writeTree(root string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		So(os.MkdirAll(filepath.Dir(path), 0755), ShouldBeNil)
		So(os.WriteFile(path, []byte(content), 0644), ShouldBeNil)
	}
}

func mkdir(path string) string {
	So(os.MkdirAll(path, 0755), ShouldBeNil)
	return path
}

func newTestPreset(targets []string, dests ...domain.Destination) *domain.Preset {
	preset, err := domain.NewPreset("test")
	So(err, ShouldBeNil)
	for _, d := range dests {
		So(preset.AddDestination(d), ShouldBeNil)
	}
	for _, t := range targets {
		So(preset.AddTarget(t), ShouldBeNil)
	}
	return preset
}

func archivesIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	So(err, ShouldBeNil)
	var names []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".zip" {
			names = append(names, e.Name())
		}
	}
	return names
}
