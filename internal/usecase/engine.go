package usecase

import (
	"time"

	"github.com/semmidev/yabu/internal/domain"
)

type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Clock abstracts time retrieval so archive names are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Codecs resolves archive codecs by format name or by file extension.
type Codecs interface {
	Get(format string) (domain.Archiver, error)
	ForFile(path string) (domain.Archiver, error)
}

// StorageFactory opens the archive directory of a destination.
type StorageFactory func(path string) (domain.Storage, error)

// Engine creates, discovers, rotates and restores backups. It keeps no state
// between calls; callers must serialise access to a destination themselves.
type Engine struct {
	codecs  Codecs
	storage StorageFactory
	logger  Logger
	clock   Clock
}

type Option func(*Engine)

func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func NewEngine(codecs Codecs, storage StorageFactory, opts ...Option) *Engine {
	e := &Engine{
		codecs:  codecs,
		storage: storage,
		logger:  nopLogger{},
		clock:   realClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// open resolves the storage and codec serving dest.
func (e *Engine) open(dest domain.Destination) (domain.Storage, domain.Archiver, error) {
	store, err := e.storage(dest.Path())
	if err != nil {
		return nil, nil, err
	}
	codec, err := e.codecs.Get(dest.ArchiveFormat())
	if err != nil {
		return nil, nil, err
	}
	return store, codec, nil
}
