package domain

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Progress is a single step of a long running operation.
// Total is zero when the number of steps is unknown.
type Progress struct {
	Step    int
	Total   int
	Message string
}

type ProgressFunc func(Progress)

// Archiver reads and writes one archive format.
type Archiver interface {
	Format() string
	Extension() string

	// Write archives target into dest, named from the target stem and at,
	// with meta stored under the reserved metadata entry. It returns the
	// archive path. A cancelled ctx removes the partial archive.
	Write(ctx context.Context, target string, dest Destination, meta Metadata, at time.Time, progress ProgressFunc) (string, error)

	// ReadMetadata returns the embedded record. It fails with ErrNotABackup
	// when the record is absent and ErrUnsupportedFormat when the file cannot
	// be opened as this format.
	ReadMetadata(archivePath string) (Metadata, error)

	// Extract writes every entry except the metadata record into dir.
	Extract(ctx context.Context, archivePath, dir string) error
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

// NewContextReader returns a reader whose reads fail with ErrBackupAborted
// once ctx is done.
func NewContextReader(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{ctx: ctx, r: r}
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackupAborted, err)
	}
	return c.r.Read(p)
}
