package domain

import (
	"fmt"
	"os"
	"time"
)

type ContentType string

const (
	ContentFile      ContentType = "file"
	ContentDirectory ContentType = "directory"
)

func (c ContentType) Valid() bool {
	return c == ContentFile || c == ContentDirectory
}

// ContentTypeOf inspects path on disk. Anything other than a regular file or
// a directory is an invalid target.
func ContentTypeOf(path string) (ContentType, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrTargetNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	switch {
	case info.IsDir():
		return ContentDirectory, nil
	case info.Mode().IsRegular():
		return ContentFile, nil
	default:
		return "", fmt.Errorf("%w: %s is neither a file nor a directory", ErrInvalidTarget, path)
	}
}

// Metadata is the record embedded in every archive. It is the only source of
// truth for content type and hash.
type Metadata struct {
	Target          string      `json:"target"`
	NameSeparator   string      `json:"name_separator"`
	TimestampFormat string      `json:"timestamp_format"`
	ContentHash     string      `json:"content_hash"`
	ContentType     ContentType `json:"content_type"`
}

// Backup describes one archive on disk. Name and Date come from the file
// name; everything else comes from the embedded metadata.
type Backup struct {
	Name            string
	Path            string
	TimestampFormat string
	NameSeparator   string
	Target          string
	Date            time.Time
	ContentHash     string
	ContentType     ContentType
}

func (b Backup) String() string {
	return fmt.Sprintf("Backup:\n\tname: %s\n\ttarget: %s\n\tpath: %s\n\tdate: %s",
		b.Name, b.Target, b.Path, b.Date.Format(time.DateTime))
}
