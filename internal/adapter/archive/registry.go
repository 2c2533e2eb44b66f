package archive

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/semmidev/yabu/internal/domain"
)

// Registry dispatches archive formats to their codecs.
type Registry struct {
	byFormat map[string]domain.Archiver
}

func NewRegistry(codecs ...domain.Archiver) *Registry {
	r := &Registry{byFormat: make(map[string]domain.Archiver, len(codecs))}
	for _, c := range codecs {
		r.byFormat[c.Format()] = c
	}
	return r
}

// Default returns a registry holding every built-in codec.
func Default() *Registry {
	return NewRegistry(NewZip())
}

func (r *Registry) Get(format string) (domain.Archiver, error) {
	c, ok := r.byFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	return c, nil
}

// ForFile picks a codec by the file extension of path.
func (r *Registry) ForFile(path string) (domain.Archiver, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range r.byFormat {
		if c.Extension() == ext {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
}

func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
