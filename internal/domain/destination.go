package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTimestampFormat = "2006_01_02__150405"
	DefaultNameSeparator   = "-"
	DefaultRetentionCount  = 3
	DefaultArchiveFormat   = FormatZip
)

// FormatZip is the only archive format understood at present.
const FormatZip = "zip"

// SupportedFormats lists the archive formats a Destination may name.
var SupportedFormats = []string{FormatZip}

// sampleTimes are rendered with a destination's timestamp format to detect
// separators that would appear inside a timestamp. Together they produce
// every digit in every numeric field, every month and weekday name, both
// AM and PM, and single and double digit values.
var sampleTimes = func() []time.Time {
	var samples []time.Time
	for i := 0; i < 12; i++ {
		samples = append(samples, time.Date(
			2010+i, time.Month(i+1), 1+i*2, i*2, i*5, 59-i*5, 123456789*(i%2), time.UTC))
	}
	for day := 1; day <= 7; day++ {
		samples = append(samples, time.Date(2023, time.January, day, 13, 7, 8, 987654321, time.UTC))
	}
	for d := 0; d <= 9; d++ {
		n := 11 * d
		samples = append(samples, time.Date(1000+111*d, time.Month(d+1), 10+d, 10+d, n%60, n%60, 0, time.UTC))
	}
	return samples
}()

// Destination is a storage location plus its archival policy.
type Destination struct {
	path            string
	timestampFormat string
	nameSeparator   string
	retentionCount  int
	archiveFormat   string
}

type DestinationOption func(*Destination)

func WithTimestampFormat(format string) DestinationOption {
	return func(d *Destination) {
		d.timestampFormat = format
	}
}

func WithNameSeparator(sep string) DestinationOption {
	return func(d *Destination) {
		d.nameSeparator = sep
	}
}

func WithRetentionCount(n int) DestinationOption {
	return func(d *Destination) {
		d.retentionCount = n
	}
}

func WithArchiveFormat(format string) DestinationOption {
	return func(d *Destination) {
		d.archiveFormat = format
	}
}

// NewDestination validates path and policy and returns a Destination.
// The path must be an existing directory.
func NewDestination(path string, opts ...DestinationOption) (Destination, error) {
	d := Destination{
		path:            filepath.Clean(path),
		timestampFormat: DefaultTimestampFormat,
		nameSeparator:   DefaultNameSeparator,
		retentionCount:  DefaultRetentionCount,
		archiveFormat:   DefaultArchiveFormat,
	}
	for _, opt := range opts {
		opt(&d)
	}

	info, err := os.Stat(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Destination{}, fmt.Errorf("%w: %s", ErrDestinationNotFound, d.path)
		}
		return Destination{}, fmt.Errorf("stat destination %s: %w", d.path, err)
	}
	if !info.IsDir() {
		return Destination{}, fmt.Errorf("%w: %s is not a directory", ErrInvalidDestination, d.path)
	}

	if err := d.validatePolicy(); err != nil {
		return Destination{}, err
	}
	return d, nil
}

func (d Destination) validatePolicy() error {
	if d.timestampFormat == "" {
		return fmt.Errorf("%w: timestamp format is empty", ErrInvalidDestination)
	}
	if d.retentionCount <= 0 {
		return fmt.Errorf("%w: retention count must be positive, got %d", ErrInvalidDestination, d.retentionCount)
	}
	if !isSupportedFormat(d.archiveFormat) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, d.archiveFormat)
	}
	if d.nameSeparator == "" {
		return fmt.Errorf("%w: name separator is empty", ErrInvalidDestination)
	}
	if strings.Contains(d.nameSeparator, string(filepath.Separator)) {
		return fmt.Errorf("%w: name separator %q contains a path separator", ErrInvalidDestination, d.nameSeparator)
	}

	for _, sample := range sampleTimes {
		rendered := sample.Format(d.timestampFormat)
		if strings.Contains(rendered, d.nameSeparator) {
			return fmt.Errorf("%w: separator %q occurs in rendered timestamp %q",
				ErrSeparatorConflict, d.nameSeparator, rendered)
		}
		if strings.Contains(rendered, string(filepath.Separator)) {
			return fmt.Errorf("%w: timestamp %q contains a path separator", ErrInvalidDestination, rendered)
		}
	}
	return nil
}

func isSupportedFormat(format string) bool {
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (d Destination) Path() string            { return d.path }
func (d Destination) TimestampFormat() string { return d.timestampFormat }
func (d Destination) NameSeparator() string   { return d.nameSeparator }
func (d Destination) RetentionCount() int     { return d.retentionCount }
func (d Destination) ArchiveFormat() string   { return d.archiveFormat }

// Equal reports structural equality on every field.
func (d Destination) Equal(other Destination) bool {
	return d == other
}

func (d Destination) String() string {
	return d.path
}

// CheckStem reports whether a target stem can be encoded in an archive name
// for this destination.
func (d Destination) CheckStem(stem string) error {
	if strings.Contains(stem, d.nameSeparator) {
		return fmt.Errorf("%w: separator %q occurs in target name %q",
			ErrSeparatorConflict, d.nameSeparator, stem)
	}
	return nil
}

// ArchiveBase renders "<stem><separator><timestamp>" without extension.
func (d Destination) ArchiveBase(stem string, at time.Time) string {
	return stem + d.nameSeparator + at.Format(d.timestampFormat)
}

// ParseArchiveName splits an archive file name (extension already removed)
// into the target stem and the creation date.
func ParseArchiveName(base, separator, timestampFormat string) (string, time.Time, error) {
	name, stamp, ok := strings.Cut(base, separator)
	if !ok {
		return "", time.Time{}, fmt.Errorf("separator %q not found in %q", separator, base)
	}
	date, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse timestamp %q: %w", stamp, err)
	}
	return name, date, nil
}

// Stem returns the base name of path without its final extension. Dotfiles
// such as ".bashrc" keep their full name.
func Stem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}
