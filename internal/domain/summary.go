package domain

import (
	"errors"
	"time"
)

// Summary condenses the outcome of one backup run.
type Summary struct {
	Preset     string
	Created    []Backup
	Duplicates int
	Failures   []error
	Duration   time.Duration
}

// Summarize classifies the outcome of a run. Duplicates are not failures.
func Summarize(preset string, created []Backup, errs []error, took time.Duration) Summary {
	s := Summary{Preset: preset, Created: created, Duration: took}
	for _, err := range errs {
		if errors.Is(err, ErrDuplicateContent) {
			s.Duplicates++
			continue
		}
		s.Failures = append(s.Failures, err)
	}
	return s
}

func (s Summary) OK() bool {
	return len(s.Failures) == 0
}
