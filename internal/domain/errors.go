package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTargetNotFound       = errors.New("target not found")
	ErrDestinationNotFound  = errors.New("destination not found")
	ErrDuplicateContent     = errors.New("content unchanged since latest backup")
	ErrUnsupportedFormat    = errors.New("unsupported archive format")
	ErrNotABackup           = errors.New("not a backup archive")
	ErrContentTypeMismatch  = errors.New("content type mismatch")
	ErrTargetParentNotFound = errors.New("target parent directory not found")
	ErrBackupAborted        = errors.New("backup aborted")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrInvalidDestination   = errors.New("invalid destination")
	ErrSeparatorConflict    = errors.New("name separator conflict")
	ErrTargetNotInPreset    = errors.New("target not in preset")
	ErrPresetNotFound       = errors.New("preset not found")
)

// BackupError reports the failure of a single (target, destination) pair.
// Path is the archive the error refers to, if any: the previous backup for
// duplicates, the partial archive for aborts.
type BackupError struct {
	Target      string
	Destination Destination
	Path        string
	Err         error
}

func (e *BackupError) Error() string {
	msg := fmt.Sprintf("%s -> %s: %v", e.Target, e.Destination.Path(), e.Err)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	return msg
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// ArchiveError reports a problem with one archive file, typically found
// during discovery.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}
