package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/semmidev/yabu/internal/domain"
)

// describe builds a Backup from an archive path and its embedded metadata.
// Name and date come from the file name, using the separator and timestamp
// format recorded in the metadata.
func describe(archivePath string, meta domain.Metadata) (domain.Backup, error) {
	base := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))

	name, date, err := domain.ParseArchiveName(base, meta.NameSeparator, meta.TimestampFormat)
	if err != nil {
		return domain.Backup{}, fmt.Errorf("%w: %v", domain.ErrNotABackup, err)
	}

	return domain.Backup{
		Name:            name,
		Path:            archivePath,
		TimestampFormat: meta.TimestampFormat,
		NameSeparator:   meta.NameSeparator,
		Target:          meta.Target,
		Date:            date,
		ContentHash:     meta.ContentHash,
		ContentType:     meta.ContentType,
	}, nil
}

func pairError(target string, dest domain.Destination, path string, err error) error {
	return &domain.BackupError{Target: target, Destination: dest, Path: path, Err: err}
}

func abortError(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrBackupAborted, cause)
}
