package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/semmidev/yabu/internal/domain"
)

// MetadataEntry is the reserved entry name holding the metadata record.
const MetadataEntry = ".yabu.meta"

type ZipArchiver struct{}

func NewZip() *ZipArchiver {
	return &ZipArchiver{}
}

func (z *ZipArchiver) Format() string    { return domain.FormatZip }
func (z *ZipArchiver) Extension() string { return ".zip" }

type entry struct {
	path string // on disk
	name string // inside the archive, slash separated
	dir  bool
}

func (z *ZipArchiver) Write(
	ctx context.Context,
	target string,
	dest domain.Destination,
	meta domain.Metadata,
	at time.Time,
	progress domain.ProgressFunc,
) (string, error) {
	contentType, err := domain.ContentTypeOf(target)
	if err != nil {
		return "", err
	}

	entries, err := collectEntries(target, contentType)
	if err != nil {
		return "", err
	}

	archivePath := filepath.Join(dest.Path(), dest.ArchiveBase(domain.Stem(target), at)+z.Extension())
	file, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	if err := z.writeEntries(ctx, file, entries, meta, target, progress); err != nil {
		file.Close()
		os.Remove(archivePath)
		return "", err
	}

	if err := file.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	return archivePath, nil
}

func (z *ZipArchiver) writeEntries(
	ctx context.Context,
	file *os.File,
	entries []entry,
	meta domain.Metadata,
	target string,
	progress domain.ProgressFunc,
) error {
	zw := zip.NewWriter(file)
	total := len(entries) + 1
	report(progress, 0, total, "Zipping "+target)

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return fmt.Errorf("%w: %v", domain.ErrBackupAborted, err)
		}
		if err := addEntry(ctx, zw, e); err != nil {
			zw.Close()
			return err
		}
		report(progress, i+1, total, fmt.Sprintf("Zipping %s | %s", filepath.Base(target), e.name))
	}

	record, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	w, err := zw.Create(MetadataEntry)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to create metadata entry: %w", err)
	}
	if _, err := w.Write(record); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write metadata entry: %w", err)
	}
	report(progress, total, total, "Zipping "+MetadataEntry)

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func addEntry(ctx context.Context, zw *zip.Writer, e entry) error {
	if e.dir {
		_, err := zw.Create(e.name + "/")
		if err != nil {
			return fmt.Errorf("failed to add directory %s: %w", e.name, err)
		}
		return nil
	}

	src, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", e.name, err)
	}
	header.Name = e.name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", e.name, err)
	}
	if _, err := io.Copy(w, domain.NewContextReader(ctx, src)); err != nil {
		return fmt.Errorf("failed to compress %s: %w", e.name, err)
	}
	return nil
}

// collectEntries lists what goes into the archive. Directory trees are
// stored relative to the target root; a file is stored under its own name.
// Only regular files and directories are archived. A symlinked root is
// followed; links below it are not.
func collectEntries(target string, contentType domain.ContentType) ([]entry, error) {
	if contentType == domain.ContentFile {
		return []entry{{path: target, name: filepath.Base(target)}}, nil
	}

	root, err := filepath.EvalSymlinks(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", target, err)
	}

	var entries []entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{path: path, name: filepath.ToSlash(rel), dir: d.IsDir()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", target, err)
	}
	return entries, nil
}

func (z *ZipArchiver) ReadMetadata(archivePath string) (domain.Metadata, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return domain.Metadata{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
		}
		return domain.Metadata{}, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != MetadataEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return domain.Metadata{}, fmt.Errorf("failed to open metadata entry: %w", err)
		}
		defer rc.Close()

		var meta domain.Metadata
		if err := json.NewDecoder(rc).Decode(&meta); err != nil {
			return domain.Metadata{}, fmt.Errorf("%w: malformed metadata: %v", domain.ErrNotABackup, err)
		}
		return meta, nil
	}

	return domain.Metadata{}, fmt.Errorf("%w: no %s entry", domain.ErrNotABackup, MetadataEntry)
}

func (z *ZipArchiver) Extract(ctx context.Context, archivePath, dir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Name == MetadataEntry {
			continue
		}
		if err := extractFile(f, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dir string) error {
	dest, err := safeJoin(dir, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dest, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer src.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to decompress %s: %w", f.Name, err)
	}
	return out.Close()
}

// safeJoin resolves an archive entry name below dir, rejecting names that
// would escape it.
func safeJoin(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSuffix(name, "/")))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal entry name %q", name)
	}
	return filepath.Join(dir, clean), nil
}

func report(progress domain.ProgressFunc, step, total int, msg string) {
	if progress != nil {
		progress(domain.Progress{Step: step, Total: total, Message: msg})
	}
}

var _ domain.Archiver = (*ZipArchiver)(nil)
