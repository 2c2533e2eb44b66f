package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/semmidev/yabu/internal/domain"
)

// ContentHash digests the contents of target. A file hashes to the SHA-256 of
// its bytes. A directory hashes every regular file below it in order of
// slash separated relative path, each prefixed by that path and its length,
// so the result is independent of directory enumeration order but changes
// when any file is renamed or modified.
func ContentHash(ctx context.Context, target string, progress domain.ProgressFunc) (string, error) {
	contentType, err := domain.ContentTypeOf(target)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	if contentType == domain.ContentFile {
		report(progress, 0, 1, "Checking content hash")
		if err := copyInto(ctx, h, target); err != nil {
			return "", err
		}
		report(progress, 1, 1, "Checking content hash")
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	files, err := regularFiles(target)
	if err != nil {
		return "", err
	}

	report(progress, 0, len(files), "Checking content hash")
	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrBackupAborted, err)
		}
		if err := hashEntry(ctx, h, target, rel); err != nil {
			return "", err
		}
		report(progress, i+1, len(files), "Checking content hash | "+rel)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// regularFiles returns the slash separated relative paths of all regular
// files under root, sorted. A symlinked root is followed; links below it are
// not.
func regularFiles(root string) ([]string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func hashEntry(ctx context.Context, h hash.Hash, root, rel string) error {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(info.Size()))

	h.Write([]byte(rel))
	h.Write([]byte{0})
	h.Write(size[:])
	if _, err := io.Copy(h, domain.NewContextReader(ctx, f)); err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	return nil
}

func copyInto(ctx context.Context, w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, domain.NewContextReader(ctx, f)); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func report(progress domain.ProgressFunc, step, total int, msg string) {
	if progress != nil {
		progress(domain.Progress{Step: step, Total: total, Message: msg})
	}
}
