package aggregate

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// copyDir recursively copies src into dst and returns the number of files
// written. Symlinks are followed, matching a plain recursive copy.
func copyDir(src, dst string) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	files := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			info, serr := os.Stat(srcPath)
			if serr != nil {
				return files, serr
			}
			isDir = info.IsDir()
		}

		if isDir {
			n, cerr := copyDir(srcPath, dstPath)
			files += n
			if cerr != nil {
				return files, cerr
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return files, err
		}
		files++
	}
	return files, nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	dstFile, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// replaceDir removes dst and copies src in its place.
func replaceDir(src, dst string) (int, error) {
	if err := os.RemoveAll(dst); err != nil {
		return 0, errors.FileSystemError("failed to remove target directory").WithCause(err).WithContext("path", dst).Build()
	}
	n, err := copyDir(src, dst)
	if err != nil {
		return n, errors.FileSystemError("failed to copy directory").
			WithCause(err).
			WithContext("source", src).
			WithContext("target", dst).
			Build()
	}
	return n, nil
}

// fingerprintTree hashes every file below dir, keyed by its slash-separated
// relative path, into a single mdfp fingerprint.
func fingerprintTree(dir string) (string, error) {
	var lines []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, rerr := os.ReadFile(filepath.Clean(path))
		if rerr != nil {
			return rerr
		}
		rel, _ := filepath.Rel(dir, path)
		rel = filepath.ToSlash(rel)
		lines = append(lines, rel+" "+mdfp.CalculateFingerprintFromParts("path: "+rel, string(content)))
		return nil
	})
	if err != nil {
		return "", errors.FileSystemError("failed to fingerprint tree").WithCause(err).WithContext("path", dir).Build()
	}
	return mdfp.CalculateFingerprintFromParts("", strings.Join(lines, "\n")), nil
}
