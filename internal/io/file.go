package ioutils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TempPattern is the name pattern of in-progress download files.
const TempPattern = ".mathdl-*.part"

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots    = regexp.MustCompile(`\.+$`)
	multiWhitespace = regexp.MustCompile(`\s+`)
)

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// This function ensures filenames are valid across different operating systems,
// particularly Windows which has the most restrictive naming rules.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Leading and trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Lecture 1: Limits")  // Returns "Lecture 1_ Limits"
//	SanitizeFileName("Notes...")           // Returns "Notes"
//	SanitizeFileName("Name   with  spaces") // Returns "Name with spaces"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = multiWhitespace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = trailingDots.ReplaceAllString(name, "")
	return strings.TrimRight(name, " ")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// CheckWritable verifies that files can be created in dir by creating and
// removing a temporary file.
func CheckWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".mathdl-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CreateTemp creates a temporary download file in dir.
func CreateTemp(dir string) (*os.File, error) {
	return os.CreateTemp(dir, TempPattern)
}

// CommitFile moves a finished temporary file to its destination.
//
// When overwrite is false the destination is created exclusively: the
// temporary file is hard-linked to dest, which fails if dest exists, and
// then unlinked. On file systems without hard links it falls back to a
// stat check followed by a rename. When overwrite is true the file is
// renamed over any existing destination.
//
// The temporary file is always gone when CommitFile returns.
func CommitFile(tmpPath, dest string, overwrite bool) error {
	defer os.Remove(tmpPath)

	if overwrite {
		return os.Rename(tmpPath, dest)
	}

	err := os.Link(tmpPath, dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return err
	}

	// Hard links unsupported here.
	if _, statErr := os.Stat(dest); statErr == nil {
		return &fs.PathError{Op: "commit", Path: dest, Err: fs.ErrExist}
	}
	return os.Rename(tmpPath, dest)
}

// WriteFile writes data to path atomically through a temporary file in the
// same directory. An existing file is replaced.
//
// Parameters:
//   - ctx: Context for cancellation, checked before the write starts
//   - path: File path to write to
//   - data: Bytes to write
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := CreateTemp(dir)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return CommitFile(tmp.Name(), path, true)
}

// RemoveStaleTemps deletes leftover temporary download files in dir, for
// example after the process was killed mid-download. It returns the number
// of files removed.
func RemoveStaleTemps(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, TempPattern))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}
