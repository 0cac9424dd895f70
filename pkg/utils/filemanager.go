// =============================================================================
// YPBank Converter - File Manager Utility
// =============================================================================
//
// This module provides the file plumbing around the codecs:
//   - Input discovery for batch conversion
//   - Opening inputs (a path or "-" for standard input)
//   - Atomic output files (temp file + rename)
//   - Output file naming from a template
//
// ATOMIC OUTPUT:
//   An AtomicFile writes into a hidden temporary file in the destination
//   directory. Commit syncs it and renames it over the destination; Abort
//   removes it. A failed conversion therefore never leaves a partial file
//   behind, and an existing destination is only replaced by a complete one.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stdio is the path that selects standard input or output.
const Stdio = "-"

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the regular files in dir matching pattern.
//
// PARAMETERS:
//   - dir: The directory to scan (not recursive).
//   - pattern: A glob pattern such as "*.csv". Empty matches every file.
//
// RETURNS:
//   - The matching paths, sorted.
//   - An error if the directory cannot be read or the pattern is invalid.
func DiscoverInputFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// =============================================================================
// INPUT
// =============================================================================

// OpenInput opens path for reading. Stdio selects stdin (os.Stdin when nil),
// which is not closed by the returned closer.
func OpenInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == Stdio {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// =============================================================================
// ATOMIC OUTPUT
// =============================================================================

// AtomicFile is an output file that appears at its destination only when
// committed.
type AtomicFile struct {
	path string
	tmp  *os.File
	done bool
}

// CreateAtomic starts writing the file at path. The parent directory is
// created if needed.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return &AtomicFile{path: path, tmp: tmp}, nil
}

// Path returns the destination path.
func (a *AtomicFile) Path() string { return a.path }

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.tmp.Write(p)
}

// Commit moves the written content to the destination path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true

	if err := a.tmp.Sync(); err != nil {
		a.discard()
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err := a.tmp.Close(); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Chmod(a.tmp.Name(), 0o644); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(a.tmp.Name(), a.path); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Abort drops everything written so far. It is a no-op after Commit, so it
// can be deferred unconditionally.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.discard()
}

func (a *AtomicFile) discard() {
	a.tmp.Close()
	os.Remove(a.tmp.Name())
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	W io.Writer
	N int64
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)
	return n, err
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//             plus one placeholder per key of params, e.g. {original}
//             (input file name without extension), {format} and {ext}.
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name. When params has an "ext" entry and the name
//     does not already end with it, the extension is appended.
//
// EXAMPLE:
//   format: "{original}_{timestamp}_{uuid}{ext}"
//   params: {"original": "history", "ext": ".bin"}
//   output: "history_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.bin"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext := params["ext"]; ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// TrimExt returns the base name of path without its extension.
func TrimExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
