package processor

import (
	"errors"
	"fmt"

	"skysheet/internal/textenc"
)

var (
	// ErrNotFound indicates a path given on the command line does not exist.
	ErrNotFound = errors.New("path does not exist")

	// ErrUnsupportedPath indicates a path that is neither a regular file nor a directory.
	ErrUnsupportedPath = errors.New("unsupported path type")

	// ErrNoMatch indicates a glob pattern matched no files.
	ErrNoMatch = errors.New("pattern matched no files")
)

// FileError describes a failure to process one path.
type FileError struct {
	Path string
	Op   string // stat, read, decode, backup, encode, write
	Line int    // 1-based, 0 when unknown
	Err  error
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s:%d: %v", e.Op, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result is the outcome of processing one file.
type Result struct {
	Path       string
	OutputPath string
	BackupPath string
	Encoding   textenc.Encoding
	BOM        bool

	InputBytes  int
	OutputBytes int

	// UnterminatedLine is the line of the quote opening a string literal
	// that never closes, or 0.
	UnterminatedLine int

	DryRun bool
	Err    error
}

// OK reports whether the file was processed without error.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Saved returns the number of bytes removed.
func (r *Result) Saved() int {
	return r.InputBytes - r.OutputBytes
}

// Summary collects the results of a batch run.
type Summary struct {
	// Locations are the arguments that named existing paths.
	Locations []string
	Results   []*Result
}

// Succeeded returns the number of files processed without error.
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed files and paths.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// Warnings returns the number of successful results with an unterminated string.
func (s *Summary) Warnings() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() && r.UnterminatedLine > 0 {
			n++
		}
	}
	return n
}
