package record

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// FileStore implements repositories.RecordStore on a single file. The path
// "-" stands for stdout when saving and stdin when loading.
type FileStore struct {
	path       string
	format     Format
	appendMode bool
	stdout     io.Writer
	stdin      io.Reader
}

// NewFileStore creates a store. An empty format is derived from the path.
// With appendMode the record is added to the end of the file, which is how
// $GITHUB_OUTPUT expects step outputs.
func NewFileStore(path string, format Format, appendMode bool) *FileStore {
	if format == "" {
		format = FormatForPath(path)
	}
	return &FileStore{
		path:       path,
		format:     format,
		appendMode: appendMode,
		stdout:     os.Stdout,
		stdin:      os.Stdin,
	}
}

// WithStdio replaces the streams used for "-"
func (s *FileStore) WithStdio(in io.Reader, out io.Writer) *FileStore {
	s.stdin = in
	s.stdout = out
	return s
}

// Path returns the record location
func (s *FileStore) Path() string {
	return s.path
}

// Format returns the serialization in use
func (s *FileStore) Format() Format {
	return s.format
}

// Save writes the record
func (s *FileStore) Save(_ context.Context, rec *entities.DecisionRecord) error {
	if s.path == "-" {
		return Encode(s.stdout, rec, s.format)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if s.appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	//nolint:gosec // G304: output path chosen by the caller
	f, err := os.OpenFile(s.path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open record %s: %w", s.path, err)
	}

	if err := Encode(f, rec, s.format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close record %s: %w", s.path, err)
	}
	return nil
}

// Load reads and validates the record
func (s *FileStore) Load(_ context.Context) (*entities.DecisionRecord, error) {
	if s.path == "-" {
		return Decode(s.stdin, s.format)
	}

	//nolint:gosec // G304: record path chosen by the caller
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrInvalidRecord, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return Decode(f, s.format)
}
