package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultMaxBytes caps how much a byte-oriented source will read.
const DefaultMaxBytes = 100 << 20

// FileSource reads a reference file from local disk.
type FileSource struct {
	Path     string
	Parse    ParseOptions
	MaxBytes int64
}

func (s *FileSource) String() string { return s.Path }

// Fetch reads and parses the file.
func (s *FileSource) Fetch(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readLimited(f, s.MaxBytes)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Base(s.Path), data, s.Parse)
}

// ReaderSource parses an already open stream, such as an uploaded file.
type ReaderSource struct {
	Name     string
	Reader   io.Reader
	Parse    ParseOptions
	MaxBytes int64
}

func (s *ReaderSource) String() string { return s.Name }

// Fetch consumes the reader. A ReaderSource can only be fetched once.
func (s *ReaderSource) Fetch(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readLimited(s.Reader, s.MaxBytes)
	if err != nil {
		return nil, err
	}
	return Parse(s.Name, data, s.Parse)
}

// BytesSource parses an in-memory payload. Unlike ReaderSource it can be
// fetched repeatedly.
type BytesSource struct {
	Name  string
	Data  []byte
	Parse ParseOptions
}

func (s *BytesSource) String() string { return s.Name }

func (s *BytesSource) Fetch(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(s.Name, bytes.Clone(s.Data), s.Parse)
}

// readLimited reads all of r, failing with ErrFileTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}
