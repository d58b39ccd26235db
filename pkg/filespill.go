// Package pkg holds small utilities shared by the mutest commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned when appending to a spill opened for reading.
var ErrReadOnly = errors.New("filespill is read-only")

// FileSpill is an append-only sequence of T kept on disk as a gob stream.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *gob.Encoder
	length  uint64
}

// NewFileSpill creates a spill in a fresh temporary file.
func NewFileSpill[T any]() (FileSpill[T], error) {
	dir := filepath.Join(os.TempDir(), "mutest-spill")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "spill-*.gob")
	if err != nil {
		slog.Error("failed to create spill file", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created filespill", "path", file.Name())

	return &fileSpill[T]{path: file.Name(), file: file, encoder: gob.NewEncoder(file)}, nil
}

// CreateFileSpill creates or truncates the spill at path.
func CreateFileSpill[T any](path string) (FileSpill[T], error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Error("failed to create spill file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created filespill", "path", path)

	return &fileSpill[T]{path: path, file: file, encoder: gob.NewEncoder(file)}, nil
}

// OpenFileSpill opens an existing spill for reading. Items are counted up
// front, so a truncated stream is reported here rather than on first use.
func OpenFileSpill[T any](path string) (FileSpill[T], error) {
	spill := &fileSpill[T]{path: path}

	err := spill.decodeAll(func(uint64, T) error {
		spill.length++
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	slog.Debug("opened filespill", "path", path, "length", spill.length)

	return spill, nil
}

func (f *fileSpill[T]) Path() string {
	return f.path
}

func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.encoder == nil {
		return fmt.Errorf("append to %s: %w", f.path, ErrReadOnly)
	}

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	f.length++

	return nil
}

func (f *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

func (f *fileSpill[T]) Get(index uint64) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found T

	if index >= f.length {
		return found, fmt.Errorf("index %d out of bounds (length %d)", index, f.length)
	}

	errFound := errors.New("found")

	err := f.decodeAll(func(i uint64, item T) error {
		if i == index {
			found = item
			return errFound
		}

		return nil
	}, false)
	if err != nil && !errors.Is(err, errFound) {
		var zero T
		return zero, err
	}

	return found, nil
}

func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.decodeAll(fn, false)
}

// decodeAll streams the file from the start. With untilEOF it reads until
// the end of the stream, otherwise it stops after the known length.
func (f *fileSpill[T]) decodeAll(fn func(index uint64, item T) error, untilEOF bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open spill file", "path", f.path, "error", err)
		return fmt.Errorf("failed to open spill file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill file", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := uint64(0); untilEOF || i < f.length; i++ {
		// Decoding into a fresh value keeps earlier items from leaking into
		// fields gob leaves untouched.
		var item T

		if err := decoder.Decode(&item); err != nil {
			if untilEOF && errors.Is(err, io.EOF) {
				return nil
			}

			slog.Error("failed to decode item", "path", f.path, "index", i, "error", err)

			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file, f.encoder = nil, nil

	if err != nil {
		slog.Error("failed to close spill file", "path", f.path, "error", err)
		return err
	}

	slog.Debug("closed filespill", "path", f.path, "length", f.length)

	return nil
}
