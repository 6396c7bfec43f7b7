package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
)

// Writer streams records as a JSON array to an io.Writer.
// The opening bracket is written lazily on the first record, elements are
// separated as they arrive, and the closing bracket lands on Close. An
// empty result set serializes as "[]".
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	count   int
	started bool
	closed  bool
}

// NewWriter creates a JSON-array writer that writes to the specified output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Write appends a single record to the array.
func (w *Writer) Write(record interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("write after close: %w", harvesterrors.ErrOutputWrite)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %v: %w", err, harvesterrors.ErrOutputWrite)
	}

	sep := ",\n  "
	if !w.started {
		sep = "[\n  "
		w.started = true
	}
	if _, err := io.WriteString(w.out, sep); err != nil {
		return fmt.Errorf("failed to write record: %v: %w", err, harvesterrors.ErrOutputWrite)
	}
	if _, err := w.out.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %v: %w", err, harvesterrors.ErrOutputWrite)
	}

	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close terminates the JSON array.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finish()
}

// Abort marks the writer closed without completing the array. Data already
// streamed to the underlying writer cannot be recalled.
func (w *Writer) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// finish writes the array terminator. Caller must hold the mutex.
func (w *Writer) finish() error {
	if w.closed {
		return nil
	}
	w.closed = true

	terminator := "\n]\n"
	if !w.started {
		terminator = "[]\n"
	}
	if _, err := io.WriteString(w.out, terminator); err != nil {
		return fmt.Errorf("failed to finalize output: %v: %w", err, harvesterrors.ErrOutputWrite)
	}
	return nil
}

// FileWriter writes a JSON array to a file atomically. Records are staged
// in a temporary file next to the target path; a successful Close syncs the
// data and renames the temp file into place. Until then the target path is
// untouched, so a failed run never leaves a truncated file behind.
type FileWriter struct {
	Writer
	file     *os.File
	path     string
	tempPath string
	done     bool
}

// NewFileWriter creates a writer that will atomically produce the named file.
func NewFileWriter(filename string) (*FileWriter, error) {
	tempPath := filename + ".tmp"
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %v: %w", err, harvesterrors.ErrOutputWrite)
		}
	}

	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %v: %w", err, harvesterrors.ErrOutputWrite)
	}

	fw := &FileWriter{
		file:     file,
		path:     filename,
		tempPath: tempPath,
	}
	fw.out = file
	return fw, nil
}

// Close finalizes the array, flushes it to disk, and renames the temp file
// onto the target path.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.done {
		return nil
	}

	if err := fw.finish(); err != nil {
		fw.cleanup()
		return err
	}

	// Sync to ensure data is flushed before the rename makes it visible
	if err := fw.file.Sync(); err != nil {
		fw.cleanup()
		return fmt.Errorf("failed to sync output file: %v: %w", err, harvesterrors.ErrOutputWrite)
	}
	if err := fw.file.Close(); err != nil {
		_ = os.Remove(fw.tempPath)
		fw.done = true
		return fmt.Errorf("failed to close output file: %v: %w", err, harvesterrors.ErrOutputWrite)
	}

	// Atomic rename
	if err := os.Rename(fw.tempPath, fw.path); err != nil {
		_ = os.Remove(fw.tempPath)
		fw.done = true
		return fmt.Errorf("failed to commit output file: %v: %w", err, harvesterrors.ErrOutputWrite)
	}

	fw.done = true
	return nil
}

// Abort removes the temporary file without touching the target path.
func (fw *FileWriter) Abort() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.done {
		return nil
	}
	fw.closed = true
	fw.cleanup()
	return nil
}

// cleanup closes and removes the temp file. Caller must hold the mutex.
func (fw *FileWriter) cleanup() {
	_ = fw.file.Close()
	_ = os.Remove(fw.tempPath)
	fw.done = true
}

// Discard counts records without writing them anywhere. Used for dry runs,
// where the fetch exercises credentials and connectivity but must leave no
// artifact behind.
type Discard struct {
	mu    sync.Mutex
	count int
}

// NewDiscardWriter creates a writer that drops every record.
func NewDiscardWriter() *Discard {
	return &Discard{}
}

// Write counts the record and drops it.
func (d *Discard) Write(record interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return nil
}

// Close implements RecordWriter.
func (d *Discard) Close() error { return nil }

// Abort implements RecordWriter.
func (d *Discard) Abort() error { return nil }

// Count returns the number of records discarded.
func (d *Discard) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}
