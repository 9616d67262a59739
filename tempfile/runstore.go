// Package tempfile stores the sorted runs of an external sort pass.
// Every run is a separate file named after the sorted input and the run
// index; the RunStore that created the files owns them and removes them
// when the pass is over.
package tempfile

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// file IO buffer size for each run file
const defaultBufferSize = 1 << 16 // 64k

// defaultBaseName is used when the input name does not yield a usable base name
const defaultBaseName = "kwaysort"

// BaseName returns the last element of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return defaultBaseName
	}
	return base
}

// RunName returns the file name of run index for the given input:
// {dir}/{BaseName(input)}.{index}
func RunName(dir, input string, index int) string {
	return filepath.Join(dir, BaseName(input)+"."+strconv.Itoa(index))
}

// RunStore creates, opens and removes the run files of one sort pass.
// It is not safe for concurrent use.
type RunStore struct {
	dir         string
	input       string
	compression Compression
	bufferSize  int
	names       []string
	readers     []*RunReader
}

// NewRunStore returns a RunStore placing runs for input in dir.
// bufferSize is the IO buffer size used per run file, <= 0 selects the default.
func NewRunStore(dir, input string, compression Compression, bufferSize int) *RunStore {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &RunStore{
		dir:         dir,
		input:       input,
		compression: compression,
		bufferSize:  bufferSize,
	}
}

// Dir returns the directory runs are written to.
func (s *RunStore) Dir() string {
	return s.dir
}

// Names returns the names of the run files currently owned by the store,
// in creation order.
func (s *RunStore) Names() []string {
	return append([]string(nil), s.names...)
}

// Size returns the number of run files currently owned by the store.
func (s *RunStore) Size() int {
	return len(s.names)
}

// Create creates the file for run index. The file is owned by the store from
// the moment it exists, even if writing it fails later on.
// An existing file with the same name is never overwritten.
func (s *RunStore) Create(index int) (*RunWriter, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	name := RunName(s.dir, s.input, index)
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	s.names = append(s.names, name)

	w := &RunWriter{
		name:   name,
		file:   f,
		bufOut: bufio.NewWriterSize(f, s.bufferSize),
	}
	w.out, w.compressor, err = newWriter(w.bufOut, s.compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Open opens a run file previously created by this store for reading.
func (s *RunStore) Open(name string) (*RunReader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	raw := bufio.NewReaderSize(f, s.bufferSize)
	// never detected: a plain run may start with a compression magic
	dec, decCloser, err := newReaderFor(raw, s.compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	r := &RunReader{
		name:         name,
		file:         f,
		decompressor: decCloser,
		reader:       raw,
	}
	if dec != io.Reader(raw) {
		r.reader = bufio.NewReaderSize(dec, s.bufferSize)
	}
	s.readers = append(s.readers, r)
	return r, nil
}

// RemoveAll closes every reader that is still open and deletes every run
// file the store created. It is safe to call more than once and after a
// partial failure; files that are already gone are not an error.
func (s *RunStore) RemoveAll() error {
	var result *multierror.Error
	for _, r := range s.readers {
		if err := r.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.readers = nil
	for _, name := range s.names {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	s.names = nil
	return result.ErrorOrNil()
}

// RunWriter writes the lines of one run file.
type RunWriter struct {
	name       string
	file       *os.File
	bufOut     *bufio.Writer
	out        io.Writer
	compressor io.Closer
	lines      int
}

// Name returns the run file name.
func (w *RunWriter) Name() string {
	return w.name
}

// Lines returns the number of lines written so far.
func (w *RunWriter) Lines() int {
	return w.lines
}

// WriteLine appends line and a trailing newline to the run.
func (w *RunWriter) WriteLine(line string) error {
	if _, err := io.WriteString(w.out, line); err != nil {
		return err
	}
	if _, err := io.WriteString(w.out, "\n"); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Close flushes the run to disk and closes the file.
// The file is closed even when flushing fails.
func (w *RunWriter) Close() error {
	var result *multierror.Error
	if err := w.compressor.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.bufOut.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// RunReader reads a run file line by line.
type RunReader struct {
	name         string
	file         *os.File
	decompressor io.Closer
	reader       *bufio.Reader
	line         int
	closed       bool
}

// Name returns the run file name.
func (r *RunReader) Name() string {
	return r.name
}

// Line returns the 1-based number of the line last returned by ReadLine.
func (r *RunReader) Line() int {
	return r.line
}

// ReadLine returns the next line without its newline, or io.EOF once the run
// is exhausted.
func (r *RunReader) ReadLine() (string, error) {
	if r.closed {
		return "", io.EOF
	}
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	r.line++
	return strings.TrimRight(line, "\r\n"), nil
}

// Close releases the reader. Closing an already closed reader does nothing.
func (r *RunReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.reader = nil
	var result *multierror.Error
	if err := r.decompressor.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
