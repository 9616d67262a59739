package kwaysort

import (
	"bufio"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/lanrat/kwaysort/tempfile"
)

// Input is the record source of a Sorter. It is opened once per pass.
type Input interface {
	// Name identifies the input in errors and names its run files.
	Name() string
	// Dir is the default run file directory, "" if the input has no location on disk.
	Dir() string
	// Open returns a fresh stream over the whole input.
	Open() (io.ReadCloser, error)
}

type fileInput string

// File returns an Input reading the file at path. Run files default to the
// directory holding the file.
func File(path string) Input {
	return fileInput(path)
}

func (f fileInput) Name() string                 { return string(f) }
func (f fileInput) Dir() string                  { return filepath.Dir(string(f)) }
func (f fileInput) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

type funcInput struct {
	name string
	open func() (io.ReadCloser, error)
}

// Func returns an Input calling open at the start of every pass. name is
// only used for errors and run file names; run files default to a
// discovered temp directory.
func Func(name string, open func() (io.ReadCloser, error)) Input {
	return funcInput{name: name, open: open}
}

func (f funcInput) Name() string                 { return f.name }
func (f funcInput) Dir() string                  { return "" }
func (f funcInput) Open() (io.ReadCloser, error) { return f.open() }

// lineReader yields the non-blank lines of a possibly compressed stream
// together with their 1-based line numbers.
type lineReader struct {
	scanner      *bufio.Scanner
	decompressor io.Closer
	line         int
}

func newLineReader(r io.Reader, bufferSize int) (*lineReader, error) {
	br := bufio.NewReaderSize(r, bufferSize)
	dec, decCloser, err := tempfile.NewReader(br)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, bufferSize), maxLineSize)
	return &lineReader{scanner: scanner, decompressor: decCloser}, nil
}

// maxLineSize bounds a single encoded record
const maxLineSize = 64 << 20

// next returns the next non-blank line, or io.EOF.
func (l *lineReader) next() (string, error) {
	for l.scanner.Scan() {
		l.line++
		text := l.scanner.Text()
		if isBlank(text) {
			continue
		}
		return text, nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (l *lineReader) Close() error {
	return l.decompressor.Close()
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\v', '\f':
		default:
			return false
		}
	}
	return true
}

// Scan decodes the records of an encoded stream, such as the sink output of
// an earlier pass. Blank lines are skipped. Iteration stops at the first
// error, which is yielded with the zero record.
func Scan[E any](r io.Reader, codec Codec[E]) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E
		lr, err := newLineReader(r, 1<<16)
		if err != nil {
			yield(zero, err)
			return
		}
		defer lr.Close()
		for {
			text, err := lr.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
			rec, err := codec.Decode(text)
			if err != nil {
				yield(zero, &ParseError{Source: "stream", Line: lr.line, Text: text, Cause: err})
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}
