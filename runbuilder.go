package kwaysort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lanrat/kwaysort/tempfile"
	"github.com/sirupsen/logrus"
)

// runBuilder performs the divide phase of a pass: it reads the input into a
// bounded buffer and spills every full buffer as a sorted run file.
type runBuilder[E any] struct {
	input      Input
	codec      Codec[E]
	less       LessFunc[E]
	store      *tempfile.RunStore
	bufferSize int64
	recordSize int64
	fileBuffer int
	nextRun    func() int
	log        logrus.FieldLogger
	metrics    *Metrics

	buf  []E
	used int64
	read int
	runs []string
}

// build consumes the whole input. When nothing had to be spilled the sorted
// records are returned in memory and no run file exists; otherwise every
// record, including the final partial buffer, is in one of the returned runs.
func (b *runBuilder[E]) build(ctx context.Context) ([]E, []string, error) {
	rc, err := b.input.Open()
	if err != nil {
		return nil, nil, newSourceError(err, "open", b.input.Name())
	}
	defer rc.Close()

	lines, err := newLineReader(rc, b.fileBuffer)
	if err != nil {
		return nil, nil, newSourceError(err, "decompress", b.input.Name())
	}
	defer lines.Close()

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		text, err := lines.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, newSourceError(err, "read", b.input.Name())
		}
		rec, err := b.codec.Decode(text)
		if err != nil {
			return nil, nil, &ParseError{Source: b.input.Name(), Line: lines.line, Text: text, Cause: err}
		}
		b.read++
		b.metrics.recordRead()

		// spill before the budget would be exceeded, so a buffer never
		// outgrows the budget unless one record alone does
		if len(b.buf) > 0 && b.used+b.recordSize > b.bufferSize {
			if err := b.spill(); err != nil {
				return nil, nil, err
			}
		}
		b.buf = append(b.buf, rec)
		b.used += b.recordSize
	}

	if len(b.runs) == 0 {
		// everything fit in memory
		if err := sortRun(b.buf, b.less); err != nil {
			return nil, nil, err
		}
		return b.buf, nil, nil
	}
	if len(b.buf) > 0 {
		if err := b.spill(); err != nil {
			return nil, nil, err
		}
	}
	return nil, b.runs, nil
}

// spill sorts the buffer, writes it as the next run and empties the buffer.
func (b *runBuilder[E]) spill() error {
	if err := sortRun(b.buf, b.less); err != nil {
		return err
	}
	index := b.nextRun()
	w, err := b.store.Create(index)
	if err != nil {
		return newStorageError(err, "create run", tempfile.RunName(b.store.Dir(), b.input.Name(), index))
	}
	b.runs = append(b.runs, w.Name())
	b.metrics.runSpilled()

	for _, rec := range b.buf {
		line, err := encodeLine(b.codec, rec)
		if err != nil {
			w.Close()
			return err
		}
		if err := w.WriteLine(line); err != nil {
			w.Close()
			return newStorageError(err, "write run", w.Name())
		}
	}
	if err := w.Close(); err != nil {
		return newStorageError(err, "close run", w.Name())
	}
	b.log.WithFields(logrus.Fields{
		"run":     w.Name(),
		"records": w.Lines(),
	}).Debug("spilled run")

	clear(b.buf)
	b.buf = b.buf[:0]
	b.used = 0
	return nil
}

// sortRun sorts records in place. sort.Slice is not stable, which the merge
// does not need. A panic in less is returned as a *ComparisonError.
func sortRun[E any](records []E, less LessFunc[E]) (err error) {
	defer recoverComparison(&err, "sortRun")
	sort.Slice(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
	return nil
}

var errMultiLine = errors.New("encoded record contains a newline")
var errBlankLine = errors.New("encoded record is blank")

// encodeLine encodes rec and checks that it round-trips as a single line.
func encodeLine[E any](codec Codec[E], rec E) (string, error) {
	line, err := codec.Encode(rec)
	if err != nil {
		return "", &SerializationError{Cause: err, Context: "Encode"}
	}
	if strings.ContainsAny(line, "\r\n") {
		return "", &SerializationError{Cause: fmt.Errorf("%w: %q", errMultiLine, line), Context: "Encode"}
	}
	if isBlank(line) {
		return "", &SerializationError{Cause: errBlankLine, Context: "Encode"}
	}
	return line, nil
}
