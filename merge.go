package kwaysort

import (
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/lanrat/kwaysort/queue"
	"github.com/lanrat/kwaysort/tempfile"
)

// cursor pairs an open run with the record at its head
type cursor[E any] struct {
	head   E
	reader *tempfile.RunReader
}

// merger merges sorted runs through a frontier holding one head per run.
// Each step costs O(log k) for k runs and only the k heads are resident.
type merger[E any] struct {
	codec    Codec[E]
	frontier *queue.PriorityQueue[*cursor[E]]
}

// newMerger opens every run and seeds the frontier with its first record.
// On error the readers opened so far stay registered with store, which
// closes them in RemoveAll.
func newMerger[E any](store *tempfile.RunStore, runs []string, less LessFunc[E], codec Codec[E]) (_ *merger[E], err error) {
	defer recoverComparison(&err, "merge")
	m := &merger[E]{
		codec: codec,
		frontier: queue.NewPriorityQueue(func(a, b *cursor[E]) bool {
			return less(a.head, b.head)
		}, len(runs)),
	}
	for _, name := range runs {
		r, err := store.Open(name)
		if err != nil {
			return nil, newStorageError(err, "open run", name)
		}
		c := &cursor[E]{reader: r}
		ok, err := m.advance(c)
		if err != nil {
			return nil, err
		}
		if !ok {
			// empty run
			if err := r.Close(); err != nil {
				return nil, newStorageError(err, "close run", name)
			}
			continue
		}
		m.frontier.Push(c)
	}
	return m, nil
}

// recoverComparison turns a panic raised by the ordering into a
// *ComparisonError stored in err.
func recoverComparison(err *error, where string) {
	if r := recover(); r != nil {
		*err = &ComparisonError{Cause: r, Context: where}
	}
}

// advance loads the next record of c into c.head. It returns false once the
// run is exhausted.
func (m *merger[E]) advance(c *cursor[E]) (bool, error) {
	line, err := c.reader.ReadLine()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, newStorageError(err, "read run", c.reader.Name())
	}
	rec, err := m.codec.Decode(line)
	if err != nil {
		return false, &ParseError{Source: c.reader.Name(), Line: c.reader.Line(), Text: line, Cause: err}
	}
	c.head = rec
	return true, nil
}

// next performs one merge step: it returns the minimum head and replaces it
// with the following record of the same run. An exhausted run leaves the
// frontier for good and its reader is closed. ok is false once every run is
// exhausted.
func (m *merger[E]) next() (rec E, ok bool, err error) {
	defer recoverComparison(&err, "merge")
	if m.frontier.Len() == 0 {
		return rec, false, nil
	}
	c := m.frontier.Peek()
	rec = c.head
	more, err := m.advance(c)
	if err != nil {
		return rec, false, err
	}
	if more {
		m.frontier.Fix()
		return rec, true, nil
	}
	m.frontier.Pop()
	if err := c.reader.Close(); err != nil {
		return rec, false, newStorageError(err, "close run", c.reader.Name())
	}
	return rec, true, nil
}

// close closes the readers of every run still in the frontier.
func (m *merger[E]) close() error {
	var result *multierror.Error
	for _, c := range m.frontier.Drain() {
		if err := c.reader.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
