// Package kwaysort implements a bounded-memory external merge sort for
// streams of text records.
//
// A pass reads the input into a buffer limited by Config.BufferSize, spills
// every full buffer as a sorted run file and finally merges all runs through
// a k-way merge frontier. Inputs that fit in the buffer are sorted in memory
// without touching the disk. The sort is NOT stable.
//
// The engine is synchronous: it never starts goroutines. Output is either
// pushed to a sink (Sort) or pulled one record at a time (Iter, All).
package kwaysort

import (
	"bufio"
	"cmp"
	"context"
	"io"
	"iter"
	"reflect"
	"time"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"github.com/lanrat/kwaysort/tempfile"
	"github.com/sirupsen/logrus"
)

// state of the pass owned by a Sorter
type state int

const (
	stateIdle state = iota
	stateDividing
	stateMerging
	stateDraining
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateDividing:
		return "dividing"
	case stateMerging:
		return "merging"
	case stateDraining:
		return "draining"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

const (
	modeEager = "eager"
	modeLazy  = "lazy"
)

// PassStats describes the last finished, or the currently active, pass.
type PassStats struct {
	// RecordsRead is the number of records decoded from the input
	RecordsRead int
	// RecordsEmitted is the number of records delivered to the sink or iterator
	RecordsEmitted int
	// Runs is the number of run files written
	Runs int
	// InMemory is true when the input fit in the buffer and no run file was written
	InMemory bool
}

// Sorter sorts the records of an Input. Every call to Sort, Iter or All is
// one pass over the whole input; only one pass may be active at a time.
// A Sorter is not safe for concurrent use.
type Sorter[E any] struct {
	input   Input
	sink    io.Writer
	codec   Codec[E]
	less    LessFunc[E]
	natural LessFunc[E]
	config  Config

	// run file index, never reset so repeated passes never reuse a name
	runCounter int
	state      state
	active     *pass[E]
	stats      PassStats
	closed     bool
}

// pass holds everything acquired by one sort pass
type pass[E any] struct {
	mode     string
	start    time.Time
	less     LessFunc[E]
	config   Config
	store    *tempfile.RunStore
	memory   []E
	merger   *merger[E]
	stats    PassStats
	released bool
}

// New returns a Sorter for input.
// sink receives the output of Sort and may be nil, or a typed nil, to discard it.
// less may be nil to use the natural ordering of E, which then must
// implement Lesser[E].
// config can be nil to use the defaults, or only set the non-default values desired.
func New[E any](input Input, sink io.Writer, codec Codec[E], less LessFunc[E], config *Config) (*Sorter[E], error) {
	if input == nil {
		return nil, &ConfigError{Field: "input", Value: nil, Reason: "must not be nil"}
	}
	if codec == nil {
		return nil, &ConfigError{Field: "codec", Value: nil, Reason: "must not be nil"}
	}
	c := mergeConfig(config)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &Sorter[E]{
		input:   input,
		sink:    sink,
		codec:   codec,
		natural: naturalLess[E](),
		config:  *c,
	}
	if err := s.SetComparator(less); err != nil {
		return nil, err
	}
	return s, nil
}

// Ordered returns a Sorter for cmp.Ordered records using their natural order.
func Ordered[T cmp.Ordered](input Input, sink io.Writer, codec Codec[T], config *Config) (*Sorter[T], error) {
	s, err := New(input, sink, codec, cmp.Less[T], config)
	if err != nil {
		return nil, err
	}
	s.natural = cmp.Less[T]
	return s, nil
}

// SetComparator replaces the ordering used by subsequent passes; an active
// pass keeps the ordering it started with. nil restores the natural ordering.
func (s *Sorter[E]) SetComparator(less LessFunc[E]) error {
	if less == nil {
		less = s.natural
	}
	if less == nil {
		return ErrNoOrdering
	}
	s.less = less
	return nil
}

// SetBufferSize changes the buffer budget of subsequent passes.
// A value <= 0 restores DefaultBufferSize.
func (s *Sorter[E]) SetBufferSize(bufferSize int64) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	s.config.BufferSize = bufferSize
}

// SetSink replaces the sink used by subsequent calls to Sort. A nil sink,
// typed or not, discards the output.
func (s *Sorter[E]) SetSink(sink io.Writer) {
	s.sink = sink
}

// Stats returns the statistics of the active pass, or of the last finished one.
func (s *Sorter[E]) Stats() PassStats {
	if s.active != nil {
		return s.active.stats
	}
	return s.stats
}

// Sort runs a complete pass and writes every record, one per line, to the sink.
// Input errors are reported before anything is written to the sink.
func (s *Sorter[E]) Sort(ctx context.Context) error {
	it, err := s.iterate(ctx, modeEager)
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(sinkOrDiscard(s.sink), s.config.FileBufferSize)
	for it.Next() {
		line, err := encodeLine(s.codec, it.Value())
		if err != nil {
			return it.abort(err)
		}
		if _, err := w.WriteString(line); err != nil {
			return it.abort(newSinkError(err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return it.abort(newSinkError(err))
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return newSinkError(err)
	}
	return nil
}

// Iter starts a lazy pass. The input is read and divided on the first call
// to Next; every further call performs a single merge step.
// The iterator must be exhausted or closed to end the pass.
func (s *Sorter[E]) Iter(ctx context.Context) (*Iterator[E], error) {
	return s.iterate(ctx, modeLazy)
}

// All returns the sorted records as a range-over-func sequence. Breaking out
// of the loop ends the pass and deletes its run files. An error ends the
// sequence and is yielded with the zero record.
func (s *Sorter[E]) All(ctx context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E
		it, err := s.Iter(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		defer it.Close()
		for it.Next() {
			if !yield(it.Value(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Close aborts the active pass, if any, deleting all of its run files, and
// rejects further passes with ErrClosed. Closing twice is a no-op.
func (s *Sorter[E]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.active == nil {
		return nil
	}
	return s.release(s.active, "abandoned", ErrClosed)
}

// sinkOrDiscard returns io.Discard for a nil sink, including a typed nil
// such as a nil *bytes.Buffer.
func sinkOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	switch v := reflect.ValueOf(w); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			return io.Discard
		}
	}
	return w
}

// iterate acquires the Sorter for a new pass.
func (s *Sorter[E]) iterate(ctx context.Context, mode string) (*Iterator[E], error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.state != stateIdle {
		return nil, ErrPassActive
	}
	if ctx == nil {
		ctx = context.Background()
	}
	dir := s.config.TempFilesDir
	if dir == "" {
		dir = s.input.Dir()
	}
	if dir == "" {
		dir = tempfile.GetTempDir("")
	}
	p := &pass[E]{
		mode:   mode,
		start:  time.Now(),
		less:   s.less,
		config: s.config,
		store:  tempfile.NewRunStore(dir, s.input.Name(), s.config.Compression, s.config.FileBufferSize),
	}
	s.active = p
	s.state = stateDividing
	return &Iterator[E]{s: s, p: p, ctx: ctx}, nil
}

// divide runs the divide phase of p and prepares its output phase.
func (s *Sorter[E]) divide(ctx context.Context, p *pass[E]) error {
	recordSize := int64(p.config.RecordSize)
	if recordSize == 0 {
		var zero E
		recordSize = int64(unsafe.Sizeof(zero))
	}
	if recordSize == 0 {
		recordSize = 1
	}
	b := &runBuilder[E]{
		input:      s.input,
		codec:      s.codec,
		less:       p.less,
		store:      p.store,
		bufferSize: p.config.BufferSize,
		recordSize: recordSize,
		fileBuffer: p.config.FileBufferSize,
		nextRun:    s.nextRun,
		log:        p.config.Logger,
		metrics:    p.config.Metrics,
	}
	memory, runs, err := b.build(ctx)
	p.stats.RecordsRead = b.read
	p.stats.Runs = len(b.runs)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		p.memory = memory
		p.stats.InMemory = true
		s.state = stateDraining
		return nil
	}

	p.config.Logger.WithFields(logrus.Fields{
		"input": s.input.Name(),
		"runs":  len(runs),
	}).Debug("merging runs")
	p.merger, err = newMerger(p.store, runs, p.less, s.codec)
	if err != nil {
		return err
	}
	s.state = stateMerging
	return nil
}

// next returns the next record of p in sorted order.
func (s *Sorter[E]) next(p *pass[E]) (rec E, ok bool, err error) {
	switch s.state {
	case stateDraining:
		if len(p.memory) == 0 {
			return rec, false, nil
		}
		rec = p.memory[0]
		var zero E
		p.memory[0] = zero
		p.memory = p.memory[1:]
		return rec, true, nil
	case stateMerging:
		return p.merger.next()
	default:
		return rec, false, nil
	}
}

func (s *Sorter[E]) nextRun() int {
	i := s.runCounter
	s.runCounter++
	return i
}

// release ends pass p: it closes every run reader, deletes every run file
// and returns the Sorter to idle. Releasing twice is a no-op.
func (s *Sorter[E]) release(p *pass[E], status string, cause error) error {
	if p.released {
		return nil
	}
	p.released = true
	s.state = stateDone

	var result *multierror.Error
	if p.merger != nil {
		if err := p.merger.close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	p.memory = nil
	removed := p.store.Size()
	if err := p.store.RemoveAll(); err != nil {
		result = multierror.Append(result, newStorageError(err, "remove runs", p.store.Dir()))
	}
	p.config.Metrics.runsRemoved(removed)
	p.config.Metrics.passDone(p.mode, status, p.start)

	fields := logrus.Fields{
		"input":   s.input.Name(),
		"mode":    p.mode,
		"status":  status,
		"runs":    p.stats.Runs,
		"records": p.stats.RecordsEmitted,
		"took":    time.Since(p.start),
	}
	if cause != nil {
		p.config.Logger.WithFields(fields).WithError(cause).Warn("sort pass aborted")
	} else {
		p.config.Logger.WithFields(fields).Info("sort pass finished")
	}

	s.stats = p.stats
	s.active = nil
	s.state = stateIdle
	return result.ErrorOrNil()
}
