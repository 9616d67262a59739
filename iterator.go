package kwaysort

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Iterator pulls the records of one lazy pass in sorted order.
//
//	it, err := sorter.Iter(ctx)
//	if err != nil {
//		return err
//	}
//	defer it.Close()
//	for it.Next() {
//		use(it.Value())
//	}
//	return it.Err()
//
// An Iterator is forward only and cannot be restarted. The pass ends, and
// all of its run files are deleted, when Next returns false, when Close is
// called, or when the owning Sorter is closed.
type Iterator[E any] struct {
	s       *Sorter[E]
	p       *pass[E]
	ctx     context.Context
	started bool
	done    bool
	cur     E
	err     error
}

// Next advances to the next record. The first call reads and divides the
// whole input; later calls each perform one merge step. It returns false
// when the records are exhausted or an error occurred, see Err.
func (it *Iterator[E]) Next() bool {
	if it.done {
		return false
	}
	if it.p.released {
		// the Sorter was closed underneath us
		it.done = true
		it.err = ErrClosed
		var zero E
		it.cur = zero
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.finish("error", err)
		return false
	}
	if !it.started {
		it.started = true
		if err := it.s.divide(it.ctx, it.p); err != nil {
			it.finish("error", err)
			return false
		}
	}
	rec, ok, err := it.s.next(it.p)
	if err != nil {
		it.finish("error", err)
		return false
	}
	if !ok {
		it.finish("success", nil)
		return false
	}
	it.cur = rec
	it.p.stats.RecordsEmitted++
	return true
}

// Value returns the record Next advanced to.
func (it *Iterator[E]) Value() E {
	return it.cur
}

// Err returns the error that ended the pass, nil after a clean exhaustion
// or an explicit Close.
func (it *Iterator[E]) Err() error {
	return it.err
}

// Close ends the pass early, closing every run reader and deleting every
// run file. It returns only cleanup errors. Closing an exhausted or already
// closed Iterator is a no-op.
func (it *Iterator[E]) Close() error {
	if it.done {
		return nil
	}
	it.done = true
	var zero E
	it.cur = zero
	return it.s.release(it.p, "abandoned", nil)
}

// finish ends the pass with cause, which may be nil.
func (it *Iterator[E]) finish(status string, cause error) {
	it.done = true
	var zero E
	it.cur = zero
	cleanupErr := it.s.release(it.p, status, cause)
	switch {
	case cause == nil:
		it.err = cleanupErr
	case cleanupErr == nil:
		it.err = cause
	default:
		it.err = multierror.Append(cause, cleanupErr)
	}
}

// abort ends the pass because of a failure outside the iterator, such as a
// sink write error, and returns the resulting error.
func (it *Iterator[E]) abort(cause error) error {
	if it.done {
		return cause
	}
	it.finish("error", cause)
	return it.err
}
