// Package diff compares two sorted record streams, such as the output of two
// sort passes, and reports the records found in only one of them.
package diff

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ErrNilArgument is returned when a stream, the ordering or the result
// function is nil.
var ErrNilArgument = errors.New("arguments must not be nil")

// stream pulls one sorted input of a diff
type stream[T any] struct {
	next func() (T, error, bool)
	stop func()
	head T
	ok   bool
}

func newStream[T any](seq iter.Seq2[T, error]) *stream[T] {
	next, stop := iter.Pull2(seq)
	return &stream[T]{next: next, stop: stop}
}

// advance loads the next record into head. ok reports false once the stream
// is exhausted.
func (s *stream[T]) advance() error {
	v, err, ok := s.next()
	if ok && err != nil {
		s.ok = false
		return err
	}
	s.head, s.ok = v, ok
	return nil
}

// Generic compares two streams sorted by less and calls resultFunc for every
// record present in only one of them, in sorted order. Records for which
// neither less(a, b) nor less(b, a) holds are common to both streams; each
// occurrence is matched at most once, so duplicates count as extra when one
// stream holds more of them.
//
// The streams are NOT checked for being sorted. The first error yielded by
// either stream, or returned by resultFunc, ends the diff.
func Generic[T any](ctx context.Context, a, b iter.Seq2[T, error], less LessFunc[T], resultFunc ResultFunc[T]) (r Result, err error) {
	if ctx == nil || a == nil || b == nil || less == nil || resultFunc == nil {
		return Result{}, ErrNilArgument
	}

	sa, sb := newStream(a), newStream(b)
	defer sa.stop()
	defer sb.stop()

	if err = sa.advance(); err != nil {
		return r, fmt.Errorf("stream A: %w", err)
	}
	if err = sb.advance(); err != nil {
		return r, fmt.Errorf("stream B: %w", err)
	}
	for sa.ok || sb.ok {
		if err = ctx.Err(); err != nil {
			return r, err
		}
		switch {
		case !sb.ok || (sa.ok && less(sa.head, sb.head)):
			r.TotalA++
			r.ExtraA++
			if err = resultFunc(OLD, sa.head); err != nil {
				return r, err
			}
			if err = sa.advance(); err != nil {
				return r, fmt.Errorf("stream A: %w", err)
			}
		case !sa.ok || less(sb.head, sa.head):
			r.TotalB++
			r.ExtraB++
			if err = resultFunc(NEW, sb.head); err != nil {
				return r, err
			}
			if err = sb.advance(); err != nil {
				return r, fmt.Errorf("stream B: %w", err)
			}
		default:
			// common
			r.Common++
			r.TotalA++
			r.TotalB++
			if err = sa.advance(); err != nil {
				return r, fmt.Errorf("stream A: %w", err)
			}
			if err = sb.advance(); err != nil {
				return r, fmt.Errorf("stream B: %w", err)
			}
		}
	}
	return r, nil
}

// Ordered compares two streams of cmp.Ordered records sorted in ascending order.
func Ordered[T cmp.Ordered](ctx context.Context, a, b iter.Seq2[T, error], resultFunc ResultFunc[T]) (Result, error) {
	return Generic(ctx, a, b, cmp.Less[T], resultFunc)
}

// Slice returns a stream over the records of a sorted slice, mostly useful in tests.
func Slice[T any](records []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range records {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Printer returns a ResultFunc writing each difference to w as the Delta
// symbol (< for OLD, > for NEW) followed by the record.
func Printer[T any](w io.Writer) ResultFunc[T] {
	return func(d Delta, v T) error {
		_, err := fmt.Fprintf(w, "%s %v\n", d, v)
		return err
	}
}
