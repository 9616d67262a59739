package diff

import "fmt"

// Delta represents the type of difference found when comparing two sorted streams.
// It indicates whether a record is unique to the first stream (OLD) or second stream (NEW).
type Delta int

const (
	// NEW indicates a record that exists only in the second stream (B).
	NEW Delta = iota // +

	// OLD indicates a record that exists only in the first stream (A).
	OLD // -
)

// ResultFunc is called once for each record that appears in only one of the
// two streams. If it returns an error the diff stops and returns it.
type ResultFunc[T any] func(Delta, T) error

// LessFunc orders the records of both streams; it must be the ordering the
// streams were sorted with.
type LessFunc[T any] func(a, b T) bool

func (d Delta) String() string {
	switch d {
	case NEW:
		return ">"
	case OLD:
		return "<"
	default:
		return "?"
	}
}

// Result contains statistical information about the differences between two sorted streams.
type Result struct {
	// ExtraA is the count of records that exist only in stream A (OLD records)
	ExtraA uint64

	// ExtraB is the count of records that exist only in stream B (NEW records)
	ExtraB uint64

	// TotalA is the total count of records consumed from stream A
	TotalA uint64

	// TotalB is the total count of records consumed from stream B
	TotalB uint64

	// Common is the count of records that exist in both streams
	Common uint64
}

func (r *Result) String() string {
	return fmt.Sprintf("A: %d/%d\tB: %d/%d\tC: %d", r.ExtraA, r.TotalA, r.ExtraB, r.TotalB, r.Common)
}
