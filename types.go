package kwaysort

// LessFunc reports whether a must be ordered before b in the sorted output.
// It must describe a strict weak ordering. Records for which neither
// less(a, b) nor less(b, a) holds are equal; equal records are all kept but
// their relative order in the output is unspecified.
type LessFunc[E any] func(a, b E) bool

// Lesser is implemented by record types that carry a natural ordering.
// A Sorter created without a LessFunc uses it.
type Lesser[E any] interface {
	Less(other E) bool
}

// Codec converts records to and from their one-line text form.
// The same encoding is used for the input, for run files and for the sink,
// so Decode(Encode(r)) must return a record equal to r.
type Codec[E any] interface {
	// Encode returns the text form of the record. It must not contain a newline.
	Encode(E) (string, error)
	// Decode parses one line, without its trailing newline.
	Decode(line string) (E, error)
}

// naturalLess returns the Lesser based ordering for E, or nil if E does not
// implement Lesser[E].
func naturalLess[E any]() LessFunc[E] {
	var zero E
	if _, ok := any(zero).(Lesser[E]); !ok {
		return nil
	}
	return func(a, b E) bool {
		return any(a).(Lesser[E]).Less(b)
	}
}
