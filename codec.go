package kwaysort

import (
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// CodecFuncs adapts a pair of functions to the Codec interface.
type CodecFuncs[E any] struct {
	EncodeFunc func(E) (string, error)
	DecodeFunc func(string) (E, error)
}

// Encode calls c.EncodeFunc.
func (c CodecFuncs[E]) Encode(e E) (string, error) {
	return c.EncodeFunc(e)
}

// Decode calls c.DecodeFunc.
func (c CodecFuncs[E]) Decode(line string) (E, error) {
	return c.DecodeFunc(line)
}

type intCodec[T constraints.Signed] struct{}

// Int returns a Codec for signed integers written in base 10, one per line.
func Int[T constraints.Signed]() Codec[T] {
	return intCodec[T]{}
}

func (intCodec[T]) Encode(v T) (string, error) {
	return strconv.FormatInt(int64(v), 10), nil
}

func (intCodec[T]) Decode(line string) (T, error) {
	var zero T
	i, err := strconv.ParseInt(strings.TrimSpace(line), 10, bitSize(zero))
	return T(i), err
}

type uintCodec[T constraints.Unsigned] struct{}

// Uint returns a Codec for unsigned integers written in base 10, one per line.
func Uint[T constraints.Unsigned]() Codec[T] {
	return uintCodec[T]{}
}

func (uintCodec[T]) Encode(v T) (string, error) {
	return strconv.FormatUint(uint64(v), 10), nil
}

func (uintCodec[T]) Decode(line string) (T, error) {
	var zero T
	u, err := strconv.ParseUint(strings.TrimSpace(line), 10, bitSize(zero))
	return T(u), err
}

type floatCodec[T constraints.Float] struct{}

// Float returns a Codec for floating point numbers. Values are written with
// the shortest representation that round-trips.
func Float[T constraints.Float]() Codec[T] {
	return floatCodec[T]{}
}

func (floatCodec[T]) Encode(v T) (string, error) {
	return strconv.FormatFloat(float64(v), 'g', -1, bitSize(v)), nil
}

func (floatCodec[T]) Decode(line string) (T, error) {
	var zero T
	f, err := strconv.ParseFloat(strings.TrimSpace(line), bitSize(zero))
	return T(f), err
}

type stringCodec struct{}

// String returns a Codec that treats every line as one record.
func String() Codec[string] {
	return stringCodec{}
}

func (stringCodec) Encode(s string) (string, error) {
	return s, nil
}

func (stringCodec) Decode(line string) (string, error) {
	return line, nil
}

// Fields splits a line into its whitespace-delimited fields.
// Structured record codecs decode the fields in declaration order.
func Fields(line string) []string {
	return strings.Fields(line)
}

// bitSize returns the width in bits of the numeric type of v.
func bitSize[T constraints.Integer | constraints.Float](v T) int {
	return int(unsafe.Sizeof(v)) * 8
}
