package kwaysort

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when the input cannot be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")
	// ErrTempStorageUnavailable is returned when a run file cannot be created, written or opened.
	ErrTempStorageUnavailable = errors.New("temp storage unavailable")
	// ErrSinkWrite is returned when the output sink rejects a write.
	ErrSinkWrite = errors.New("sink write error")
	// ErrPassActive is returned when a pass is started while another one is still active.
	ErrPassActive = errors.New("sort pass already active")
	// ErrNoOrdering is returned when no LessFunc is given and the record type has no natural ordering.
	ErrNoOrdering = errors.New("record type has no natural ordering and no LessFunc was given")
	// ErrClosed is returned when a pass is started on a closed Sorter.
	ErrClosed = errors.New("sorter closed")
)

// ParseError represents a line that could not be decoded into a record.
type ParseError struct {
	// Source is the name of the input or run file the line was read from
	Source string
	// Line is the 1-based line number within Source
	Line int
	// Text is the offending line
	Text string
	// Cause is the error returned by the codec
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s line %d (%q): %v", e.Source, e.Line, e.Text, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is makes every ParseError match ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// SerializationError represents a record that could not be encoded to a single line.
type SerializationError struct {
	// Cause is the codec error, or a description of the invalid encoding
	Cause error
	// Context provides additional information about what was being serialized
	Context string
}

func (e *SerializationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("serialization error in %s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("serialization error: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// ComparisonError represents a panic raised by the ordering while sorting a run.
type ComparisonError struct {
	// Cause is the recovered panic value
	Cause interface{}
	// Context provides additional information about when the comparison failed
	Context string
}

func (e *ComparisonError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("comparison panic in %s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("comparison panic: %v", e.Cause)
}

func (e *ComparisonError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value interface{}
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

// newStorageError wraps a run file failure so it matches ErrTempStorageUnavailable.
func newStorageError(err error, operation, path string) error {
	if path != "" {
		return fmt.Errorf("%w: %s %s: %w", ErrTempStorageUnavailable, operation, path, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTempStorageUnavailable, operation, err)
}

// newSourceError wraps an input failure so it matches ErrSourceUnavailable.
func newSourceError(err error, operation, name string) error {
	return fmt.Errorf("%w: %s %s: %w", ErrSourceUnavailable, operation, name, err)
}

// newSinkError wraps a sink failure so it matches ErrSinkWrite.
func newSinkError(err error) error {
	return fmt.Errorf("%w: %w", ErrSinkWrite, err)
}
