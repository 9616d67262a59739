package kwaysort

import (
	"io"

	"github.com/lanrat/kwaysort/tempfile"
	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the default in-memory budget of a run, in bytes.
const DefaultBufferSize = 1000000

// Config holds configuration settings for a Sorter
type Config struct {
	// BufferSize is the approximate number of bytes of records buffered before a run is spilled to disk
	BufferSize int64 `yaml:"buffer_size"`
	// RecordSize is the per-record cost used for the buffer accounting, 0 uses the in-memory size of the record type
	RecordSize int `yaml:"record_size"`
	// TempFilesDir is the run file directory, empty uses the directory of the input
	TempFilesDir string `yaml:"temp_dir"`
	// Compression is applied to run files
	Compression tempfile.Compression `yaml:"compression"`
	// FileBufferSize is the IO buffer size for each run file and the sink
	FileBufferSize int `yaml:"file_buffer_size"`
	// Logger receives pass progress, nil discards it
	Logger logrus.FieldLogger `yaml:"-"`
	// Metrics is updated by every pass when not nil
	Metrics *Metrics `yaml:"-"`
}

// DefaultConfig returns the default configuration options used if none provided
func DefaultConfig() *Config {
	return &Config{
		BufferSize:     DefaultBufferSize,
		RecordSize:     0,
		TempFilesDir:   "",
		Compression:    tempfile.None,
		FileBufferSize: 1 << 16, // 64k
		Logger:         discardLogger(),
	}
}

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return &ConfigError{Field: "BufferSize", Value: c.BufferSize, Reason: "must not be negative"}
	}
	if c.RecordSize < 0 {
		return &ConfigError{Field: "RecordSize", Value: c.RecordSize, Reason: "must not be negative"}
	}
	if c.FileBufferSize < 0 {
		return &ConfigError{Field: "FileBufferSize", Value: c.FileBufferSize, Reason: "must not be negative"}
	}
	if c.Compression > tempfile.LZ4 {
		return &ConfigError{Field: "Compression", Value: c.Compression, Reason: "unknown compression"}
	}
	return nil
}

// mergeConfig takes a provided config and replaces any values not set with the defaults.
// The provided config is not modified.
func mergeConfig(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	m := *c
	if m.BufferSize == 0 {
		m.BufferSize = d.BufferSize
	}
	if m.FileBufferSize == 0 {
		m.FileBufferSize = d.FileBufferSize
	}
	if m.Logger == nil {
		m.Logger = d.Logger
	}
	// skipping TempFilesDir as it is the empty string
	return &m
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
