package kwaysort_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/lanrat/kwaysort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceUnavailable(t *testing.T) {
	dir := t.TempDir()
	s := newIntSorter(t, filepath.Join(dir, "missing.txt"), nil, nil, nil)

	err := s.Sort(t.Context())
	require.ErrorIs(t, err, kwaysort.ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// the failed pass released the sorter
	it, err := s.Iter(t.Context())
	require.NoError(t, err)
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), kwaysort.ErrSourceUnavailable)
}

type failingReader struct {
	data []byte
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, errors.New("disk on fire")
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func (f *failingReader) Close() error { return nil }

func TestSourceReadFailure(t *testing.T) {
	dir := t.TempDir()
	input := kwaysort.Func("flaky", func() (io.ReadCloser, error) {
		return &failingReader{data: []byte("3\n2\n1\n")}, nil
	})
	var out bytes.Buffer
	s, err := kwaysort.Ordered(input, &out, kwaysort.Int[int](), &kwaysort.Config{BufferSize: intSize, TempFilesDir: dir})
	require.NoError(t, err)

	err = s.Sort(t.Context())
	require.ErrorIs(t, err, kwaysort.ErrSourceUnavailable)
	assert.Zero(t, out.Len(), "partial output delivered")
	assert.Empty(t, listDir(t, dir))
}

func TestParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", []string{"4", "3", "", "2", "two", "1"})
	var out bytes.Buffer
	s := newIntSorter(t, path, &out, nil, &kwaysort.Config{BufferSize: intSize})

	err := s.Sort(t.Context())
	require.ErrorIs(t, err, kwaysort.ErrParse)
	var pe *kwaysort.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.Source)
	assert.Equal(t, 5, pe.Line)
	assert.Equal(t, "two", pe.Text)
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	assert.Zero(t, out.Len(), "partial output delivered")
	assert.Equal(t, []string{"input.txt"}, listDir(t, dir), "run files left behind")
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("sink full")
	}
	w.after--
	return len(p), nil
}

func TestSinkWriteError(t *testing.T) {
	values := make([]int, 5000)
	for i := range values {
		values[i] = len(values) - i
	}
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines(values))
	s, err := kwaysort.Ordered(kwaysort.File(path), &failingWriter{after: 1}, kwaysort.Int[int](),
		&kwaysort.Config{BufferSize: 500 * intSize, FileBufferSize: 64})
	require.NoError(t, err)

	err = s.Sort(t.Context())
	require.ErrorIs(t, err, kwaysort.ErrSinkWrite)
	assert.Equal(t, []string{"input.txt"}, listDir(t, dir), "run files left behind")
}

func TestTempStorageUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines([]int{3, 2, 1}))
	// a regular file where the run directory should be
	blocker := writeInput(t, dir, "blocker", nil)
	s := newIntSorter(t, path, nil, nil, &kwaysort.Config{BufferSize: intSize, TempFilesDir: blocker})

	err := s.Sort(t.Context())
	require.ErrorIs(t, err, kwaysort.ErrTempStorageUnavailable)

	// fits in memory, no temp storage needed
	s.SetBufferSize(kwaysort.DefaultBufferSize)
	require.NoError(t, s.Sort(t.Context()))
}

func TestRunNameCollision(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines([]int{3, 2, 1}))
	foreign := writeInput(t, dir, "input.1", []string{"not ours"})
	s := newIntSorter(t, path, nil, nil, &kwaysort.Config{BufferSize: intSize})

	err := s.Sort(t.Context())
	require.ErrorIs(t, err, kwaysort.ErrTempStorageUnavailable)
	data, err := os.ReadFile(foreign)
	require.NoError(t, err)
	assert.Equal(t, "not ours\n", string(data))
	assert.ElementsMatch(t, []string{"input.txt", "input.1"}, listDir(t, dir))
}

func TestSerializationError(t *testing.T) {
	codec := kwaysort.CodecFuncs[string]{
		EncodeFunc: func(s string) (string, error) { return s + "\nmore", nil },
		DecodeFunc: func(s string) (string, error) { return s, nil },
	}
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", []string{"b", "a"})

	s, err := kwaysort.Ordered[string](kwaysort.File(path), nil, codec, &kwaysort.Config{BufferSize: 1})
	require.NoError(t, err)
	err = s.Sort(t.Context())
	var se *kwaysort.SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"input.txt"}, listDir(t, dir))
}

func TestComparisonPanic(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines([]int{3, 2, 1}))
	s := newIntSorter(t, path, nil, func(a, b int) bool { panic("boom") }, nil)

	err := s.Sort(t.Context())
	var ce *kwaysort.ComparisonError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "boom", ce.Cause)

	// single record runs only compare while merging
	s.SetBufferSize(intSize)
	err = s.Sort(t.Context())
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "merge", ce.Context)
	assert.Equal(t, []string{"input.txt"}, listDir(t, dir))
}

func TestNoOrdering(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines([]int{1}))
	_, err := kwaysort.New(kwaysort.File(path), nil, kwaysort.Int[int](), nil, nil)
	assert.ErrorIs(t, err, kwaysort.ErrNoOrdering)

	s := newIntSorter(t, path, nil, descending, nil)
	assert.ErrorIs(t, s.SetComparator(nil), kwaysort.ErrNoOrdering)

	s = newIntSorter(t, path, nil, nil, nil)
	require.NoError(t, s.SetComparator(descending))
	assert.NoError(t, s.SetComparator(nil), "Ordered sorters fall back to cmp.Less")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines([]int{1}))
	_, err := kwaysort.Ordered(kwaysort.File(path), nil, kwaysort.Int[int](), &kwaysort.Config{BufferSize: -1})
	var ce *kwaysort.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "BufferSize", ce.Field)

	_, err = kwaysort.Ordered[int](nil, nil, kwaysort.Int[int](), nil)
	require.ErrorAs(t, err, &ce)
	_, err = kwaysort.Ordered[int](kwaysort.File(path), nil, nil, nil)
	require.ErrorAs(t, err, &ce)
}

func TestConfigNotModified(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "input.txt", intLines([]int{1}))
	config := &kwaysort.Config{}
	newIntSorter(t, path, nil, nil, config)
	assert.Equal(t, &kwaysort.Config{}, config)
}
