package kwaysort_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/lanrat/kwaysort"
	"github.com/stretchr/testify/require"
)

// intSize is the buffer cost of one int record
const intSize = 8

// writeInput writes one line per value to dir/name and returns the path.
func writeInput(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func intLines(values []int) []string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = strconv.Itoa(v)
	}
	return lines
}

func parseInts(t *testing.T, out *bytes.Buffer) []int {
	t.Helper()
	var values []int
	for v, err := range kwaysort.Scan(bytes.NewReader(out.Bytes()), kwaysort.Int[int]()) {
		require.NoError(t, err)
		values = append(values, v)
	}
	return values
}

// listDir returns the names of the entries of dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// runFiles returns the run files of input base name found in dir.
func runFiles(t *testing.T, dir, base string) []string {
	t.Helper()
	var runs []string
	for _, name := range listDir(t, dir) {
		index, ok := strings.CutPrefix(name, base+".")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(index); err == nil {
			runs = append(runs, name)
		}
	}
	return runs
}

func collect[E any](t *testing.T, s *kwaysort.Sorter[E]) []E {
	t.Helper()
	var out []E
	for v, err := range s.All(t.Context()) {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func newIntSorter(t *testing.T, path string, sink *bytes.Buffer, less kwaysort.LessFunc[int], config *kwaysort.Config) *kwaysort.Sorter[int] {
	t.Helper()
	var s *kwaysort.Sorter[int]
	var err error
	// a nil sink arrives as a typed nil, which discards the output
	if less == nil {
		s, err = kwaysort.Ordered(kwaysort.File(path), sink, kwaysort.Int[int](), config)
	} else {
		s, err = kwaysort.New(kwaysort.File(path), sink, kwaysort.Int[int](), less, config)
	}
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
