package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// subdirectory created under home or working directory fallbacks
const kwaysortTempDirName = ".kwaysort"

var (
	discoveredDir string
	discoverOnce  sync.Once
)

// GetTempDir returns dir when it is usable, otherwise a discovered directory
// suitable for run files. Runs can be large, so disk-backed locations such as
// /var/tmp are preferred over a possibly memory-backed /tmp.
// The discovery runs once per process.
func GetTempDir(dir string) string {
	if dir != "" && isDirectoryUsable(dir) {
		return dir
	}
	discoverOnce.Do(func() {
		discoveredDir = findBestDirectory(candidateDirs())
	})
	return discoveredDir
}

// candidateDirs lists run directory candidates in priority order.
func candidateDirs() []string {
	var candidates []string
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		candidates = append(candidates, "/var/tmp")
	case "darwin":
		candidates = append(candidates, "/var/tmp", "/private/var/tmp")
	}
	candidates = append(candidates, os.TempDir())
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, kwaysortTempDirName))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, kwaysortTempDirName))
	}
	return candidates
}

// findBestDirectory returns the first usable candidate, falling back to the
// OS default temp dir.
func findBestDirectory(candidates []string) string {
	for _, candidate := range candidates {
		if isDirectoryUsable(candidate) {
			return candidate
		}
	}
	return os.TempDir()
}

// isDirectoryUsable checks if a directory exists and is a directory, or can be created.
// Writability is not tested here, creating the first run file does that.
func isDirectoryUsable(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil {
		// missing directories are created by RunStore.Create
		return os.IsNotExist(err)
	}
	return stat.IsDir()
}
