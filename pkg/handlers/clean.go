package handlers

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
)

// Replaced in tests to simulate locked files.
var (
	osRemove    = os.Remove
	osRemoveAll = os.RemoveAll
)

// CleanStats summarizes a temp cleanup.
type CleanStats struct {
	Removed int
	Bytes   int64
	Failed  int
}

// DefaultTempDirs returns TEMP, TMP and the system temp directory with
// duplicates removed.
func DefaultTempDirs() []string {
	var dirs []string
	for _, env := range []string{"TEMP", "TMP"} {
		if v := os.Getenv(env); v != "" {
			dirs = append(dirs, v)
		}
	}
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		dirs = append(dirs, filepath.Join(root, "Temp"))
	} else if len(dirs) == 0 {
		dirs = append(dirs, os.TempDir())
	}
	return dedupeDirs(dirs)
}

func dedupeDirs(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	var out []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		k := filepath.Clean(d)
		if runtime.GOOS == "windows" {
			k = strings.ToLower(k)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, filepath.Clean(d))
	}
	return out
}

func (s *Set) cleanTemp(rep Reporter) (string, error) {
	dirs := s.TempDirs
	if len(dirs) == 0 {
		dirs = DefaultTempDirs()
	} else {
		dirs = dedupeDirs(dirs)
	}

	stats := CleanTemp(dirs, rep)
	summary := fmt.Sprintf("removed %d items (%s)", stats.Removed, progress.FormatBytes(stats.Bytes))
	if stats.Failed > 0 {
		summary += fmt.Sprintf(", %d in use and skipped", stats.Failed)
	}
	return summary, nil
}

// CleanTemp deletes every top-level entry of each directory. Entries that
// cannot be removed are reported as warnings and counted; they never fail
// the cleanup.
func CleanTemp(dirs []string, rep Reporter) CleanStats {
	if rep == nil {
		rep = nopReporter{}
	}
	var stats CleanStats
	for i, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			rep.Logf(events.LevelWarning, "Cannot read %s: %v", dir, err)
			rep.Progress("clean", (i+1)*100/len(dirs), dir)
			continue
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			size := entrySize(p, e)
			var err error
			if e.IsDir() {
				err = osRemoveAll(p)
			} else {
				err = osRemove(p)
			}
			if err != nil {
				stats.Failed++
				rep.Logf(events.LevelWarning, "Could not remove %s: %v", p, err)
				continue
			}
			stats.Removed++
			stats.Bytes += size
		}
		rep.Progress("clean", (i+1)*100/len(dirs), dir)
	}
	rep.Logf(events.LevelInfo, "Temp cleanup removed %d items, %d skipped", stats.Removed, stats.Failed)
	return stats
}

func entrySize(p string, e fs.DirEntry) int64 {
	if !e.IsDir() {
		if info, err := e.Info(); err == nil {
			return info.Size()
		}
		return 0
	}
	var total int64
	_ = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
