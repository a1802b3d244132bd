package logging

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

const runDirLayout = "2006-01-02-150405"

// pruneRunDirs removes run directories beyond the retention policy. The
// directory of the current run is never removed. Failures are ignored.
func pruneRunDirs(baseDir string, policy RetentionPolicy, now time.Time, keep string) []string {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil
	}

	type runDir struct {
		name string
		at   time.Time
	}
	var runs []runDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		at, err := time.ParseInLocation(runDirLayout, e.Name(), time.Local)
		if err != nil {
			continue
		}
		runs = append(runs, runDir{name: e.Name(), at: at})
	}

	// Newest first.
	sort.Slice(runs, func(i, j int) bool { return runs[i].at.After(runs[j].at) })

	maxAge := time.Duration(policy.MaxAgeDays) * 24 * time.Hour
	var removed []string
	for i, r := range runs {
		if r.name == keep {
			continue
		}
		tooMany := policy.KeepRuns > 0 && i >= policy.KeepRuns
		tooOld := policy.MaxAgeDays > 0 && now.Sub(r.at) > maxAge
		if !tooMany && !tooOld {
			continue
		}
		if err := os.RemoveAll(filepath.Join(baseDir, r.name)); err == nil {
			removed = append(removed, r.name)
		}
	}
	return removed
}
