package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
}

func TestLoggerWritesAllFormats(t *testing.T) {
	base := t.TempDir()
	var console bytes.Buffer

	l, err := New(Options{BaseDir: base, Level: LevelInfo, Console: &console, Structured: true})
	require.NoError(t, err)

	l.Log(LevelInfo, "task started", "task", "vlc")
	l.Log(LevelDebug, "hidden")
	l.Log(LevelError, "task failed", "task", "vlc", "code", 1603)
	l.Close()

	main, err := os.ReadFile(filepath.Join(l.Dir(), "toolkit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "INFO  task started task=vlc")
	assert.Contains(t, string(main), "ERROR task failed task=vlc code=1603")
	assert.NotContains(t, string(main), "hidden")
	assert.Equal(t, string(main), console.String())

	events, err := os.ReadFile(filepath.Join(l.Dir(), "events.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(events)), "\n")
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, l.SessionID(), entry.SessionID)
	assert.EqualValues(t, 1603, entry.Properties["code"])

	yml, err := os.ReadFile(filepath.Join(l.Dir(), "session.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(yml), "---\n"))
}

func TestFormatLineMultiline(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	line := formatLine(ts, LevelWarn, "msg", []interface{}{"a", 1, "b", 2, "c", 3, "d", 4, "e", 5})
	assert.True(t, strings.HasPrefix(line, "[2024-05-01 10:00:00] WARN  msg\n        a: 1"))
	assert.Equal(t, 5, strings.Count(line, "\n"))
}

func TestWriteArtifact(t *testing.T) {
	l, err := New(Options{BaseDir: t.TempDir()})
	require.NoError(t, err)
	defer l.Close()

	path, err := l.WriteArtifact("report.json", map[string]int{"ok": 3})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":3}`, string(data))
}

func TestPruneRunDirs(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.Local)
	names := []string{
		now.Add(-1 * time.Hour).Format(runDirLayout),
		now.Add(-2 * time.Hour).Format(runDirLayout),
		now.Add(-3 * time.Hour).Format(runDirLayout),
		now.Add(-60 * 24 * time.Hour).Format(runDirLayout),
		"not-a-run",
	}
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(base, n), 0755))
	}

	removed := pruneRunDirs(base, RetentionPolicy{KeepRuns: 2, MaxAgeDays: 30}, now, names[0])
	assert.ElementsMatch(t, []string{names[2], names[3]}, removed)

	assert.DirExists(t, filepath.Join(base, names[0]))
	assert.DirExists(t, filepath.Join(base, names[1]))
	assert.DirExists(t, filepath.Join(base, "not-a-run"))
}

func TestPackageFunctionsWithoutInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("before init")
		Warn("before init")
	})
	assert.Equal(t, "", CurrentLogDir())
	_, err := WriteArtifact("x.json", 1)
	assert.Error(t, err)
}
