package events

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

func TestHubDeliversInOrder(t *testing.T) {
	rec := &Recorder{}
	hub := NewHub(rec, 4)

	for i := 0; i < 50; i++ {
		hub.Logf(LevelInfo, "line %d", i)
	}
	hub.Close()

	logs := rec.Logs()
	require.Len(t, logs, 50)
	for i, l := range logs {
		assert.Equal(t, fmt.Sprintf("line %d", i), l.Message)
	}
}

func TestHubConcurrentWriters(t *testing.T) {
	rec := &Recorder{}
	hub := NewHub(rec, 8)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			r := hub.ForTask(fmt.Sprintf("task%d", w))
			for i := 0; i <= 100; i += 10 {
				r.Progress("work", i, "")
			}
			r.Logf(LevelSuccess, "finished")
		}(w)
	}
	wg.Wait()
	hub.Close()

	assert.Len(t, rec.LogsAt(LevelSuccess), 8)
	assert.Len(t, rec.Statuses(), 8*11)
	assert.Contains(t, rec.LogsAt(LevelSuccess), "[task3] finished")
}

func TestHubProgressIsMonotonic(t *testing.T) {
	rec := &Recorder{}
	hub := NewHub(rec, 0)
	r := hub.ForTask("clean")

	r.Progress("scan", 40, "")
	r.Progress("scan", 20, "")
	r.Progress("scan", 250, "")
	hub.Status(StatusUpdate{Key: "other", Status: tasks.StatusPending, Progress: -5})
	hub.Close()

	got := rec.StatusesFor("clean")
	require.Len(t, got, 3)
	assert.Equal(t, 40, got[0].Progress)
	assert.Equal(t, 40, got[1].Progress)
	assert.Equal(t, 100, got[2].Progress)
	assert.Equal(t, 0, rec.StatusesFor("other")[0].Progress)
}

func TestHubTerminalStatusIsComplete(t *testing.T) {
	rec := &Recorder{}
	hub := NewHub(rec, 0)
	hub.Status(StatusUpdate{Key: "a", Status: tasks.StatusFail, Progress: 10})
	hub.Close()
	assert.Equal(t, 100, rec.StatusesFor("a")[0].Progress)
}

func TestHubSendAfterCloseIsIgnored(t *testing.T) {
	rec := &Recorder{}
	hub := NewHub(rec, 0)
	hub.Overall(1, 2)
	hub.Close()
	hub.Close()

	assert.NotPanics(t, func() {
		hub.Log(LevelError, "late")
		hub.Overall(2, 2)
	})
	assert.Empty(t, rec.Logs())
	assert.Equal(t, [][2]int{{1, 2}}, rec.OverallUpdates())
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, b}
	m.Log(LevelWarning, "w")
	m.TaskStatus(StatusUpdate{Key: "k"})
	m.Overall(1, 1)
	for _, r := range []*Recorder{a, b} {
		assert.Equal(t, []string{"w"}, r.LogsAt(LevelWarning))
		assert.Len(t, r.Statuses(), 1)
		assert.Len(t, r.OverallUpdates(), 1)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleSink(&buf)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }

	c.Log(LevelError, "boom")
	c.TaskStatus(StatusUpdate{Key: "vlc", Status: tasks.StatusRunning, Phase: "download", Progress: 50})
	c.TaskStatus(StatusUpdate{Key: "vlc", Status: tasks.StatusFail, Text: "installer not found"})
	c.Overall(1, 4)

	want := "[09:30:00] [ERROR] boom\n" +
		"[09:30:00] failed vlc: installer not found\n" +
		"[09:30:00] progress 1/4 (25%)\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	c.Verbose = true
	c.TaskStatus(StatusUpdate{Key: "vlc", Status: tasks.StatusRunning, Phase: "download", Progress: 50, Text: "1 MB"})
	assert.Equal(t, "[09:30:00] vlc  50% download 1 MB\n", buf.String())
}
