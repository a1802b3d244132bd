// pkg/progress/statusfile.go - progress snapshot file for external status windows.

package progress

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/filelock"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// ItemProgress is the last known state of one task.
type ItemProgress struct {
	Key      string       `json:"key"`
	Status   tasks.Status `json:"status"`
	Phase    string       `json:"phase,omitempty"`
	Progress int          `json:"progress"`
	Text     string       `json:"text,omitempty"`
	Updated  time.Time    `json:"updated"`
}

// Snapshot is the document written to the status file.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	Started   time.Time      `json:"started"`
	Updated   time.Time      `json:"updated"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Overall   int            `json:"overall_progress"`
	LastLog   string         `json:"last_log,omitempty"`
	Items     []ItemProgress `json:"items"`
}

// FileSink keeps a Snapshot up to date on disk. A status window can poll
// the file without talking to the provisioning process.
type FileSink struct {
	mu    sync.Mutex
	path  string
	snap  Snapshot
	items map[string]*ItemProgress
	now   func() time.Time
}

// NewFileSink writes snapshots to path.
func NewFileSink(path, sessionID string) *FileSink {
	now := time.Now()
	return &FileSink{
		path:  path,
		snap:  Snapshot{SessionID: sessionID, Started: now},
		items: make(map[string]*ItemProgress),
		now:   time.Now,
	}
}

func (f *FileSink) Log(level events.Level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if level == events.LevelInfo {
		return
	}
	f.snap.LastLog = string(level) + ": " + message
	f.flush()
}

func (f *FileSink) TaskStatus(u events.StatusUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[u.Key]
	if !ok {
		item = &ItemProgress{Key: u.Key}
		f.items[u.Key] = item
	}
	item.Status = u.Status
	item.Phase = u.Phase
	item.Progress = u.Progress
	item.Text = u.Text
	item.Updated = f.now()
	f.flush()
}

func (f *FileSink) Overall(completed, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Completed = completed
	f.snap.Total = total
	if total > 0 {
		f.snap.Overall = completed * 100 / total
	}
	f.flush()
}

// Snapshot returns the current document.
func (f *FileSink) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.build()
}

func (f *FileSink) build() Snapshot {
	s := f.snap
	s.Updated = f.now()
	s.Items = make([]ItemProgress, 0, len(f.items))
	for _, it := range f.items {
		s.Items = append(s.Items, *it)
	}
	sort.Slice(s.Items, func(i, j int) bool { return s.Items[i].Key < s.Items[j].Key })
	return s
}

// flush rewrites the snapshot atomically.
// Write errors are ignored; the status file is advisory.
func (f *FileSink) flush() {
	if f.path == "" {
		return
	}
	data, err := json.MarshalIndent(f.build(), "", "  ")
	if err != nil {
		return
	}
	_ = filelock.AtomicWrite(f.path, data)
}
