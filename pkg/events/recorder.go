package events

import "sync"

// LogEvent is one recorded log line.
type LogEvent struct {
	Level   Level
	Message string
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu       sync.Mutex
	logs     []LogEvent
	statuses []StatusUpdate
	overall  [][2]int
}

func (r *Recorder) Log(level Level, message string) {
	r.mu.Lock()
	r.logs = append(r.logs, LogEvent{Level: level, Message: message})
	r.mu.Unlock()
}

func (r *Recorder) TaskStatus(u StatusUpdate) {
	r.mu.Lock()
	r.statuses = append(r.statuses, u)
	r.mu.Unlock()
}

func (r *Recorder) Overall(completed, total int) {
	r.mu.Lock()
	r.overall = append(r.overall, [2]int{completed, total})
	r.mu.Unlock()
}

// Logs returns a copy of the recorded log lines.
func (r *Recorder) Logs() []LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEvent(nil), r.logs...)
}

// LogsAt returns the messages recorded at level.
func (r *Recorder) LogsAt(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, l := range r.logs {
		if l.Level == level {
			out = append(out, l.Message)
		}
	}
	return out
}

// Statuses returns a copy of the recorded status updates.
func (r *Recorder) Statuses() []StatusUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusUpdate(nil), r.statuses...)
}

// StatusesFor returns the status updates for one task key.
func (r *Recorder) StatusesFor(key string) []StatusUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StatusUpdate
	for _, s := range r.statuses {
		if s.Key == key {
			out = append(out, s)
		}
	}
	return out
}

// OverallUpdates returns the recorded (completed, total) pairs.
func (r *Recorder) OverallUpdates() [][2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]int(nil), r.overall...)
}
