package events

import (
	"fmt"
	"sync"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

type eventKind int

const (
	evLog eventKind = iota
	evStatus
	evOverall
)

type event struct {
	kind      eventKind
	level     Level
	message   string
	status    StatusUpdate
	completed int
	total     int
}

// Hub serializes events from concurrent workers onto one Sink.
type Hub struct {
	sink Sink
	ch   chan event
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	// owned by the consumer goroutine
	progress map[string]int
}

// NewHub starts the consumer goroutine. A nil sink discards events but log
// messages are still mirrored to the file log.
func NewHub(sink Sink, buffer int) *Hub {
	if sink == nil {
		sink = NoOp{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	h := &Hub{
		sink:     sink,
		ch:       make(chan event, buffer),
		done:     make(chan struct{}),
		progress: make(map[string]int),
	}
	go h.consume()
	return h
}

func (h *Hub) send(e event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	h.ch <- e
}

// Log queues a log line.
func (h *Hub) Log(level Level, message string) {
	h.send(event{kind: evLog, level: level, message: message})
}

// Logf queues a formatted log line.
func (h *Hub) Logf(level Level, format string, args ...interface{}) {
	h.Log(level, fmt.Sprintf(format, args...))
}

// Status queues a task status update.
func (h *Hub) Status(u StatusUpdate) {
	h.send(event{kind: evStatus, status: u})
}

// Overall queues an overall progress update.
func (h *Hub) Overall(completed, total int) {
	h.send(event{kind: evOverall, completed: completed, total: total})
}

// ForTask returns a reporter bound to one task key.
func (h *Hub) ForTask(key string) *TaskReporter {
	return &TaskReporter{hub: h, key: key}
}

// Close stops accepting events and waits until every queued event has been
// delivered. It is safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.closed = true
	close(h.ch)
	h.mu.Unlock()
	<-h.done
}

func (h *Hub) consume() {
	defer close(h.done)
	for e := range h.ch {
		switch e.kind {
		case evLog:
			mirror(e.level, e.message)
			h.sink.Log(e.level, e.message)
		case evStatus:
			h.sink.TaskStatus(h.clamp(e.status))
		case evOverall:
			h.sink.Overall(e.completed, e.total)
		}
	}
}

// clamp keeps per-task progress within 0..100 and never lets it go down.
func (h *Hub) clamp(u StatusUpdate) StatusUpdate {
	if u.Progress < 0 {
		u.Progress = 0
	}
	if u.Progress > 100 {
		u.Progress = 100
	}
	if last, ok := h.progress[u.Key]; ok && u.Progress < last {
		u.Progress = last
	}
	if u.Status.Terminal() {
		u.Progress = 100
	}
	h.progress[u.Key] = u.Progress
	return u
}

func mirror(level Level, message string) {
	switch level {
	case LevelError:
		logging.Error(message)
	case LevelWarning:
		logging.Warn(message)
	case LevelSuccess:
		logging.Info(message, "outcome", "success")
	default:
		logging.Info(message)
	}
}

// TaskReporter is the per-task view of a Hub handed to handlers.
type TaskReporter struct {
	hub *Hub
	key string
}

// Logf queues a log line prefixed with the task key.
func (r *TaskReporter) Logf(level Level, format string, args ...interface{}) {
	r.hub.Log(level, fmt.Sprintf("[%s] ", r.key)+fmt.Sprintf(format, args...))
}

// Progress reports a running phase with a percentage.
func (r *TaskReporter) Progress(phase string, pct int, text string) {
	r.hub.Status(StatusUpdate{Key: r.key, Status: tasks.StatusRunning, Phase: phase, Progress: pct, Text: text})
}
