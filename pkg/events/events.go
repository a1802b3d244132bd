// Package events is the progress and log surface of a provisioning run.
//
// Workers never call a Sink directly. They send through a Hub, which hands
// every event to a single consumer goroutine, so the Sink observes one
// totally ordered stream regardless of how many tasks run in parallel.
package events

import (
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// Level is the severity shown to the operator.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// StatusUpdate reports the state of one task.
type StatusUpdate struct {
	Key      string       `json:"key"`
	Status   tasks.Status `json:"status"`
	Phase    string       `json:"phase,omitempty"`
	Progress int          `json:"progress"`
	Text     string       `json:"text,omitempty"`
}

// Sink consumes run events. Implementations are called from one goroutine
// at a time and need no locking of their own when used behind a Hub.
type Sink interface {
	Log(level Level, message string)
	TaskStatus(update StatusUpdate)
	Overall(completed, total int)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) Log(Level, string) {}

func (NoOp) TaskStatus(StatusUpdate) {}

func (NoOp) Overall(completed, total int) {}

// Multi fans events out to several sinks in order.
type Multi []Sink

func (m Multi) Log(level Level, message string) {
	for _, s := range m {
		s.Log(level, message)
	}
}

func (m Multi) TaskStatus(u StatusUpdate) {
	for _, s := range m {
		s.TaskStatus(u)
	}
}

func (m Multi) Overall(completed, total int) {
	for _, s := range m {
		s.Overall(completed, total)
	}
}
