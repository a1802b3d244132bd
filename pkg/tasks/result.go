package tasks

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of one task within a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFail
}

// Result is the recorded outcome of one task.
type Result struct {
	Key      string        `json:"key" yaml:"key"`
	Status   Status        `json:"status" yaml:"status"`
	Summary  string        `json:"summary" yaml:"summary"`
	Warning  string        `json:"warning,omitempty" yaml:"warning,omitempty"`
	Class    string        `json:"class,omitempty" yaml:"class,omitempty"`
	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Succeeded builds a success result.
func Succeeded(key, summary string) Result {
	return Result{Key: key, Status: StatusSuccess, Summary: summary}
}

// Failed builds a failure result from err.
func Failed(key string, err error) Result {
	r := Result{Key: key, Status: StatusFail, Err: err, Class: Classify(err)}
	if err != nil {
		r.Summary = err.Error()
	}
	return r
}

// Line renders the one-line summary shown in the final report.
func (r Result) Line() string {
	switch {
	case r.Status == StatusSuccess && r.Warning != "":
		return fmt.Sprintf("[WARN] %s: %s (%s)", r.Key, r.Summary, r.Warning)
	case r.Status == StatusSuccess:
		return fmt.Sprintf("[OK] %s: %s", r.Key, r.Summary)
	default:
		return fmt.Sprintf("[FAIL] %s: %s", r.Key, r.Summary)
	}
}
