package processor

import (
	"fmt"
	"time"

	"github.com/windowsadmins/playertoolkit/pkg/resolver"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// Report is the outcome of one run.
type Report struct {
	RunID    string         `json:"run_id" yaml:"run_id"`
	Started  time.Time      `json:"started" yaml:"started"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
	Results  []tasks.Result `json:"results" yaml:"results"`
	// Aborted is set when nothing ran because the selection could not be ordered.
	Aborted bool           `json:"aborted" yaml:"aborted"`
	Plan    *resolver.Plan `json:"-" yaml:"-"`
	Err     error          `json:"-" yaml:"-"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Lines renders one report line per task.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		lines = append(lines, res.Line())
	}
	return lines
}

// Succeeded counts successful tasks, warnings included.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == tasks.StatusSuccess {
			n++
		}
	}
	return n
}

// Failed counts failed tasks.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == tasks.StatusFail {
			n++
		}
	}
	return n
}

// Warnings counts successful tasks that carry a warning.
func (r Report) Warnings() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == tasks.StatusSuccess && res.Warning != "" {
			n++
		}
	}
	return n
}

// Result returns the result recorded for key.
func (r Report) Result(key string) (tasks.Result, bool) {
	for _, res := range r.Results {
		if res.Key == key {
			return res, true
		}
	}
	return tasks.Result{}, false
}

// Summary is the closing line of a run.
func (r Report) Summary() string {
	if r.Aborted {
		return fmt.Sprintf("Run aborted before any task started: %v", r.Err)
	}
	return fmt.Sprintf("Completed %d tasks: %d succeeded (%d with warnings), %d failed in %s",
		len(r.Results), r.Succeeded(), r.Warnings(), r.Failed(), r.Duration.Round(time.Millisecond))
}
