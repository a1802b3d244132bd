// pkg/processor/processor.go - runs a selection of tasks in dependency order.

package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/handlers"
	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/resolver"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/scripts"
	"github.com/windowsadmins/playertoolkit/pkg/sysinfo"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// ErrAlreadyRun is returned when Run is called twice on one Processor.
var ErrAlreadyRun = errors.New("processor already ran")

// State is the global state of a run.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving-dependencies"
	StateExecuting State = "executing"
	StateReporting State = "reporting-results"
	StateDone      State = "done"
)

// Executor runs the handler for one task.
type Executor interface {
	Execute(ctx context.Context, key string, cfg tasks.TaskConfig, rep handlers.Reporter) (string, error)
}

// ScriptRunner runs named pre and post task scripts.
type ScriptRunner interface {
	Run(ctx context.Context, name string, env scripts.Env) error
}

// Options configures one run. Configs is read, never modified.
type Options struct {
	Configs   map[string]tasks.TaskConfig
	Selected  []string
	Extra     map[string]tasks.ExtraOptions
	Variables tasks.Variables

	Handlers Executor
	Scripts  ScriptRunner
	Sink     events.Sink
	// Runner is handed to scripts.
	Runner       runner.Runner
	ProgramsRoot string

	Parallel   bool
	MaxWorkers int

	// OnComplete is called exactly once when the run ends, aborted or not.
	OnComplete func(Report)
}

// Processor executes one run.
type Processor struct {
	opts Options

	mu        sync.Mutex
	state     State
	started   bool
	results   map[string]tasks.Result
	completed int
	total     int

	hub *events.Hub
}

// New validates opts and returns a Processor ready to Run.
func New(opts Options) (*Processor, error) {
	if opts.Handlers == nil {
		return nil, fmt.Errorf("%w: no task handlers", tasks.ErrConfiguration)
	}
	if opts.Scripts == nil {
		opts.Scripts = scripts.NewRegistry()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = sysinfo.Workers()
	}
	return &Processor{
		opts:    opts,
		state:   StateIdle,
		results: make(map[string]tasks.Result),
	}, nil
}

// State returns the current run state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Processor) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	logging.Debug("Run state changed", "state", string(s))
}

// Start runs in a background goroutine. The channel yields the report once.
func (p *Processor) Start(ctx context.Context) <-chan Report {
	ch := make(chan Report, 1)
	go func() {
		defer close(ch)
		ch <- p.Run(ctx)
	}()
	return ch
}

// Run executes the selection and blocks until every task has a result.
// Task failures are reported in the Report, never returned.
func (p *Processor) Run(ctx context.Context) Report {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return Report{Err: ErrAlreadyRun, Error: ErrAlreadyRun.Error()}
	}
	p.started = true
	p.mu.Unlock()

	report := Report{RunID: uuid.New().String(), Started: time.Now()}
	p.hub = events.NewHub(p.opts.Sink, 0)

	selected := dedupe(p.opts.Selected)
	logging.Info("Starting provisioning run", "run_id", report.RunID, "tasks", len(selected),
		"parallel", p.opts.Parallel, "workers", p.opts.MaxWorkers)

	p.setState(StateResolving)
	plan, err := resolver.Resolve(selected, func(key string) []string {
		return p.opts.Configs[key].Dependencies
	})
	if err != nil {
		p.hub.Logf(events.LevelError, "Cannot order the selected tasks, nothing was run: %v", err)
		var cycleErr *resolver.CycleError
		if errors.As(err, &cycleErr) {
			p.hub.Logf(events.LevelError, "Tasks involved: %v", cycleErr.Blocked)
		}
		report.Aborted = true
		report.Err = err
		report.Error = err.Error()
		return p.finish(report)
	}
	report.Plan = plan
	for _, d := range plan.Dropped {
		p.hub.Logf(events.LevelWarning, "[%s] dependency %s is not selected, ignoring it", d.Task, d.Dependency)
	}

	p.mu.Lock()
	p.total = plan.Len()
	p.mu.Unlock()
	for _, key := range plan.Order {
		p.hub.Status(events.StatusUpdate{Key: key, Status: tasks.StatusPending})
	}
	p.hub.Overall(0, plan.Len())

	p.setState(StateExecuting)
	if p.opts.Parallel {
		for i, batch := range plan.Batches {
			logging.Debug("Running layer", "layer", i+1, "size", len(batch))
			p.runLayer(ctx, batch)
		}
	} else {
		for _, key := range plan.Order {
			p.runOne(ctx, key)
		}
	}

	p.setState(StateReporting)
	p.mu.Lock()
	for _, key := range selected {
		if res, ok := p.results[key]; ok {
			report.Results = append(report.Results, res)
		}
	}
	p.mu.Unlock()
	for _, res := range report.Results {
		p.hub.Log(lineLevel(res), res.Line())
	}
	return p.finish(report)
}

func (p *Processor) finish(report Report) Report {
	report.Duration = time.Since(report.Started)
	level := events.LevelSuccess
	if report.Aborted || report.Failed() > 0 {
		level = events.LevelWarning
	}
	p.hub.Log(level, report.Summary())
	p.hub.Close()

	logging.Info("Provisioning run finished", "run_id", report.RunID, "succeeded", report.Succeeded(),
		"failed", report.Failed(), "aborted", report.Aborted, "duration", report.Duration.String())
	p.setState(StateDone)
	if p.opts.OnComplete != nil {
		p.opts.OnComplete(report)
	}
	return report
}

// runLayer runs one batch. Interactive tasks go first, one at a time, so
// prompts never overlap; the rest share a bounded worker pool.
func (p *Processor) runLayer(ctx context.Context, batch []string) {
	var automated []string
	for _, key := range batch {
		if p.opts.Configs[key].Kind.Interactive() {
			p.runOne(ctx, key)
			continue
		}
		automated = append(automated, key)
	}
	if len(automated) == 0 {
		return
	}

	workers := p.opts.MaxWorkers
	if workers > len(automated) {
		workers = len(automated)
	}
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, key := range automated {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			p.runOne(ctx, key)
		}(key)
	}
	wg.Wait()
}

// runOne executes a single task and records exactly one result for it.
func (p *Processor) runOne(ctx context.Context, key string) {
	start := time.Now()
	rep := p.hub.ForTask(key)
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Task panicked", "task", key, "panic", fmt.Sprintf("%v", r))
			err := fmt.Errorf("task panicked: %v", r)
			p.record(key, tasks.Failed(key, tasks.NewTaskError(key, p.opts.Configs[key].Kind, "", err)), start)
		}
	}()

	cfg, ok := p.opts.Configs[key]
	if !ok {
		p.record(key, tasks.Failed(key, tasks.NewTaskError(key, "", "no configuration for this task", tasks.ErrConfiguration)), start)
		return
	}
	if ctx.Err() != nil {
		p.record(key, tasks.Failed(key, tasks.NewTaskError(key, cfg.Kind, "not started", tasks.ErrCancelled)), start)
		return
	}

	p.hub.Status(events.StatusUpdate{Key: key, Status: tasks.StatusRunning, Text: "starting"})
	rep.Logf(events.LevelInfo, "Starting %s", cfg.Kind)

	if extra, ok := p.opts.Extra[key]; ok {
		cfg = extra.Apply(cfg)
	} else {
		cfg = cfg.Clone()
	}

	env := scripts.Env{
		TaskKey: key,
		TaskDir: filepath.Join(p.opts.ProgramsRoot, key),
		Runner:  p.opts.Runner,
		Vars:    p.opts.Variables,
		Log: func(level events.Level, message string) {
			rep.Logf(level, "%s", message)
		},
	}

	if cfg.PreTaskScript != "" {
		if err := p.opts.Scripts.Run(ctx, cfg.PreTaskScript, env); err != nil {
			p.record(key, tasks.Failed(key, tasks.NewTaskError(key, cfg.Kind, "pre-task script failed", err)), start)
			return
		}
	}

	summary, err := p.execute(ctx, key, cfg, rep)
	if err != nil {
		p.record(key, tasks.Failed(key, tasks.NewTaskError(key, cfg.Kind, "", err)), start)
		return
	}

	if summary == "" {
		summary = "done"
	}
	result := tasks.Succeeded(key, summary)
	if cfg.PostTaskScript != "" {
		if err := p.opts.Scripts.Run(ctx, cfg.PostTaskScript, env); err != nil {
			result.Warning = fmt.Sprintf("post-task script failed: %v", err)
			rep.Logf(events.LevelWarning, "%s", result.Warning)
		}
	}
	p.record(key, result, start)
}

// execute calls the handler and turns a panic into a task failure.
func (p *Processor) execute(ctx context.Context, key string, cfg tasks.TaskConfig, rep handlers.Reporter) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Task handler panicked", "task", key, "panic", fmt.Sprintf("%v", r))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return p.opts.Handlers.Execute(ctx, key, cfg, rep)
}

// record stores the first result for key and publishes it. Later results
// for the same key only add their warning.
func (p *Processor) record(key string, res tasks.Result, start time.Time) {
	res.Duration = time.Since(start)

	p.mu.Lock()
	if prev, exists := p.results[key]; exists {
		if res.Warning != "" && prev.Warning == "" {
			prev.Warning = res.Warning
			p.results[key] = prev
		}
		p.mu.Unlock()
		logging.Debug("Ignoring duplicate result", "task", key)
		return
	}
	p.results[key] = res
	p.completed++
	completed, total := p.completed, p.total
	p.mu.Unlock()

	rep := p.hub.ForTask(key)
	switch {
	case res.Status == tasks.StatusFail:
		rep.Logf(events.LevelError, "Failed: %s", res.Summary)
	case res.Warning != "":
		rep.Logf(events.LevelWarning, "Completed with warning: %s", res.Summary)
	default:
		rep.Logf(events.LevelSuccess, "%s", res.Summary)
	}
	p.hub.Status(events.StatusUpdate{Key: key, Status: res.Status, Progress: 100, Text: res.Summary})
	p.hub.Overall(completed, total)
}

func lineLevel(res tasks.Result) events.Level {
	switch {
	case res.Status == tasks.StatusFail:
		return events.LevelError
	case res.Warning != "":
		return events.LevelWarning
	default:
		return events.LevelSuccess
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
