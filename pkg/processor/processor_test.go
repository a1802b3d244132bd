package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/handlers"
	"github.com/windowsadmins/playertoolkit/pkg/resolver"
	"github.com/windowsadmins/playertoolkit/pkg/scripts"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

type fakeExecutor struct {
	mu      sync.Mutex
	order   []string
	configs map[string]tasks.TaskConfig
	fn      func(key string, cfg tasks.TaskConfig) (string, error)

	running    int32
	maxRunning int32
	delay      time.Duration
}

func (f *fakeExecutor) Execute(_ context.Context, key string, cfg tasks.TaskConfig, rep handlers.Reporter) (string, error) {
	n := atomic.AddInt32(&f.running, 1)
	defer atomic.AddInt32(&f.running, -1)
	for {
		peak := atomic.LoadInt32(&f.maxRunning)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxRunning, peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.order = append(f.order, key)
	if f.configs == nil {
		f.configs = make(map[string]tasks.TaskConfig)
	}
	f.configs[key] = cfg
	f.mu.Unlock()

	rep.Progress("working", 50, "")
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fn != nil {
		return f.fn(key, cfg)
	}
	return "ok " + key, nil
}

func (f *fakeExecutor) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func cfg(kind tasks.Kind, deps ...string) tasks.TaskConfig {
	c := tasks.Defaults()
	c.Kind = kind
	c.Dependencies = deps
	return c
}

func newProcessor(t *testing.T, opts Options) (*Processor, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	opts.Sink = rec
	if opts.MaxWorkers == 0 {
		opts.MaxWorkers = 4
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p, rec
}

func TestNewRequiresHandlers(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, tasks.ErrConfiguration)
}

func TestRunDependencyChain(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "parallel"}[parallel], func(t *testing.T) {
			exec := &fakeExecutor{}
			var completions int
			p, rec := newProcessor(t, Options{
				Configs: map[string]tasks.TaskConfig{
					"A": cfg(tasks.KindLocalInstall),
					"B": cfg(tasks.KindLocalInstall, "A"),
				},
				Selected:   []string{"B", "A"},
				Handlers:   exec,
				Parallel:   parallel,
				OnComplete: func(Report) { completions++ },
			})

			report := p.Run(context.Background())
			assert.Equal(t, []string{"A", "B"}, exec.calls())
			assert.Equal(t, [][]string{{"A"}, {"B"}}, report.Plan.Batches)
			assert.Equal(t, []string{"[OK] B: ok B", "[OK] A: ok A"}, report.Lines())
			assert.Equal(t, 2, report.Succeeded())
			assert.Equal(t, 1, completions)
			assert.Equal(t, StateDone, p.State())
			assert.NotEmpty(t, report.RunID)

			overall := rec.OverallUpdates()
			require.NotEmpty(t, overall)
			assert.Equal(t, [2]int{0, 2}, overall[0])
			assert.Equal(t, [2]int{2, 2}, overall[len(overall)-1])
		})
	}
}

func TestRunCycleAbortsBeforeExecution(t *testing.T) {
	exec := &fakeExecutor{}
	var completed []Report
	p, rec := newProcessor(t, Options{
		Configs: map[string]tasks.TaskConfig{
			"A": cfg(tasks.KindLocalInstall, "B"),
			"B": cfg(tasks.KindLocalInstall, "A"),
		},
		Selected:   []string{"A", "B"},
		Handlers:   exec,
		Parallel:   true,
		OnComplete: func(r Report) { completed = append(completed, r) },
	})

	report := p.Run(context.Background())
	assert.True(t, report.Aborted)
	assert.Empty(t, report.Results)
	assert.Empty(t, exec.calls())

	var cycleErr *resolver.CycleError
	require.ErrorAs(t, report.Err, &cycleErr)
	assert.Equal(t, []string{"A", "B"}, cycleErr.Blocked)
	require.Len(t, completed, 1)
	assert.True(t, completed[0].Aborted)
	assert.NotEmpty(t, rec.LogsAt(events.LevelError))
	assert.Empty(t, rec.Statuses())
}

func TestFailureDoesNotStopSiblings(t *testing.T) {
	exec := &fakeExecutor{fn: func(key string, _ tasks.TaskConfig) (string, error) {
		if key == "bad" {
			return "", tasks.ErrExternalProcess
		}
		return "fine", nil
	}}
	p, _ := newProcessor(t, Options{
		Configs: map[string]tasks.TaskConfig{
			"bad":   cfg(tasks.KindLocalInstall),
			"good":  cfg(tasks.KindCleanTemp),
			"after": cfg(tasks.KindPowerConfig, "bad"),
		},
		Selected: []string{"bad", "good", "after"},
		Handlers: exec,
		Parallel: true,
	})

	report := p.Run(context.Background())
	require.Len(t, report.Results, 3)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 2, report.Succeeded())

	bad, ok := report.Result("bad")
	require.True(t, ok)
	assert.Equal(t, tasks.StatusFail, bad.Status)
	assert.Equal(t, "ExternalProcessError", bad.Class)

	var taskErr *tasks.TaskError
	require.ErrorAs(t, bad.Err, &taskErr)
	assert.Equal(t, "bad", taskErr.Key)
}

func TestPreScriptFailureSkipsHandler(t *testing.T) {
	reg := scripts.NewRegistry()
	reg.Register("check_disk", func(context.Context, scripts.Env) error { return errors.New("disk full") })
	c := cfg(tasks.KindLocalInstall)
	c.PreTaskScript = "check_disk"

	exec := &fakeExecutor{}
	p, _ := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"app": c},
		Selected: []string{"app"},
		Handlers: exec,
		Scripts:  reg,
	})

	report := p.Run(context.Background())
	assert.Empty(t, exec.calls())
	res, _ := report.Result("app")
	assert.Equal(t, tasks.StatusFail, res.Status)
	assert.Contains(t, res.Summary, "pre-task script failed")
	assert.Contains(t, res.Summary, "disk full")
}

func TestPostScriptFailureIsWarning(t *testing.T) {
	reg := scripts.NewRegistry()
	reg.Register("shortcut", func(context.Context, scripts.Env) error { return errors.New("no desktop") })
	c := cfg(tasks.KindLocalInstall)
	c.PostTaskScript = "shortcut"

	p, rec := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"player": c},
		Selected: []string{"player"},
		Handlers: &fakeExecutor{},
		Scripts:  reg,
	})

	report := p.Run(context.Background())
	res, _ := report.Result("player")
	assert.Equal(t, tasks.StatusSuccess, res.Status)
	assert.Contains(t, res.Warning, "no desktop")
	assert.Equal(t, 1, report.Warnings())
	assert.Contains(t, report.Lines()[0], "[WARN] player")
	assert.NotEmpty(t, rec.LogsAt(events.LevelWarning))
}

func TestUnknownScriptDoesNotBlockTask(t *testing.T) {
	c := cfg(tasks.KindLocalInstall)
	c.PreTaskScript = "not_registered"
	exec := &fakeExecutor{}
	p, _ := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"app": c},
		Selected: []string{"app"},
		Handlers: exec,
	})

	report := p.Run(context.Background())
	assert.Equal(t, []string{"app"}, exec.calls())
	assert.Equal(t, 1, report.Succeeded())
}

func TestInteractiveTasksRunFirstAndAlone(t *testing.T) {
	var mu sync.Mutex
	var manualOverlap bool
	exec := &fakeExecutor{delay: 5 * time.Millisecond}
	exec.fn = func(key string, c tasks.TaskConfig) (string, error) {
		if c.Kind.Interactive() {
			mu.Lock()
			if atomic.LoadInt32(&exec.running) > 1 {
				manualOverlap = true
			}
			mu.Unlock()
		}
		return "", nil
	}

	p, _ := newProcessor(t, Options{
		Configs: map[string]tasks.TaskConfig{
			"auto1":   cfg(tasks.KindCleanTemp),
			"manual1": cfg(tasks.KindManualAssisted),
			"auto2":   cfg(tasks.KindPowerConfig),
			"copy":    cfg(tasks.KindCopyInteractive),
		},
		Selected: []string{"auto1", "manual1", "auto2", "copy"},
		Handlers: exec,
		Parallel: true,
	})

	report := p.Run(context.Background())
	assert.Equal(t, 4, report.Succeeded())
	calls := exec.calls()
	assert.Equal(t, []string{"manual1", "copy"}, calls[:2])
	assert.ElementsMatch(t, []string{"auto1", "auto2"}, calls[2:])
	assert.False(t, manualOverlap)
}

func TestWorkerPoolIsBounded(t *testing.T) {
	configs := map[string]tasks.TaskConfig{}
	var selected []string
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		configs[k] = cfg(tasks.KindRunPowerShell)
		selected = append(selected, k)
	}
	exec := &fakeExecutor{delay: 10 * time.Millisecond}
	p, _ := newProcessor(t, Options{
		Configs:    configs,
		Selected:   selected,
		Handlers:   exec,
		Parallel:   true,
		MaxWorkers: 2,
	})

	report := p.Run(context.Background())
	assert.Equal(t, 6, report.Succeeded())
	assert.LessOrEqual(t, atomic.LoadInt32(&exec.maxRunning), int32(2))
}

func TestExtraOptionsApplyToCopy(t *testing.T) {
	c := cfg(tasks.KindLocalInstall)
	c.InstallerFile = "default.exe"
	configs := map[string]tasks.TaskConfig{"app": c}
	exec := &fakeExecutor{}
	p, _ := newProcessor(t, Options{
		Configs:  configs,
		Selected: []string{"app"},
		Extra:    map[string]tasks.ExtraOptions{"app": {InstallerFile: "picked.exe"}},
		Handlers: exec,
	})

	p.Run(context.Background())
	assert.Equal(t, "picked.exe", exec.configs["app"].InstallerFile)
	assert.Equal(t, "default.exe", configs["app"].InstallerFile)
}

func TestMissingConfigurationFails(t *testing.T) {
	exec := &fakeExecutor{}
	p, _ := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"known": cfg(tasks.KindCleanTemp)},
		Selected: []string{"known", "ghost"},
		Handlers: exec,
	})

	report := p.Run(context.Background())
	assert.Equal(t, []string{"known"}, exec.calls())
	ghost, ok := report.Result("ghost")
	require.True(t, ok)
	assert.Equal(t, "ConfigurationError", ghost.Class)
}

func TestHandlerPanicBecomesFailure(t *testing.T) {
	exec := &fakeExecutor{fn: func(string, tasks.TaskConfig) (string, error) { panic("nil map") }}
	p, _ := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"x": cfg(tasks.KindCleanTemp), "y": cfg(tasks.KindCleanTemp)},
		Selected: []string{"x", "y"},
		Handlers: exec,
		Parallel: true,
	})

	report := p.Run(context.Background())
	assert.Equal(t, 2, report.Failed())
	assert.Contains(t, report.Results[0].Summary, "panicked")
}

func TestCancelledRunLeavesNothingRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExecutor{}
	p, rec := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"a": cfg(tasks.KindCleanTemp), "b": cfg(tasks.KindCleanTemp, "a")},
		Selected: []string{"a", "b"},
		Handlers: exec,
		Parallel: true,
	})

	report := p.Run(ctx)
	assert.Empty(t, exec.calls())
	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.Equal(t, tasks.StatusFail, res.Status)
		assert.ErrorIs(t, res.Err, tasks.ErrCancelled)
	}

	last := map[string]tasks.Status{}
	for _, u := range rec.Statuses() {
		last[u.Key] = u.Status
	}
	for k, s := range last {
		assert.True(t, s.Terminal(), "%s left in %s", k, s)
	}
}

func TestStatusProgressIsMonotonic(t *testing.T) {
	p, rec := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"a": cfg(tasks.KindPowerConfig)},
		Selected: []string{"a"},
		Handlers: &fakeExecutor{},
	})
	p.Run(context.Background())

	updates := rec.StatusesFor("a")
	require.NotEmpty(t, updates)
	prev := 0
	for _, u := range updates {
		assert.GreaterOrEqual(t, u.Progress, prev)
		prev = u.Progress
	}
	assert.Equal(t, tasks.StatusSuccess, updates[len(updates)-1].Status)
	assert.Equal(t, 100, prev)
}

func TestDroppedDependencyWarns(t *testing.T) {
	p, rec := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"app": cfg(tasks.KindLocalInstall, "runtime")},
		Selected: []string{"app"},
		Handlers: &fakeExecutor{},
	})
	report := p.Run(context.Background())
	assert.Equal(t, 1, report.Succeeded())
	assert.Contains(t, rec.LogsAt(events.LevelWarning), "[app] dependency runtime is not selected, ignoring it")
}

func TestRunTwiceErrors(t *testing.T) {
	p, _ := newProcessor(t, Options{Handlers: &fakeExecutor{}})
	p.Run(context.Background())
	second := p.Run(context.Background())
	assert.ErrorIs(t, second.Err, ErrAlreadyRun)
}

func TestStartRunsInBackground(t *testing.T) {
	exec := &fakeExecutor{}
	p, _ := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"a": cfg(tasks.KindCleanTemp)},
		Selected: []string{"a"},
		Handlers: exec,
	})

	select {
	case report := <-p.Start(context.Background()):
		assert.Equal(t, 1, report.Succeeded())
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}

type panickingScripts struct{ name string }

func (s panickingScripts) Run(_ context.Context, name string, _ scripts.Env) error {
	if name == s.name {
		panic("script exploded")
	}
	return nil
}

func TestScriptPanicBecomesFailure(t *testing.T) {
	pre := cfg(tasks.KindLocalInstall)
	pre.PreTaskScript = "boom"
	post := cfg(tasks.KindLocalInstall)
	post.PostTaskScript = "boom"

	exec := &fakeExecutor{}
	p, rec := newProcessor(t, Options{
		Configs:  map[string]tasks.TaskConfig{"pre": pre, "post": post},
		Selected: []string{"pre", "post"},
		Handlers: exec,
		Scripts:  panickingScripts{name: "boom"},
		Parallel: true,
	})

	report := p.Run(context.Background())
	require.Len(t, report.Results, 2)
	assert.Equal(t, 2, report.Failed())
	for _, res := range report.Results {
		assert.Contains(t, res.Summary, "task panicked: script exploded")
	}
	assert.Equal(t, []string{"post"}, exec.calls(), "a failing pre-task script skips the handler")
	for _, key := range []string{"pre", "post"} {
		statuses := rec.StatusesFor(key)
		require.NotEmpty(t, statuses)
		assert.Equal(t, tasks.StatusFail, statuses[len(statuses)-1].Status)
	}
}
