package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  []runner.Command
	result func(cmd runner.Command) runner.Result
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.result != nil {
		return f.result(cmd)
	}
	return runner.Result{ExitCode: 0}
}

func (f *fakeRunner) argv() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, c := range f.calls {
		out = append(out, append([]string{c.Name}, c.Args...))
	}
	return out
}

func exitWith(code int) runner.Result {
	if runner.SuccessCode(code) {
		return runner.Result{ExitCode: code}
	}
	return runner.Result{ExitCode: code, Err: fmt.Errorf("%w: exited with code %d", tasks.ErrExternalProcess, code)}
}

type fakePrompt struct {
	confirm   bool
	saveAs    string
	saveOK    bool
	confirmed []string
}

func (f *fakePrompt) Confirm(title, message string) bool {
	f.confirmed = append(f.confirmed, title)
	return f.confirm
}

func (f *fakePrompt) SaveAs(title, suggested string) (string, bool) {
	return f.saveAs, f.saveOK
}

type fakeOpener struct {
	opened []string
	err    error
}

func (f *fakeOpener) Open(p string) error {
	f.opened = append(f.opened, p)
	return f.err
}

type fakeDownloader struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeDownloader) Fetch(_ context.Context, url, dest string, onProgress progress.Func) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if onProgress != nil {
		onProgress(50, int64(len(f.body)/2), int64(len(f.body)))
		onProgress(100, int64(len(f.body)), int64(len(f.body)))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, f.body, 0644)
}

type fakeProcesses struct{ running []string }

func (f fakeProcesses) Running(apps []string) []string { return f.running }

type fakeRegistry struct{ written []RegistryValue }

func (f *fakeRegistry) Write(v RegistryValue) error {
	f.written = append(f.written, v)
	return nil
}

type fakeSoftware map[string]string

func (f fakeSoftware) UninstallString(key string) (string, bool) {
	s, ok := f[key]
	return s, ok
}

type recReporter struct {
	mu       sync.Mutex
	logs     []events.LogEvent
	progress []int
}

func (r *recReporter) Logf(level events.Level, format string, args ...interface{}) {
	r.mu.Lock()
	r.logs = append(r.logs, events.LogEvent{Level: level, Message: fmt.Sprintf(format, args...)})
	r.mu.Unlock()
}

func (r *recReporter) Progress(phase string, pct int, text string) {
	r.mu.Lock()
	r.progress = append(r.progress, pct)
	r.mu.Unlock()
}

func (r *recReporter) count(level events.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
