// pkg/scripts/scripts.go - named pre and post task scripts.

package scripts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// Env is what a script gets to work with.
type Env struct {
	TaskKey string
	TaskDir string
	Runner  runner.Runner
	Vars    tasks.Variables
	Log     func(level events.Level, message string)
}

func (e Env) logf(level events.Level, format string, args ...interface{}) {
	if e.Log != nil {
		e.Log(level, fmt.Sprintf(format, args...))
	}
}

// Func is a script body. A non-nil error fails the step it belongs to.
type Func func(ctx context.Context, env Env) error

// Registry maps script names used in task configs to implementations.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns a registry holding the built-in scripts.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.Register("copy_lsplayer_shortcut", copyPlayerShortcut)
	r.Register("preflight_ps1", taskScript("preflight.ps1"))
	r.Register("postflight_ps1", taskScript("postflight.ps1"))
	return r
}

// Register adds or replaces a script.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names lists registered scripts, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Run executes the named script. An empty name is a no-op. An unknown name
// is logged as a warning and does not fail the task.
func (r *Registry) Run(ctx context.Context, name string, env Env) (err error) {
	if name == "" {
		return nil
	}
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		env.logf(events.LevelWarning, "Script %q is not registered, skipping", name)
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("script %s panicked: %v", name, rec)
		}
	}()

	env.logf(events.LevelInfo, "Running script %s", name)
	if err := fn(ctx, env); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}
