// Package handlers implements one executor per task kind.
//
// Handlers report outcome only through their returned error, wrapping one
// of the failure classes in pkg/tasks. Side effects are limited to the
// collaborators held by Set, which tests replace with fakes.
package handlers

import (
	"context"
	"fmt"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// Reporter receives a task's log lines and progress.
type Reporter interface {
	Logf(level events.Level, format string, args ...interface{})
	Progress(phase string, pct int, text string)
}

// Prompter asks the operator to confirm or choose.
type Prompter interface {
	Confirm(title, message string) bool
	SaveAs(title, suggested string) (string, bool)
}

// Downloader fetches a remote installer.
type Downloader interface {
	Fetch(ctx context.Context, url, dest string, onProgress progress.Func) error
}

// ProcessChecker reports which of the named applications are running.
type ProcessChecker interface {
	Running(apps []string) []string
}

// SoftwareLookup resolves an uninstall command from the installed-software inventory.
type SoftwareLookup interface {
	UninstallString(key string) (string, bool)
}

// Set dispatches tasks to the handler for their kind. TempDirs, when set,
// replaces the directories cleaned by clean_temp.
type Set struct {
	Runner       runner.Runner
	Opener       runner.Opener
	Prompt       Prompter
	Downloader   Downloader
	Processes    ProcessChecker
	Registry     RegistryWriter
	Software     SoftwareLookup
	Vars         tasks.Variables
	ProgramsRoot string
	TempDirs     []string
	PowerPolicy  PowerPolicy
}

type nopReporter struct{}

func (nopReporter) Logf(events.Level, string, ...interface{}) {}
func (nopReporter) Progress(string, int, string) {}

// Execute runs the handler for cfg.Kind and returns a one-line summary.
func (s *Set) Execute(ctx context.Context, key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	if rep == nil {
		rep = nopReporter{}
	}
	if err := cfg.Validate(key); err != nil {
		return "", err
	}

	switch cfg.Kind {
	case tasks.KindLocalInstall:
		return s.localInstall(ctx, key, cfg, rep)
	case tasks.KindManualAssisted:
		return s.manualAssisted(ctx, key, cfg, rep)
	case tasks.KindCopyInteractive:
		return s.copyInteractive(key, cfg, rep)
	case tasks.KindUninstall:
		return s.uninstall(ctx, key, cfg, rep)
	case tasks.KindCleanTemp:
		return s.cleanTemp(rep)
	case tasks.KindPowerConfig:
		return s.powerConfig(ctx, rep)
	case tasks.KindRunPowerShell:
		return s.runPowerShell(ctx, key, cfg, rep)
	case tasks.KindModifyRegistry:
		return s.modifyRegistry(cfg, rep)
	case tasks.KindManageService:
		return s.manageService(ctx, cfg, rep)
	case tasks.KindCreateScheduledTask:
		return s.createScheduledTask(ctx, cfg, rep)
	case tasks.KindInstallDriver:
		return s.installDriver(ctx, cfg, rep)
	default:
		return "", fmt.Errorf("%w: %q", tasks.ErrUnknownKind, string(cfg.Kind))
	}
}

// command builds a runner command whose log lines go to rep.
func command(rep Reporter, name string, args []string, wait bool, cfg tasks.TaskConfig) runner.Command {
	return runner.Command{
		Name:    name,
		Args:    args,
		Wait:    wait,
		Timeout: cfg.Timeout(),
		Log: func(level events.Level, message string) {
			rep.Logf(level, "%s", message)
		},
	}
}
