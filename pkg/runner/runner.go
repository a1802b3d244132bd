// pkg/runner/runner.go - spawns external processes and classifies their outcome.

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// LogFunc receives the runner's log lines for one command.
type LogFunc func(level events.Level, message string)

// Command describes one process invocation.
type Command struct {
	Name    string
	Args    []string
	Wait    bool
	Timeout time.Duration
	Dir     string
	// Log overrides the runner's default log destination.
	Log LogFunc
}

// Result is the outcome of one invocation. Err is nil exactly when the
// command counts as successful.
type Result struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error
}

// Success reports whether the command succeeded.
func (r Result) Success() bool { return r.Err == nil }

// RebootRequired reports whether the installer asked for a reboot.
func (r Result) RebootRequired() bool { return r.Err == nil && r.ExitCode == ExitRebootRequired }

// Runner runs commands. Implementations never panic and never return a
// process error other than through Result.Err.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// Exec runs commands on the host.
type Exec struct {
	Vars           tasks.Variables
	DefaultTimeout time.Duration
	// WaitDelay bounds how long output pipes are drained after a kill.
	WaitDelay time.Duration
}

// NewExec returns an Exec with the given variables.
func NewExec(vars tasks.Variables, defaultTimeout time.Duration) *Exec {
	return &Exec{Vars: vars, DefaultTimeout: defaultTimeout, WaitDelay: 5 * time.Second}
}

func defaultLog(level events.Level, message string) {
	switch level {
	case events.LevelError:
		logging.Error(message)
	case events.LevelWarning:
		logging.Warn(message)
	default:
		logging.Info(message)
	}
}

// Run executes cmd.
func (e *Exec) Run(ctx context.Context, c Command) (res Result) {
	log := c.Log
	if log == nil {
		log = defaultLog
	}
	res.ExitCode = -1

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: panic while running %s: %v", tasks.ErrExternalProcess, c.Name, r)
			res.ExitCode = -1
			log(events.LevelError, res.Err.Error())
		}
	}()

	argv := Prepare(c.Name, c.Args, e.Vars)
	res.Argv = argv
	if len(argv) == 0 {
		res.Err = fmt.Errorf("%w: empty command", tasks.ErrConfiguration)
		log(events.LevelError, res.Err.Error())
		return res
	}
	line := strings.Join(argv, " ")

	if !c.Wait {
		return e.spawn(argv, c.Dir, log)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = e.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = tasks.DefaultTimeout
	}

	log(events.LevelInfo, fmt.Sprintf("Running: %s (timeout %s)", line, timeout))

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = e.WaitDelay
	hideWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if out := strings.TrimSpace(res.Stdout); out != "" {
		log(events.LevelInfo, "stdout: "+out)
	}
	if out := strings.TrimSpace(res.Stderr); out != "" {
		log(events.LevelError, "stderr: "+out)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.TimedOut = true
		res.Err = fmt.Errorf("%w: %s timed out after %s", tasks.ErrExternalProcess, argv[0], timeout)
	case ctx.Err() != nil:
		res.Err = fmt.Errorf("%w: %s interrupted", tasks.ErrCancelled, argv[0])
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.Err = fmt.Errorf("%w: could not start %s: %v", tasks.ErrExternalProcess, argv[0], err)
	}

	if res.Err == nil && !SuccessCode(res.ExitCode) {
		res.Err = fmt.Errorf("%w: %s exited with code %d", tasks.ErrExternalProcess, argv[0], res.ExitCode)
	}

	switch {
	case res.Err != nil:
		log(events.LevelError, res.Err.Error())
	case res.ExitCode == ExitRebootRequired:
		log(events.LevelWarning, fmt.Sprintf("%s finished with code %d, a reboot is required", argv[0], res.ExitCode))
	default:
		log(events.LevelInfo, fmt.Sprintf("%s finished with code %d", argv[0], res.ExitCode))
	}
	return res
}

// spawn starts argv without waiting. The child is reaped in the background.
func (e *Exec) spawn(argv []string, dir string, log LogFunc) Result {
	res := Result{Argv: argv, ExitCode: -1}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	hideWindow(cmd)

	log(events.LevelInfo, "Launching: "+strings.Join(argv, " "))
	if err := cmd.Start(); err != nil {
		res.Err = fmt.Errorf("%w: could not start %s: %v", tasks.ErrExternalProcess, argv[0], err)
		log(events.LevelError, res.Err.Error())
		return res
	}
	go func() { _ = cmd.Wait() }()

	res.ExitCode = 0
	return res
}
