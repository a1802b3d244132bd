// pkg/blocking/blocking.go - detects applications that must be closed before
// an installer or uninstaller touches their files.

package blocking

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

// Proc is the part of a running process the matcher looks at.
type Proc struct {
	Name string
	Exe  string
}

// Checker reports which configured applications are running.
type Checker struct {
	// list enumerates processes; tests replace it.
	list func() ([]Proc, error)
}

// NewChecker returns a Checker backed by the OS process table.
func NewChecker() *Checker {
	return &Checker{list: systemProcesses}
}

func systemProcesses() ([]Proc, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]Proc, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		exe, _ := p.Exe()
		out = append(out, Proc{Name: name, Exe: exe})
	}
	return out, nil
}

// Matches reports whether proc is the application named app. A full path
// compares against the executable path, a name ending in .exe compares
// against the process name, and a bare name matches with or without .exe.
func Matches(app string, proc Proc) bool {
	clean := strings.ToLower(strings.TrimSpace(app))
	if clean == "" {
		return false
	}
	name := strings.ToLower(proc.Name)

	switch {
	case strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, `c:\`) || strings.Contains(clean, `:\`):
		return proc.Exe != "" && strings.EqualFold(proc.Exe, app)
	case strings.HasSuffix(clean, ".exe"):
		return name == clean
	default:
		return name == clean || name == clean+".exe"
	}
}

// Running returns the subset of apps that currently have a process. A
// failure to list processes is logged and treated as nothing running.
func (c *Checker) Running(apps []string) []string {
	if len(apps) == 0 {
		return nil
	}
	list := c.list
	if list == nil {
		list = systemProcesses
	}
	procs, err := list()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return nil
	}

	var running []string
	for _, app := range apps {
		for _, p := range procs {
			if Matches(app, p) {
				logging.Debug("Found running application", "app", app, "process", p.Name)
				running = append(running, app)
				break
			}
		}
	}
	if len(running) > 0 {
		logging.Info("Blocking applications are running", "running_apps", strings.Join(running, ", "))
	}
	return running
}
