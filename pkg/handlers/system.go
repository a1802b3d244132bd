package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

func (s *Set) runPowerShell(ctx context.Context, key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	script := s.Vars.Expand(cfg.ScriptPath)
	if !filepath.IsAbs(script) {
		script = filepath.Join(s.TaskDir(key), script)
	}
	if _, err := os.Stat(script); err != nil {
		return "", fmt.Errorf("%w: script %s", tasks.ErrResourceNotFound, script)
	}

	rep.Progress("powershell", 50, filepath.Base(script))
	res := s.Runner.Run(ctx, command(rep, "powershell.exe",
		[]string{"-NoProfile", "-ExecutionPolicy", "Bypass", "-File", script}, cfg.Wait(), cfg))
	if !res.Success() {
		return "", res.Err
	}
	return fmt.Sprintf("ran %s", filepath.Base(script)), nil
}

// ServiceArgs maps a service action to sc.exe arguments.
func ServiceArgs(name, action string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "", "start":
		return []string{"start", name}, nil
	case "stop":
		return []string{"stop", name}, nil
	case "disable":
		return []string{"config", name, "start=", "disabled"}, nil
	case "enable":
		return []string{"config", name, "start=", "auto"}, nil
	default:
		return nil, fmt.Errorf("%w: unknown service action %q", tasks.ErrConfiguration, action)
	}
}

func (s *Set) manageService(ctx context.Context, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	args, err := ServiceArgs(cfg.Service.Name, cfg.Service.Action)
	if err != nil {
		return "", err
	}
	res := s.Runner.Run(ctx, command(rep, "sc.exe", args, true, cfg))
	if !res.Success() {
		return "", res.Err
	}
	return fmt.Sprintf("service %s: %s", cfg.Service.Name, args[0]), nil
}

// ScheduledTaskArgs builds the schtasks /Create arguments.
func ScheduledTaskArgs(spec tasks.ScheduledTaskSpec) []string {
	trigger := spec.Trigger
	if trigger == "" {
		trigger = "ONLOGON"
	}
	user := spec.User
	if user == "" {
		user = "SYSTEM"
	}
	args := []string{"/Create", "/F", "/TN", spec.Name, "/TR", spec.Command, "/SC", trigger, "/RU", user}
	if strings.EqualFold(user, "SYSTEM") {
		args = append(args, "/RL", "HIGHEST")
	}
	return args
}

func (s *Set) createScheduledTask(ctx context.Context, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	spec := cfg.ScheduledTask
	spec.Command = s.Vars.Expand(spec.Command)
	res := s.Runner.Run(ctx, command(rep, "schtasks", ScheduledTaskArgs(spec), true, cfg))
	if !res.Success() {
		return "", res.Err
	}
	return fmt.Sprintf("scheduled task %s created", spec.Name), nil
}

// DriversDir is the folder under the programs root holding driver packages.
const DriversDir = "Drivers"

func (s *Set) installDriver(ctx context.Context, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	dir := filepath.Join(s.ProgramsRoot, DriversDir, cfg.DriverDirName)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: driver folder %s", tasks.ErrResourceNotFound, dir)
	}

	rep.Progress("pnputil", 50, cfg.DriverDirName)
	args := []string{"/add-driver", filepath.Join(dir, "*.inf"), "/subdirs", "/install"}
	res := s.Runner.Run(ctx, command(rep, "pnputil", args, true, cfg))
	if !res.Success() {
		return "", res.Err
	}
	return fmt.Sprintf("driver %s installed", cfg.DriverDirName), nil
}
