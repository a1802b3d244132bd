package scripts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/handlers"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// PlayerShortcut is the desktop shortcut created by the player installer.
const PlayerShortcut = "LSPlayerVideo.lnk"

// ErrShortcutNotFound is returned by CopyShortcut when no source has the file.
var ErrShortcutNotFound = errors.New("shortcut not found")

// CopyShortcut copies name from the first source directory that has it
// into destDir and returns the source path used.
func CopyShortcut(name string, sources []string, destDir string) (string, error) {
	for _, dir := range sources {
		if dir == "" {
			continue
		}
		src := filepath.Join(dir, name)
		if info, err := os.Stat(src); err != nil || info.IsDir() {
			continue
		}
		if err := handlers.CopyFile(src, filepath.Join(destDir, name), nil); err != nil {
			return src, err
		}
		return src, nil
	}
	return "", fmt.Errorf("%w: %s in %s", ErrShortcutNotFound, name, strings.Join(sources, ", "))
}

func desktopDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Desktop"))
	}
	public := os.Getenv("PUBLIC")
	if public == "" {
		public = `C:\Users\Public`
	}
	return append(dirs, filepath.Join(public, "Desktop"))
}

func commonStartupDir() string {
	programData := os.Getenv("PROGRAMDATA")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return filepath.Join(programData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup")
}

// copyPlayerShortcut puts the player shortcut in the all-users Startup
// folder so the player launches at logon. A missing shortcut is reported
// but does not fail the task.
func copyPlayerShortcut(_ context.Context, env Env) error {
	src, err := CopyShortcut(PlayerShortcut, desktopDirs(), commonStartupDir())
	if errors.Is(err, ErrShortcutNotFound) {
		env.logf(events.LevelWarning, "%s not found on any desktop, startup entry not created", PlayerShortcut)
		return nil
	}
	if err != nil {
		return err
	}
	env.logf(events.LevelSuccess, "Copied %s to the Startup folder", src)
	return nil
}

// taskScript runs a PowerShell file from the task folder when present.
func taskScript(fileName string) Func {
	return func(ctx context.Context, env Env) error {
		path := filepath.Join(env.TaskDir, fileName)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			env.logf(events.LevelInfo, "%s not found, nothing to run", fileName)
			return nil
		}
		if env.Runner == nil {
			return fmt.Errorf("%w: no runner for %s", tasks.ErrConfiguration, fileName)
		}
		res := env.Runner.Run(ctx, runner.Command{
			Name:    "powershell.exe",
			Args:    []string{"-NoProfile", "-ExecutionPolicy", "Bypass", "-File", path},
			Wait:    true,
			Timeout: tasks.DefaultTimeout,
			Dir:     env.TaskDir,
			Log:     env.Log,
		})
		return res.Err
	}
}
