//go:build !windows

package runner

import (
	"os/exec"
	"runtime"
)

func hideWindow(*exec.Cmd) {}

func openCommand(path string) *exec.Cmd {
	if runtime.GOOS == "darwin" {
		return exec.Command("open", path)
	}
	return exec.Command("xdg-open", path)
}
