package runner

import (
	"fmt"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// Opener launches a file with the desktop's default action.
type Opener interface {
	Open(path string) error
}

// ShellOpener implements Opener with the platform's file launcher.
type ShellOpener struct{}

// Open starts the default handler for path and returns without waiting.
func (ShellOpener) Open(path string) error {
	cmd := openCommand(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: could not open %s: %v", tasks.ErrExternalProcess, path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
