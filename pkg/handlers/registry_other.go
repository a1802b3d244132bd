//go:build !windows

package handlers

import (
	"fmt"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// NativeRegistry is unavailable off Windows.
type NativeRegistry struct{}

func (NativeRegistry) Write(RegistryValue) error {
	return fmt.Errorf("%w: registry not available on this platform", tasks.ErrExternalProcess)
}
