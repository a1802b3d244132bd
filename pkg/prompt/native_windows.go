//go:build windows

package prompt

import (
	"github.com/gonutz/w32"
)

// Native shows confirmations as a topmost message box so they are seen even
// while an installer window has focus. File questions fall back to Console.
type Native struct {
	*Console
}

// NewNative returns the platform prompt.
func NewNative() *Native {
	return &Native{Console: NewConsole(nil, nil)}
}

func (n *Native) Confirm(title, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	ret := w32.MessageBox(0, message, title, w32.MB_OKCANCEL|w32.MB_ICONINFORMATION|w32.MB_TOPMOST)
	return ret == w32.IDOK
}
