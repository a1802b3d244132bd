//go:build !windows

package prompt

// Native is the console prompt on platforms without a message box.
type Native struct {
	*Console
}

// NewNative returns the platform prompt.
func NewNative() *Native {
	return &Native{Console: NewConsole(nil, nil)}
}
