//go:build !windows

package logging

import "os"

func enableVirtualTerminal(*os.File) {}
