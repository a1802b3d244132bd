package runner

import (
	"path/filepath"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// ExitRebootRequired is the Windows Installer code for "success, reboot pending".
const ExitRebootRequired = 3010

// SuccessCode reports whether an exit code counts as success.
func SuccessCode(code int) bool {
	return code == 0 || code == ExitRebootRequired
}

// Prepare returns the effective argv for name and args: placeholders are
// expanded, surrounding quotes are stripped and a bare .msi path is routed
// through msiexec /i.
func Prepare(name string, args []string, vars tasks.Variables) []string {
	name = trimQuotes(strings.TrimSpace(vars.Expand(name)))
	if name == "" {
		return nil
	}

	expanded := make([]string, 0, len(args))
	for _, a := range args {
		a = vars.Expand(a)
		if a == "" {
			continue
		}
		expanded = append(expanded, a)
	}

	if strings.EqualFold(filepath.Ext(name), ".msi") && !isMsiexec(name) {
		return append([]string{"msiexec", "/i", name}, expanded...)
	}
	return append([]string{name}, expanded...)
}

func isMsiexec(name string) bool {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	return base == "msiexec" || base == "msiexec.exe"
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
