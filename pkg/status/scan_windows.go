//go:build windows

package status

import (
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

var uninstallPaths = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// scanRegistry enumerates the machine-wide Uninstall keys.
func scanRegistry() ([]Software, error) {
	var items []Software
	for _, rPath := range uninstallPaths {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, rPath, registry.READ)
		if err != nil {
			logging.Warn("Registry path not found", "path", rPath, "error", err)
			continue
		}
		subKeys, err := key.ReadSubKeyNames(0)
		key.Close()
		if err != nil {
			logging.Warn("Unable to read sub keys", "path", rPath, "error", err)
			continue
		}
		for _, subKey := range subKeys {
			if s, ok := readEntry(rPath + `\` + subKey); ok {
				items = append(items, s)
			}
		}
	}
	return items, nil
}

func readEntry(fullPath string) (Software, bool) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, fullPath, registry.QUERY_VALUE)
	if err != nil {
		return Software{}, false
	}
	defer k.Close()

	name, _, err := k.GetStringValue("DisplayName")
	if err != nil {
		return Software{}, false
	}
	s := Software{Name: name, Key: fullPath}
	if v, _, err := k.GetStringValue("UninstallString"); err == nil {
		s.Uninstall = v
	}
	if v, _, err := k.GetStringValue("DisplayVersion"); err == nil {
		s.Version = v
	}
	if v, _, err := k.GetStringValue("InstallDate"); err == nil {
		s.Installed = parseInstallDate(v)
	}
	return s, true
}
