// pkg/status/status.go - inventory of software installed on the machine.

package status

import (
	"sort"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

// Software is one entry of the Windows Uninstall registry keys.
type Software struct {
	Name      string    `json:"name" yaml:"name"`
	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	Uninstall string    `json:"uninstall_string" yaml:"uninstall_string"`
	Installed time.Time `json:"install_date,omitempty" yaml:"install_date,omitempty"`
	Key       string    `json:"key" yaml:"key"`
}

// InstallDate renders the install date the way the Uninstall tab shows it.
func (s Software) InstallDate() string {
	if s.Installed.IsZero() {
		return ""
	}
	return s.Installed.Format("02-01-2006")
}

// Inventory maps display name to installed software.
type Inventory map[string]Software

// scan is the platform scanner; tests replace it.
var scan = scanRegistry

// Scan reads the installed-software inventory. Platforms without a registry
// return an empty inventory.
func Scan() Inventory {
	items, err := scan()
	if err != nil {
		logging.Warn("Failed to scan installed software", "error", err)
		return Inventory{}
	}
	inv := make(Inventory, len(items))
	for _, s := range items {
		if skip(s) {
			continue
		}
		inv[s.Name] = s
	}
	logging.Debug("Installed software scanned", "entries", len(inv))
	return inv
}

// skip drops hotfixes, runtime redistributables and entries that cannot be
// uninstalled.
func skip(s Software) bool {
	return s.Name == "" ||
		s.Uninstall == "" ||
		strings.HasPrefix(s.Name, "KB") ||
		strings.Contains(s.Name, "Microsoft Visual C++")
}

// parseInstallDate reads the yyyymmdd InstallDate value.
func parseInstallDate(v string) time.Time {
	t, err := time.Parse("20060102", strings.TrimSpace(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Names returns the display names, sorted.
func (inv Inventory) Names() []string {
	names := make([]string, 0, len(inv))
	for n := range inv {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds the entry whose display name contains key, ignoring case.
// When several match, the highest version wins.
func (inv Inventory) Lookup(key string) (Software, bool) {
	needle := strings.ToLower(strings.TrimSpace(key))
	if needle == "" {
		return Software{}, false
	}
	if s, ok := inv[key]; ok {
		return s, true
	}

	var best Software
	found := false
	for _, name := range inv.Names() {
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		s := inv[name]
		if !found || IsOlderVersion(best.Version, s.Version) {
			best = s
			found = true
		}
	}
	return best, found
}

// UninstallString returns the uninstall command for the entry matching key.
func (inv Inventory) UninstallString(key string) (string, bool) {
	s, ok := inv.Lookup(key)
	if !ok {
		return "", false
	}
	return s.Uninstall, true
}

// IsInstalled reports whether an entry matches key.
func (inv Inventory) IsInstalled(key string) bool {
	_, ok := inv.Lookup(key)
	return ok
}

// IsOlderVersion reports whether local is strictly older than remote. An
// unparseable local version is older than any parseable remote one.
func IsOlderVersion(local, remote string) bool {
	vRemote, errRemote := version.NewVersion(remote)
	if errRemote != nil {
		return false
	}
	vLocal, errLocal := version.NewVersion(local)
	if errLocal != nil {
		logging.Debug("Unparseable installed version", "local", local, "remote", remote)
		return true
	}
	return vLocal.LessThan(vRemote)
}
