package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

var productCodeRe = regexp.MustCompile(`\{[A-Fa-f0-9]{8}-[A-Fa-f0-9]{4}-[A-Fa-f0-9]{4}-[A-Fa-f0-9]{4}-[A-Fa-f0-9]{12}\}`)

// innoUninstallerRe matches the Inno Setup uninstaller names unins000.exe to unins999.exe.
var innoUninstallerRe = regexp.MustCompile(`^unins\d{3}\.exe$`)

var innoSilentArgs = []string{"/VERYSILENT", "/SUPPRESSMSGBOXES", "/NORESTART"}

var silentFlags = map[string]bool{
	"/s": true, "-s": true, "/silent": true, "/verysilent": true,
	"/quiet": true, "/qn": true, "--silent": true, "/q": true,
}

// NormalizeUninstall turns a registry UninstallString into a silent
// command line:
//   - Inno Setup (unins000.exe, unins001.exe, ...) gets /VERYSILENT /SUPPRESSMSGBOXES /NORESTART
//   - msiexec with a product code becomes msiexec /x {GUID} /qn /norestart
//   - msiexec without a product code keeps its arguments plus /qn
//   - anything else gets /S unless a silent flag is already present
func NormalizeUninstall(raw string) (string, []string) {
	exe, rest := splitCommandLine(strings.TrimSpace(raw))
	if exe == "" {
		return "", nil
	}
	args := tasks.SplitArgs(rest)
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(exe, `\`, "/")))

	switch {
	case innoUninstallerRe.MatchString(base):
		return exe, appendMissing(args, innoSilentArgs...)
	case base == "msiexec" || base == "msiexec.exe":
		if guid := productCodeRe.FindString(raw); guid != "" {
			return "msiexec", []string{"/x", guid, "/qn", "/norestart"}
		}
		return exe, appendMissing(args, "/qn")
	default:
		for _, a := range args {
			if silentFlags[strings.ToLower(a)] {
				return exe, args
			}
		}
		return exe, append(args, "/S")
	}
}

// splitCommandLine separates the program from its arguments. The program
// is either quoted or ends at the first ".exe".
func splitCommandLine(s string) (string, string) {
	if s == "" {
		return "", ""
	}
	if s[0] == '"' {
		if end := strings.Index(s[1:], `"`); end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:])
		}
		return strings.Trim(s, `"`), ""
	}
	if idx := strings.Index(strings.ToLower(s), ".exe"); idx >= 0 {
		return s[:idx+4], strings.TrimSpace(s[idx+4:])
	}
	if sp := strings.IndexAny(s, " \t"); sp >= 0 {
		return s[:sp], strings.TrimSpace(s[sp+1:])
	}
	return s, ""
}

func appendMissing(args []string, flags ...string) []string {
	for _, f := range flags {
		found := false
		for _, a := range args {
			if strings.EqualFold(a, f) {
				found = true
				break
			}
		}
		if !found {
			args = append(args, f)
		}
	}
	return args
}

func (s *Set) uninstall(ctx context.Context, key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	raw := cfg.UninstallString
	if raw == "" && cfg.UninstallKey != "" && s.Software != nil {
		raw, _ = s.Software.UninstallString(cfg.UninstallKey)
	}
	if raw == "" {
		return "", fmt.Errorf("%w: no uninstall command for %s", tasks.ErrResourceNotFound, key)
	}
	if err := s.checkBlocking(cfg, rep); err != nil {
		return "", err
	}

	name, args := NormalizeUninstall(raw)
	rep.Logf(events.LevelInfo, "Uninstalling with %s %s", name, strings.Join(args, " "))
	rep.Progress("uninstall", 50, "")

	res := s.Runner.Run(ctx, command(rep, name, args, true, cfg))
	if !res.Success() {
		return "", res.Err
	}
	if res.RebootRequired() {
		return "uninstalled (reboot required)", nil
	}
	return "uninstalled", nil
}
