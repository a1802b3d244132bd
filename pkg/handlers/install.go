package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/download"
	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// InstallerExtensions are the file types picked up when a task folder holds
// a single installer and the config does not name one.
var InstallerExtensions = []string{".exe", ".msi", ".bat", ".cmd", ".ps1"}

func isInstaller(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range InstallerExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TaskDir returns the folder owned by a task under the programs root.
func (s *Set) TaskDir(key string) string {
	return filepath.Join(s.ProgramsRoot, key)
}

// FindInstallers lists installer files directly inside dir, sorted.
// A missing directory yields no installers and no error.
func FindInstallers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && isInstaller(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// resolveInstaller returns the path of the installer for key, downloading
// it first when it is absent and a download URL is configured.
func (s *Set) resolveInstaller(ctx context.Context, key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	dir := s.TaskDir(key)
	name := s.Vars.Expand(cfg.InstallerFile)

	if name == "" {
		found, err := FindInstallers(dir)
		if err != nil {
			return "", fmt.Errorf("%w: cannot read %s: %v", tasks.ErrResourceNotFound, dir, err)
		}
		switch len(found) {
		case 0:
		case 1:
			name = found[0]
			rep.Logf(events.LevelInfo, "Using installer %s", name)
		default:
			return "", fmt.Errorf("%w: %d installers in %s (%s), set installer_file",
				tasks.ErrConfiguration, len(found), dir, strings.Join(found, ", "))
		}
	}

	if name != "" {
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, name)
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if cfg.DownloadURL == "" || s.Downloader == nil {
		if name == "" {
			return "", fmt.Errorf("%w: installer not found in %s", tasks.ErrResourceNotFound, dir)
		}
		return "", fmt.Errorf("%w: installer not found: %s", tasks.ErrResourceNotFound, name)
	}

	if name == "" || filepath.IsAbs(name) {
		name = fileNameFromURL(cfg.DownloadURL)
	}
	dest := filepath.Join(dir, name)
	rep.Logf(events.LevelInfo, "Installer missing, downloading %s", cfg.DownloadURL)
	rep.Progress("download", 0, "")

	err := s.Downloader.Fetch(ctx, cfg.DownloadURL, dest, func(pct int, read, total int64) {
		text := progress.FormatBytes(read)
		if total > 0 {
			text += " / " + progress.FormatBytes(total)
		}
		rep.Progress("download", pct, text)
	})
	if err != nil {
		return "", fmt.Errorf("%w: download of %s failed: %v", tasks.ErrResourceNotFound, cfg.DownloadURL, err)
	}
	if cfg.DownloadSHA256 != "" {
		if err := download.Verify(dest, cfg.DownloadSHA256); err != nil {
			_ = os.Remove(dest)
			return "", fmt.Errorf("%w: %v", tasks.ErrResourceNotFound, err)
		}
	}
	rep.Logf(events.LevelInfo, "Downloaded %s", dest)
	return dest, nil
}

func fileNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return base
		}
	}
	return "installer.exe"
}

// installerCommand maps an installer file to the program that runs it.
func installerCommand(p string, args []string) (string, []string) {
	if strings.EqualFold(filepath.Ext(p), ".ps1") {
		return "powershell.exe", append([]string{"-NoProfile", "-ExecutionPolicy", "Bypass", "-File", p}, args...)
	}
	return p, args
}

func (s *Set) checkBlocking(cfg tasks.TaskConfig, rep Reporter) error {
	if len(cfg.BlockingApps) == 0 || s.Processes == nil {
		return nil
	}
	running := s.Processes.Running(cfg.BlockingApps)
	if len(running) == 0 {
		return nil
	}
	rep.Logf(events.LevelWarning, "Blocking applications running: %s", strings.Join(running, ", "))
	return fmt.Errorf("%w: close %s and retry", tasks.ErrBlocked, strings.Join(running, ", "))
}

func (s *Set) localInstall(ctx context.Context, key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	if err := s.checkBlocking(cfg, rep); err != nil {
		return "", err
	}
	p, err := s.resolveInstaller(ctx, key, cfg, rep)
	if err != nil {
		return "", err
	}

	rep.Progress("install", 50, filepath.Base(p))
	name, args := installerCommand(p, append([]string(nil), cfg.InstallArgs...))
	cmd := command(rep, name, args, cfg.Wait(), cfg)
	cmd.Dir = filepath.Dir(p)

	res := s.Runner.Run(ctx, cmd)
	if !res.Success() {
		return "", res.Err
	}
	switch {
	case !cfg.Wait():
		return fmt.Sprintf("launched %s", filepath.Base(p)), nil
	case res.RebootRequired():
		return fmt.Sprintf("installed %s (reboot required)", filepath.Base(p)), nil
	default:
		return fmt.Sprintf("installed %s", filepath.Base(p)), nil
	}
}

func (s *Set) manualAssisted(ctx context.Context, key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	p, err := s.resolveInstaller(ctx, key, cfg, rep)
	if err != nil {
		return "", err
	}
	if s.Opener == nil || s.Prompt == nil {
		return "", fmt.Errorf("%w: manual installs need an interactive session", tasks.ErrConfiguration)
	}

	rep.Logf(events.LevelInfo, "Opening %s for manual installation", p)
	if err := s.Opener.Open(p); err != nil {
		return "", err
	}

	msg := cfg.UserMessage
	if msg == "" {
		msg = fmt.Sprintf("Finish the %s installer, then press OK.", key)
	}
	rep.Progress("waiting for operator", 50, "")
	if !s.Prompt.Confirm("Manual installation: "+key, msg) {
		return "", fmt.Errorf("%w: manual installation of %s not confirmed", tasks.ErrUserCancelled, key)
	}
	return "installation confirmed by operator", nil
}
