package handlers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

func (s *Set) copyInteractive(key string, cfg tasks.TaskConfig, rep Reporter) (string, error) {
	if cfg.SelectedFile == "" {
		return "", fmt.Errorf("%w: no file selected for %s", tasks.ErrConfiguration, key)
	}
	src := filepath.Join(s.TaskDir(key), cfg.SelectedFile)
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", tasks.ErrResourceNotFound, src)
	}
	if s.Prompt == nil {
		return "", fmt.Errorf("%w: copying needs an interactive session", tasks.ErrConfiguration)
	}

	dest, ok := s.Prompt.SaveAs("Save "+cfg.SelectedFile, cfg.SelectedFile)
	if !ok || dest == "" {
		return "", fmt.Errorf("%w: no destination chosen for %s", tasks.ErrUserCancelled, cfg.SelectedFile)
	}
	dest = s.Vars.Expand(dest)

	rep.Logf(events.LevelInfo, "Copying %s to %s", src, dest)
	if err := CopyFile(src, dest, func(pct int, read, total int64) {
		rep.Progress("copy", pct, progress.FormatBytes(read))
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("copied %s to %s", cfg.SelectedFile, dest), nil
}

// CopyFile copies src to dest, creating dest's parent and preserving the
// file mode and modification time.
func CopyFile(src, dest string, onProgress progress.Func) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %v", tasks.ErrResourceNotFound, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", tasks.ErrExternalProcess, filepath.Dir(dest), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %v", tasks.ErrResourceNotFound, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", tasks.ErrExternalProcess, dest, err)
	}

	var r io.Reader = in
	if onProgress != nil {
		r = progress.NewReader(in, info.Size(), onProgress)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: copy to %s: %v", tasks.ErrExternalProcess, dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", tasks.ErrExternalProcess, dest, err)
	}

	_ = os.Chmod(dest, info.Mode().Perm())
	_ = os.Chtimes(dest, info.ModTime(), info.ModTime())
	return nil
}
