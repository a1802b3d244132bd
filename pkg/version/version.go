// pkg/version/version.go - build information for the playertoolkit binary.

package version

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/windowsadmins/playertoolkit/pkg/version.version=..."
var (
	version   = "dev"
	revision  = ""
	buildDate = ""
	appName   = "playertoolkit"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	GoVersion string `json:"go_version"`
	BuildDate string `json:"build_date,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Version returns the linker-provided values, filling gaps from the module
// build information embedded by the Go toolchain.
func Version() Info {
	info := Info{
		Version:   version,
		Revision:  revision,
		GoVersion: runtime.Version(),
		BuildDate: buildDate,
	}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Revision == "" {
				info.Revision = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String renders "name version (revision)".
func (i Info) String() string {
	s := appName + " " + i.Version
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if i.Modified {
			rev += "+dirty"
		}
		s += " (" + rev + ")"
	}
	return s
}

// PrintFull prints the application name and detailed version information.
func PrintFull() {
	writeFull(os.Stdout, Version())
}

func writeFull(w io.Writer, v Info) {
	fmt.Fprintln(w, v.String())
	if v.BuildDate != "" {
		fmt.Fprintf(w, "  build date: \t%s\n", v.BuildDate)
	}
	fmt.Fprintf(w, "  go version: \t%s\n", v.GoVersion)
}

// Normalize trims trailing ".0" segments from version strings.
func Normalize(version string) string {
	parts := strings.Split(version, ".")
	for len(parts) > 1 && parts[len(parts)-1] == "0" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}
