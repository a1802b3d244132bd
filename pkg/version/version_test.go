package version

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestVersionFromBuildInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	})
	v := Version()
	assert.Equal(t, "1.4.0", v.Version)
	assert.Equal(t, "playertoolkit 1.4.0 (0123456789ab+dirty)", v.String())
}

func TestVersionWithoutBuildInfo(t *testing.T) {
	withBuildInfo(t, nil)
	v := Version()
	assert.Equal(t, "dev", v.Version)
	assert.Equal(t, "playertoolkit dev", v.String())

	var buf bytes.Buffer
	writeFull(&buf, v)
	assert.Contains(t, buf.String(), "go version:")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "3", Normalize("3.0.0"))
	assert.Equal(t, "3.0.1", Normalize("3.0.1"))
	assert.Equal(t, "0", Normalize("0"))
}
