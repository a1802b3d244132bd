package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/playertoolkit/pkg/catalog"
	"github.com/windowsadmins/playertoolkit/pkg/config"
	"github.com/windowsadmins/playertoolkit/pkg/status"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

func testCatalog() *catalog.Catalog {
	cat := &catalog.Catalog{}
	cat.Add(map[string]tasks.TaskConfig{
		"Java":    {Kind: tasks.KindLocalInstall, Category: "Runtimes"},
		"Player":  {Kind: tasks.KindLocalInstall, Category: "Players", Dependencies: []string{"Java"}},
		"Cleanup": {Kind: tasks.KindCleanTemp, Category: "Sistema"},
	})
	return cat
}

func TestExtraOptions(t *testing.T) {
	extra := extraOptions(flags{
		installers: map[string]string{"Chrome": "chrome_x64.exe"},
		files:      map[string]string{"Chrome": "prefs.json", "Manuals": "guide.pdf"},
	})
	assert.Equal(t, tasks.ExtraOptions{InstallerFile: "chrome_x64.exe", SelectedFile: "prefs.json"}, extra["Chrome"])
	assert.Equal(t, tasks.ExtraOptions{SelectedFile: "guide.pdf"}, extra["Manuals"])
}

func TestSelectionCombinesSources(t *testing.T) {
	root := t.TempDir()
	groups := filepath.Join(root, catalog.GroupsDir)
	require.NoError(t, os.MkdirAll(groups, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(groups, "base.txt"), []byte("Cleanup\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, catalog.DriversDir, "nic"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, catalog.DriversDir, "nic", "nic.inf"), []byte("x"), 0644))

	cat := testCatalog()
	inv := status.Inventory{"VLC media player": {Name: "VLC media player", Version: "3.0", Uninstall: `C:\VLC\uninstall.exe`}}
	f := flags{selected: []string{"Player"}, category: "runtimes", group: "base", drivers: true, uninstall: []string{"vlc"}}

	got, err := selection(f, &config.Configuration{ProgramsRoot: root}, cat, inv)
	require.NoError(t, err)
	assert.Equal(t, []string{"Player", "Java", "Cleanup", "nic", "VLC media player"}, got)
	assert.Equal(t, tasks.KindInstallDriver, cat.Tasks["nic"].Kind)
	assert.Equal(t, tasks.KindUninstall, cat.Tasks["VLC media player"].Kind)
}

func TestSelectionErrors(t *testing.T) {
	cfg := &config.Configuration{ProgramsRoot: t.TempDir()}
	_, err := selection(flags{category: "Nope"}, cfg, testCatalog(), nil)
	assert.Error(t, err)
	_, err = selection(flags{group: "missing"}, cfg, testCatalog(), nil)
	assert.Error(t, err)
	_, err = selection(flags{uninstall: []string{"Ghost"}}, cfg, testCatalog(), status.Inventory{})
	assert.Error(t, err)
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	code := printPlan(&buf, testCatalog(), []string{"Player", "Java"})
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Batch 1:\n  📦 Java [local_install]\nBatch 2:\n  📦 Player [local_install]\n", buf.String())
}

func TestPrintPlanCycle(t *testing.T) {
	cat := &catalog.Catalog{}
	cat.Add(map[string]tasks.TaskConfig{
		"a": {Dependencies: []string{"b"}},
		"b": {Dependencies: []string{"a"}},
	})
	var buf bytes.Buffer
	assert.Equal(t, exitConfig, printPlan(&buf, cat, []string{"a", "b"}))
	assert.Contains(t, buf.String(), "dependency cycle detected")
}

func TestApplyVerbosity(t *testing.T) {
	cfg := &config.Configuration{LogLevel: "INFO"}
	applyVerbosity(cfg, 2)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.True(t, cfg.Verbose)
}
