// pkg/catalog/catalog.go - builds the task configuration set from the
// built-in catalog, an optional catalog file, the folders found under the
// programs root and the operator's overrides.

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

const (
	// DriversDir holds driver packages, one subfolder each.
	DriversDir = "Drivers"
	// GroupsDir holds selection groups, one text file each.
	GroupsDir = "Grupos"

	DefaultCategory    = "Sin Categoría"
	DefaultIcon        = "📦"
	DefaultUserMessage = "Se abrirá el instalador. Completa la instalación y haz clic en 'Aceptar' para continuar."
)

// ignoredFolders are never treated as tasks.
var ignoredFolders = map[string]bool{
	strings.ToLower(DriversDir): true,
	strings.ToLower(GroupsDir):  true,
	"__pycache__":               true,
}

// Options locates the inputs of Load. Empty paths are skipped.
type Options struct {
	ProgramsRoot  string
	CatalogPath   string
	OverridesPath string
}

// Catalog is the merged task configuration set. The caller owns it; runs
// read it and never write to it.
type Catalog struct {
	Root  string
	Tasks map[string]tasks.TaskConfig
	// Discovered lists folders that had no configuration and were guessed.
	Discovered []string
}

// file is the on-disk catalog layout.
type file struct {
	Tasks map[string]tasks.TaskConfig `yaml:"tasks"`
}

// Defaults is the entry every task falls back to.
func Defaults() tasks.TaskConfig {
	d := tasks.Defaults()
	d.Kind = tasks.KindLocalInstall
	d.Category = DefaultCategory
	d.Icon = DefaultIcon
	d.UserMessage = DefaultUserMessage
	return d
}

// Load merges, lowest precedence first: the built-in catalog, the catalog
// file, guesses for unconfigured folders under the programs root, the
// overrides file, and finally Defaults for anything still unset.
func Load(opts Options) (*Catalog, error) {
	entries := Builtin()

	if opts.CatalogPath != "" {
		fromFile, err := loadCatalogFile(opts.CatalogPath)
		if err != nil {
			return nil, err
		}
		for key, cfg := range fromFile {
			if err := overlay(entries, key, cfg); err != nil {
				return nil, err
			}
		}
	}

	cat := &Catalog{Root: opts.ProgramsRoot}
	folders, err := taskFolders(opts.ProgramsRoot)
	if err != nil {
		return nil, err
	}
	for _, name := range folders {
		if _, known := entries[name]; known {
			continue
		}
		entries[name] = Guess(filepath.Join(opts.ProgramsRoot, name), name)
		cat.Discovered = append(cat.Discovered, name)
	}

	if opts.OverridesPath != "" {
		overrides, err := LoadOverrides(opts.OverridesPath)
		if err != nil {
			logging.Error("Could not load custom configuration", "path", opts.OverridesPath, "error", err)
		}
		for key, cfg := range overrides {
			if err := overlay(entries, key, cfg); err != nil {
				return nil, err
			}
			cat.Discovered = remove(cat.Discovered, key)
		}
	}

	defaults := Defaults()
	for key, cfg := range entries {
		merged, err := withDefaults(cfg, defaults)
		if err != nil {
			return nil, fmt.Errorf("applying defaults to %s: %w", key, err)
		}
		entries[key] = merged
	}
	cat.Tasks = entries

	logging.Info("Catalog loaded", "tasks", len(entries), "discovered", len(cat.Discovered))
	return cat, nil
}

// overlay merges src over the entry for key, adding it if absent. Non-zero
// fields of src win.
func overlay(entries map[string]tasks.TaskConfig, key string, src tasks.TaskConfig) error {
	dst, ok := entries[key]
	if !ok {
		entries[key] = src
		return nil
	}
	wait := src.WaitForCompletion
	src.WaitForCompletion = nil
	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return fmt.Errorf("merging configuration for %s: %w", key, err)
	}
	if wait != nil {
		dst.WaitForCompletion = wait
	}
	entries[key] = dst
	return nil
}

// withDefaults fills the unset fields of cfg from d. mergo reads a pointer
// to false as unset, so the wait flag is carried over by hand.
func withDefaults(cfg, d tasks.TaskConfig) (tasks.TaskConfig, error) {
	wait := cfg.WaitForCompletion
	cfg.WaitForCompletion = nil
	if err := mergo.Merge(&cfg, d.Clone()); err != nil {
		return cfg, err
	}
	if wait != nil {
		cfg.WaitForCompletion = wait
	}
	return cfg, nil
}

func loadCatalogFile(path string) (map[string]tasks.TaskConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("No catalog file", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing catalog %s: %v", tasks.ErrConfiguration, path, err)
	}
	return f.Tasks, nil
}

// taskFolders lists candidate task folders under root. A missing root is
// logged and yields no folders.
func taskFolders(root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn("Programs directory not found", "path", root)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading programs directory %s: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !ignoredFolders[strings.ToLower(e.Name())] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Guess derives a configuration for a folder nobody configured: a PowerShell
// script runs, an MSI installs quietly, an executable installs, and any
// other file is offered for copying.
func Guess(dir, key string) tasks.TaskConfig {
	cfg := tasks.TaskConfig{Kind: tasks.KindLocalInstall, UninstallKey: key}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Could not inspect folder to guess its configuration", "path", dir, "error", err)
		return cfg
	}
	var ps1, msi, exe, other []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".ps1":
			ps1 = append(ps1, e.Name())
		case ".msi":
			msi = append(msi, e.Name())
		case ".exe":
			exe = append(exe, e.Name())
		default:
			other = append(other, e.Name())
		}
	}

	switch {
	case len(ps1) > 0:
		cfg.Kind = tasks.KindRunPowerShell
		cfg.ScriptPath = ps1[0]
		cfg.Icon = "📜"
	case len(msi) > 0:
		cfg.InstallerFile = msi[0]
		cfg.InstallArgs = tasks.Args{"/qn"}
	case len(exe) > 0:
		if len(exe) == 1 {
			cfg.InstallerFile = exe[0]
		}
	case len(other) > 0:
		cfg.Kind = tasks.KindCopyInteractive
		cfg.Icon = "📂"
		if len(other) == 1 {
			cfg.SelectedFile = other[0]
		}
	}
	return cfg
}

// Keys returns the task keys, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Tasks))
	for k := range c.Tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, cfg := range c.Tasks {
		if !seen[cfg.Category] {
			seen[cfg.Category] = true
			out = append(out, cfg.Category)
		}
	}
	sort.Strings(out)
	return out
}

// InCategory returns the sorted keys whose category matches, ignoring case.
func (c *Catalog) InCategory(category string) []string {
	var out []string
	for _, k := range c.Keys() {
		if strings.EqualFold(c.Tasks[k].Category, category) {
			out = append(out, k)
		}
	}
	return out
}

// Get returns the configuration for key.
func (c *Catalog) Get(key string) (tasks.TaskConfig, bool) {
	cfg, ok := c.Tasks[key]
	return cfg, ok
}

// Add puts extra entries into the catalog, such as driver or uninstall
// tasks built for one run. Existing keys are replaced.
func (c *Catalog) Add(entries map[string]tasks.TaskConfig) {
	if c.Tasks == nil {
		c.Tasks = make(map[string]tasks.TaskConfig, len(entries))
	}
	defaults := Defaults()
	for k, cfg := range entries {
		merged, err := withDefaults(cfg, defaults)
		if err != nil {
			logging.Warn("Could not apply defaults", "task", k, "error", err)
		}
		c.Tasks[k] = merged
	}
}

// Validate checks every entry and returns one error per invalid task.
func (c *Catalog) Validate() []error {
	var errs []error
	for _, k := range c.Keys() {
		cfg := c.Tasks[k]
		if !cfg.Kind.Known() {
			errs = append(errs, fmt.Errorf("%w: task %s has type %q", tasks.ErrUnknownKind, k, string(cfg.Kind)))
			continue
		}
		if err := cfg.Validate(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// LoadVariables reads the custom %NAME% table. A missing file is empty.
func LoadVariables(path string) (tasks.Variables, error) {
	vars := tasks.Variables{}
	if path == "" {
		return vars, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return vars, fmt.Errorf("reading variables %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &vars); err != nil {
		return tasks.Variables{}, fmt.Errorf("%w: parsing variables %s: %v", tasks.ErrConfiguration, path, err)
	}
	return vars, nil
}
