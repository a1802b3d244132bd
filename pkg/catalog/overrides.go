package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// legacyFields maps the field names of older override files to the current
// ones. Dotted targets land in a nested section.
var legacyFields = map[string]string{
	"tipo":             "type",
	"args_instalacion": "install_args",
	"categoria":        "category",
	"mensaje_usuario":  "user_message",
	"url":              "download_url",
	"reg_path":         "registry.path",
	"reg_key":          "registry.key",
	"reg_value":        "registry.value",
	"reg_type":         "registry.type",
	"service_name":     "service.name",
	"service_action":   "service.action",
	"task_name":        "scheduled_task.name",
	"task_command":     "scheduled_task.command",
	"task_trigger":     "scheduled_task.trigger",
	"task_user":        "scheduled_task.user",
}

// LoadOverrides reads the operator's JSON overrides keyed by task. Field
// names from older files are accepted. A missing file yields no overrides.
func LoadOverrides(path string) (map[string]tasks.TaskConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading overrides %s: %w", path, err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing overrides %s: %v", tasks.ErrConfiguration, path, err)
	}

	out := make(map[string]tasks.TaskConfig, len(raw))
	for key, fields := range raw {
		cfg, err := decodeEntry(fields)
		if err != nil {
			logging.Warn("Ignoring invalid override", "task", key, "error", err)
			continue
		}
		out[key] = cfg
	}
	return out, nil
}

// decodeEntry normalizes one raw entry and decodes it into a TaskConfig.
func decodeEntry(fields map[string]interface{}) (tasks.TaskConfig, error) {
	norm := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		if value == nil {
			continue
		}
		target := name
		if t, ok := legacyFields[name]; ok {
			target = t
		}
		if section, field, nested := strings.Cut(target, "."); nested {
			sub, _ := norm[section].(map[string]interface{})
			if sub == nil {
				sub = map[string]interface{}{}
				norm[section] = sub
			}
			sub[field] = value
			continue
		}
		norm[target] = value
	}

	var cfg tasks.TaskConfig
	data, err := json.Marshal(norm)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveOverrides writes overrides as indented JSON.
func SaveOverrides(path string, overrides map[string]tasks.TaskConfig) error {
	data, err := json.MarshalIndent(overrides, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadGroups reads selection groups from dir: each NAME.txt lists one task
// key per line. A missing directory has no groups.
func LoadGroups(dir string) (map[string][]string, error) {
	groups := map[string][]string{}
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return groups, err
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return groups, fmt.Errorf("reading group %s: %w", path, err)
		}
		var keys []string
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				keys = append(keys, line)
			}
		}
		groups[strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))] = keys
	}
	return groups, nil
}

// DiscoverDrivers lists the driver packages under root/Drivers: every
// subfolder that contains at least one .inf file at any depth.
func DiscoverDrivers(root string) []string {
	base := filepath.Join(root, DriversDir)
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if hasINF(filepath.Join(base, e.Name())) {
			found = append(found, e.Name())
		}
	}
	sort.Strings(found)
	return found
}

func hasINF(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".inf") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// DriverTasks builds install_driver tasks for the named driver packages.
func DriverTasks(names []string) map[string]tasks.TaskConfig {
	out := make(map[string]tasks.TaskConfig, len(names))
	for _, n := range names {
		out[n] = tasks.TaskConfig{Kind: tasks.KindInstallDriver, DriverDirName: n, Category: "Drivers", Icon: "🔌"}
	}
	return out
}

// UninstallTasks builds uninstall tasks from display name to uninstall command.
func UninstallTasks(commands map[string]string) map[string]tasks.TaskConfig {
	out := make(map[string]tasks.TaskConfig, len(commands))
	for name, cmd := range commands {
		out[name] = tasks.TaskConfig{Kind: tasks.KindUninstall, UninstallString: cmd, UninstallKey: name, Category: "Desinstalar", Icon: "🗑️"}
	}
	return out
}
