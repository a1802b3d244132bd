//go:build windows

package config

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

// loadFromCSP overlays values from the HKLM policy key onto cfg.
func loadFromCSP(cfg *Configuration) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, CSPRegistryPath, registry.READ)
	if err != nil {
		return fmt.Errorf("failed to open registry key %s: %v", CSPRegistryPath, err)
	}
	defer key.Close()

	loadString(key, "ProgramsRoot", &cfg.ProgramsRoot)
	loadString(key, "ConfDir", &cfg.ConfDir)
	loadString(key, "LogDir", &cfg.LogDir)
	loadString(key, "CatalogPath", &cfg.CatalogPath)
	loadString(key, "OverridesPath", &cfg.OverridesPath)
	loadString(key, "VariablesPath", &cfg.VariablesPath)
	loadString(key, "PowerConfigPolicy", &cfg.PowerConfigPolicy)
	loadString(key, "LogLevel", &cfg.LogLevel)

	loadInt(key, "MaxWorkers", &cfg.MaxWorkers)
	loadInt(key, "DefaultTimeoutSeconds", &cfg.DefaultTimeoutSeconds)
	loadInt(key, "DownloadRetries", &cfg.DownloadRetries)
	loadInt(key, "LogRetentionRuns", &cfg.LogRetentionRuns)
	loadInt(key, "LogRetentionDays", &cfg.LogRetentionDays)

	loadBool(key, "Parallel", &cfg.Parallel)
	loadBool(key, "StructuredLogging", &cfg.StructuredLogging)
	loadBool(key, "Verbose", &cfg.Verbose)
	return nil
}

func loadString(key registry.Key, name string, target *string) {
	if val, _, err := key.GetStringValue(name); err == nil && val != "" {
		*target = val
		logging.Debug("Registry configuration value", "name", name, "value", val)
	}
}

// loadBool accepts "true"/"false", "1"/"0" or a DWORD.
func loadBool(key registry.Key, name string, target *bool) {
	if val, _, err := key.GetStringValue(name); err == nil {
		if parsed, perr := strconv.ParseBool(val); perr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(name); err == nil {
		*target = val != 0
	}
}

func loadInt(key registry.Key, name string, target *int) {
	if val, _, err := key.GetStringValue(name); err == nil {
		if parsed, perr := strconv.Atoi(val); perr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(name); err == nil {
		*target = int(val)
	}
}
