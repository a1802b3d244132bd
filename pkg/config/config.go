// pkg/config/config.go - configuration settings for PlayerToolkit.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/playertoolkit/pkg/handlers"
	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// CSPRegistryPath is the HKLM key read when no configuration file exists.
const CSPRegistryPath = `SOFTWARE\PlayerToolkit\Config`

// Configuration holds the configurable options for PlayerToolkit in YAML format.
// Relative paths are resolved against the directory of the executable.
type Configuration struct {
	ProgramsRoot  string `yaml:"ProgramsRoot"`
	ConfDir       string `yaml:"ConfDir"`
	LogDir        string `yaml:"LogDir"`
	CatalogPath   string `yaml:"CatalogPath"`
	OverridesPath string `yaml:"OverridesPath"`
	VariablesPath string `yaml:"VariablesPath"`

	Parallel              bool   `yaml:"Parallel"`
	MaxWorkers            int    `yaml:"MaxWorkers"` // 0 means one per logical CPU
	DefaultTimeoutSeconds int    `yaml:"DefaultTimeoutSeconds"`
	PowerConfigPolicy     string `yaml:"PowerConfigPolicy"` // "all-must-succeed" or "best-effort"
	DownloadRetries       int    `yaml:"DownloadRetries"`

	LogLevel          string `yaml:"LogLevel"`
	LogRetentionRuns  int    `yaml:"LogRetentionRuns"`
	LogRetentionDays  int    `yaml:"LogRetentionDays"`
	StructuredLogging bool   `yaml:"StructuredLogging"`
	Verbose           bool   `yaml:"Verbose"`
}

// baseDir is where relative paths are anchored.
var baseDir = executableDir

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exe)
}

// DefaultConfigPath is the configuration file next to the executable.
func DefaultConfigPath() string {
	return filepath.Join(baseDir(), "conf", "config.yaml")
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	root := baseDir()
	conf := filepath.Join(root, "conf")
	retention := logging.DefaultRetentionPolicy()
	return &Configuration{
		ProgramsRoot:          filepath.Join(root, "Programas"),
		ConfDir:               conf,
		LogDir:                filepath.Join(root, "logs"),
		CatalogPath:           filepath.Join(conf, "catalog.yaml"),
		OverridesPath:         filepath.Join(conf, "config_personalizada.json"),
		VariablesPath:         filepath.Join(conf, "variables.json"),
		DefaultTimeoutSeconds: int(tasks.DefaultTimeout.Seconds()),
		PowerConfigPolicy:     string(handlers.PowerAllMustSucceed),
		DownloadRetries:       3,
		LogLevel:              "INFO",
		LogRetentionRuns:      retention.KeepRuns,
		LogRetentionDays:      retention.MaxAgeDays,
	}
}

// LoadConfig reads the YAML file at path over the defaults. When the file
// does not exist the registry policy key is tried, and failing that the
// defaults are returned.
func LoadConfig(path string) (*Configuration, error) {
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Configuration file does not exist", "path", path)
		if cspErr := loadFromCSP(cfg); cspErr != nil {
			logging.Debug("No registry configuration", "key", CSPRegistryPath, "error", cspErr)
		} else {
			logging.Info("Loaded configuration from registry", "key", CSPRegistryPath)
		}
	case err != nil:
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing configuration %s: %v", tasks.ErrConfiguration, path, err)
		}
	}

	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML.
func SaveConfig(path string, cfg *Configuration) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Configuration) resolvePaths() {
	root := baseDir()
	for _, p := range []*string{&c.ProgramsRoot, &c.ConfDir, &c.LogDir, &c.CatalogPath, &c.OverridesPath, &c.VariablesPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

// Validate rejects values the run cannot honour.
func (c *Configuration) Validate() error {
	var problems []string
	if c.ProgramsRoot == "" {
		problems = append(problems, "ProgramsRoot is empty")
	}
	if c.MaxWorkers < 0 {
		problems = append(problems, fmt.Sprintf("MaxWorkers must not be negative, got %d", c.MaxWorkers))
	}
	if c.DefaultTimeoutSeconds < 0 {
		problems = append(problems, fmt.Sprintf("DefaultTimeoutSeconds must not be negative, got %d", c.DefaultTimeoutSeconds))
	}
	if c.DownloadRetries < 0 {
		problems = append(problems, fmt.Sprintf("DownloadRetries must not be negative, got %d", c.DownloadRetries))
	}
	if _, err := handlers.ParsePowerPolicy(c.PowerConfigPolicy); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", tasks.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// PowerPolicy returns the parsed power configuration policy.
func (c *Configuration) PowerPolicy() handlers.PowerPolicy {
	p, err := handlers.ParsePowerPolicy(c.PowerConfigPolicy)
	if err != nil {
		return handlers.PowerAllMustSucceed
	}
	return p
}

// Retention returns the log retention policy.
func (c *Configuration) Retention() logging.RetentionPolicy {
	return logging.RetentionPolicy{KeepRuns: c.LogRetentionRuns, MaxAgeDays: c.LogRetentionDays}
}
