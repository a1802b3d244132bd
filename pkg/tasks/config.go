// pkg/tasks/config.go - per-task configuration as read from the catalog.

package tasks

import (
	"fmt"
	"time"
)

// DefaultTimeout applies to waited commands whose config leaves TimeoutSeconds unset.
const DefaultTimeout = 300 * time.Second

// RegistrySpec describes a single registry value write.
type RegistrySpec struct {
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
	Key   string `yaml:"key,omitempty" json:"key,omitempty"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
	Type  string `yaml:"type,omitempty" json:"type,omitempty"`
}

// ServiceSpec names a Windows service and the action to apply to it.
type ServiceSpec struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Action string `yaml:"action,omitempty" json:"action,omitempty"`
}

// ScheduledTaskSpec describes a schtasks registration.
type ScheduledTaskSpec struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Command string `yaml:"command,omitempty" json:"command,omitempty"`
	Trigger string `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	User    string `yaml:"user,omitempty" json:"user,omitempty"`
}

// TaskConfig is the declarative description of one task. The task key is
// the map key in the catalog and doubles as the folder name under the
// programs root.
type TaskConfig struct {
	Kind              Kind     `yaml:"type" json:"type"`
	Category          string   `yaml:"category,omitempty" json:"category,omitempty"`
	Icon              string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	UserMessage       string   `yaml:"user_message,omitempty" json:"user_message,omitempty"`
	InstallerFile     string   `yaml:"installer_file,omitempty" json:"installer_file,omitempty"`
	InstallArgs       Args     `yaml:"install_args,omitempty" json:"install_args,omitempty"`
	WaitForCompletion *bool    `yaml:"wait_for_completion,omitempty" json:"wait_for_completion,omitempty"`
	TimeoutSeconds    int      `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Version           string   `yaml:"version,omitempty" json:"version,omitempty"`
	DownloadURL       string   `yaml:"download_url,omitempty" json:"download_url,omitempty"`
	DownloadSHA256    string   `yaml:"download_sha256,omitempty" json:"download_sha256,omitempty"`
	UninstallKey      string   `yaml:"uninstall_key,omitempty" json:"uninstall_key,omitempty"`
	UninstallString   string   `yaml:"uninstall_string,omitempty" json:"uninstall_string,omitempty"`
	SelectedFile      string   `yaml:"selected_file,omitempty" json:"selected_file,omitempty"`
	ScriptPath        string   `yaml:"script_path,omitempty" json:"script_path,omitempty"`
	DriverDirName     string   `yaml:"driver_dir_name,omitempty" json:"driver_dir_name,omitempty"`
	PreTaskScript     string   `yaml:"pre_task_script,omitempty" json:"pre_task_script,omitempty"`
	PostTaskScript    string   `yaml:"post_task_script,omitempty" json:"post_task_script,omitempty"`
	Dependencies      []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	BlockingApps      []string `yaml:"blocking_apps,omitempty" json:"blocking_apps,omitempty"`

	Registry      RegistrySpec      `yaml:"registry,omitempty" json:"registry,omitempty"`
	Service       ServiceSpec       `yaml:"service,omitempty" json:"service,omitempty"`
	ScheduledTask ScheduledTaskSpec `yaml:"scheduled_task,omitempty" json:"scheduled_task,omitempty"`
}

// Defaults returns the values every config falls back to for unset fields.
func Defaults() TaskConfig {
	wait := true
	return TaskConfig{
		WaitForCompletion: &wait,
		TimeoutSeconds:    int(DefaultTimeout / time.Second),
		Registry:          RegistrySpec{Type: "REG_SZ"},
		Service:           ServiceSpec{Action: "start"},
		ScheduledTask:     ScheduledTaskSpec{Trigger: "ONLOGON", User: "SYSTEM"},
	}
}

// Wait reports whether the task's command should be awaited. Unset means true.
func (c TaskConfig) Wait() bool {
	if c.WaitForCompletion == nil {
		return true
	}
	return *c.WaitForCompletion
}

// Timeout returns the configured timeout, or DefaultTimeout if unset.
func (c TaskConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Clone returns a deep copy so per-run overrides never touch the catalog.
func (c TaskConfig) Clone() TaskConfig {
	out := c
	if c.WaitForCompletion != nil {
		w := *c.WaitForCompletion
		out.WaitForCompletion = &w
	}
	if c.InstallArgs != nil {
		out.InstallArgs = append(Args(nil), c.InstallArgs...)
	}
	if c.Dependencies != nil {
		out.Dependencies = append([]string(nil), c.Dependencies...)
	}
	if c.BlockingApps != nil {
		out.BlockingApps = append([]string(nil), c.BlockingApps...)
	}
	return out
}

// Validate checks the fields the given kind depends on. It does not touch
// the filesystem; missing resources are reported by the handlers.
func (c TaskConfig) Validate(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty task key", ErrConfiguration)
	}
	for _, dep := range c.Dependencies {
		if dep == key {
			return fmt.Errorf("%w: task %s depends on itself", ErrConfiguration, key)
		}
	}
	switch c.Kind {
	case KindModifyRegistry:
		if c.Registry.Path == "" || c.Registry.Key == "" {
			return fmt.Errorf("%w: task %s needs registry path and key", ErrConfiguration, key)
		}
	case KindManageService:
		if c.Service.Name == "" {
			return fmt.Errorf("%w: task %s needs a service name", ErrConfiguration, key)
		}
	case KindCreateScheduledTask:
		if c.ScheduledTask.Name == "" || c.ScheduledTask.Command == "" {
			return fmt.Errorf("%w: task %s needs scheduled task name and command", ErrConfiguration, key)
		}
	case KindRunPowerShell:
		if c.ScriptPath == "" {
			return fmt.Errorf("%w: task %s needs script_path", ErrConfiguration, key)
		}
	case KindInstallDriver:
		if c.DriverDirName == "" {
			return fmt.Errorf("%w: task %s needs driver_dir_name", ErrConfiguration, key)
		}
	}
	return nil
}

// ExtraOptions carries per-run choices made by the operator, such as an
// installer picked among several or a version selection.
type ExtraOptions struct {
	InstallerFile   string `json:"installer_file,omitempty"`
	SelectedFile    string `json:"selected_file,omitempty"`
	UninstallString string `json:"uninstall_string,omitempty"`
	Version         string `json:"version,omitempty"`
}

// Empty reports whether no override is set.
func (o ExtraOptions) Empty() bool {
	return o == ExtraOptions{}
}

// Apply returns a copy of cfg with the non-empty overrides merged in.
func (o ExtraOptions) Apply(cfg TaskConfig) TaskConfig {
	out := cfg.Clone()
	if o.InstallerFile != "" {
		out.InstallerFile = o.InstallerFile
	}
	if o.SelectedFile != "" {
		out.SelectedFile = o.SelectedFile
	}
	if o.UninstallString != "" {
		out.UninstallString = o.UninstallString
	}
	if o.Version != "" {
		out.Version = o.Version
	}
	return out
}
