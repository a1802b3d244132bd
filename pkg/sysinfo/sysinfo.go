// pkg/sysinfo/sysinfo.go - machine facts logged at the start of a run.

package sysinfo

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

// Facts describes the machine being provisioned.
type Facts struct {
	Hostname      string `json:"hostname" yaml:"hostname"`
	OS            string `json:"os" yaml:"os"`
	Platform      string `json:"platform" yaml:"platform"`
	Version       string `json:"platform_version" yaml:"platform_version"`
	Arch          string `json:"arch" yaml:"arch"`
	Manufacturer  string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model         string `json:"model,omitempty" yaml:"model,omitempty"`
	LogicalCPUs   int    `json:"logical_cpus" yaml:"logical_cpus"`
	PhysicalCPUs  int    `json:"physical_cpus" yaml:"physical_cpus"`
	MemoryTotalMB uint64 `json:"memory_total_mb" yaml:"memory_total_mb"`
}

// package vars so tests can stub the OS queries
var (
	hostInfo    = host.Info
	cpuCounts   = cpu.Counts
	memoryStats = mem.VirtualMemory
	machine     = machineModel
)

// Collect gathers facts. Each query that fails is logged and left empty.
func Collect() Facts {
	f := Facts{Arch: runtime.GOARCH, OS: runtime.GOOS}

	if info, err := hostInfo(); err != nil {
		logging.Warn("Failed to read host information", "error", err)
	} else {
		f.Hostname = info.Hostname
		f.Platform = info.Platform
		f.Version = info.PlatformVersion
		if info.KernelArch != "" {
			f.Arch = info.KernelArch
		}
	}

	f.LogicalCPUs = Workers()
	if n, err := cpuCounts(false); err == nil && n > 0 {
		f.PhysicalCPUs = n
	}
	if vm, err := memoryStats(); err != nil {
		logging.Warn("Failed to read memory information", "error", err)
	} else {
		f.MemoryTotalMB = vm.Total / (1024 * 1024)
	}

	f.Manufacturer, f.Model = machine()
	return f
}

// Workers is the default worker-pool size: the number of logical CPUs.
func Workers() int {
	if n, err := cpuCounts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Log writes the facts to the run log.
func (f Facts) Log() {
	logging.Info("Machine facts",
		"hostname", f.Hostname,
		"platform", f.Platform,
		"version", f.Version,
		"arch", f.Arch,
		"model", f.Manufacturer+" "+f.Model,
		"cpus", f.LogicalCPUs,
		"memory_mb", f.MemoryTotalMB)
}
