package sysinfo

import (
	"errors"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
)

func stub(t *testing.T) {
	t.Helper()
	origHost, origCPU, origMem, origMachine := hostInfo, cpuCounts, memoryStats, machine
	t.Cleanup(func() {
		hostInfo, cpuCounts, memoryStats, machine = origHost, origCPU, origMem, origMachine
	})
}

func TestCollect(t *testing.T) {
	stub(t)
	hostInfo = func() (*host.InfoStat, error) {
		return &host.InfoStat{Hostname: "kiosk-01", Platform: "Microsoft Windows 11 Pro", PlatformVersion: "10.0.22631", KernelArch: "x86_64"}, nil
	}
	cpuCounts = func(logical bool) (int, error) {
		if logical {
			return 8, nil
		}
		return 4, nil
	}
	memoryStats = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 16 * 1024 * 1024 * 1024}, nil
	}
	machine = func() (string, string) { return "Dell Inc.", "OptiPlex 7090" }

	f := Collect()
	assert.Equal(t, "kiosk-01", f.Hostname)
	assert.Equal(t, "x86_64", f.Arch)
	assert.Equal(t, 8, f.LogicalCPUs)
	assert.Equal(t, 4, f.PhysicalCPUs)
	assert.Equal(t, uint64(16384), f.MemoryTotalMB)
	assert.Equal(t, "OptiPlex 7090", f.Model)
}

func TestCollectToleratesFailures(t *testing.T) {
	stub(t)
	hostInfo = func() (*host.InfoStat, error) { return nil, errors.New("denied") }
	cpuCounts = func(bool) (int, error) { return 0, errors.New("denied") }
	memoryStats = func() (*mem.VirtualMemoryStat, error) { return nil, errors.New("denied") }
	machine = func() (string, string) { return "", "" }

	f := Collect()
	assert.Equal(t, runtime.GOARCH, f.Arch)
	assert.Equal(t, runtime.NumCPU(), f.LogicalCPUs)
	assert.Empty(t, f.Hostname)
}

func TestWorkersIsPositive(t *testing.T) {
	assert.Greater(t, Workers(), 0)
}
