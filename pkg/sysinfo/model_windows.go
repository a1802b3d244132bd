//go:build windows

package sysinfo

import (
	"github.com/yusufpapurcu/wmi"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

type win32ComputerSystem struct {
	Model        string `wmi:"Model"`
	Manufacturer string `wmi:"Manufacturer"`
}

func machineModel() (string, string) {
	var systems []win32ComputerSystem
	if err := wmi.Query("SELECT Model, Manufacturer FROM Win32_ComputerSystem", &systems); err != nil {
		logging.Warn("Failed to query computer system model information", "error", err)
		return "", ""
	}
	if len(systems) == 0 {
		return "", ""
	}
	return systems[0].Manufacturer, systems[0].Model
}
