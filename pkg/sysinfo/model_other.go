//go:build !windows

package sysinfo

func machineModel() (string, string) { return "", "" }
