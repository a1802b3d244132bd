//go:build !windows

package config

import "errors"

func loadFromCSP(*Configuration) error {
	return errors.New("registry configuration is only available on Windows")
}
