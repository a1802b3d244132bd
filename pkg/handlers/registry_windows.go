//go:build windows

package handlers

import (
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// NativeRegistry writes to the Windows registry.
type NativeRegistry struct{}

var rootKeys = map[string]registry.Key{
	"HKLM": registry.LOCAL_MACHINE,
	"HKCU": registry.CURRENT_USER,
	"HKCR": registry.CLASSES_ROOT,
	"HKU":  registry.USERS,
	"HKCC": registry.CURRENT_CONFIG,
}

func (NativeRegistry) Write(v RegistryValue) error {
	root, ok := rootKeys[v.Root]
	if !ok {
		return fmt.Errorf("%w: unknown registry root %s", tasks.ErrConfiguration, v.Root)
	}
	k, _, err := registry.CreateKey(root, v.SubKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("%w: open %s\\%s: %v", tasks.ErrExternalProcess, v.Root, v.SubKey, err)
	}
	defer k.Close()

	switch v.Type {
	case "REG_SZ":
		err = k.SetStringValue(v.Name, v.String)
	case "REG_EXPAND_SZ":
		err = k.SetExpandStringValue(v.Name, v.String)
	case "REG_MULTI_SZ":
		err = k.SetStringsValue(v.Name, v.Strings)
	case "REG_DWORD":
		err = k.SetDWordValue(v.Name, uint32(v.Integer))
	case "REG_QWORD":
		err = k.SetQWordValue(v.Name, v.Integer)
	default:
		err = fmt.Errorf("unsupported type %s", v.Type)
	}
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", tasks.ErrExternalProcess, v.Name, err)
	}
	return nil
}
