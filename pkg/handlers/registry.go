package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// RegistryWriter sets one registry value.
type RegistryWriter interface {
	Write(spec RegistryValue) error
}

// RegistryValue is a parsed, ready to write registry value.
type RegistryValue struct {
	Root    string // HKLM, HKCU, HKCR, HKU or HKCC
	SubKey  string
	Name    string
	Type    string // REG_SZ, REG_EXPAND_SZ, REG_DWORD, REG_QWORD or REG_MULTI_SZ
	String  string
	Strings []string
	Integer uint64
}

var registryRoots = map[string]string{
	"HKLM":                "HKLM",
	"HKEY_LOCAL_MACHINE":  "HKLM",
	"HKCU":                "HKCU",
	"HKEY_CURRENT_USER":   "HKCU",
	"HKCR":                "HKCR",
	"HKEY_CLASSES_ROOT":   "HKCR",
	"HKU":                 "HKU",
	"HKEY_USERS":          "HKU",
	"HKCC":                "HKCC",
	"HKEY_CURRENT_CONFIG": "HKCC",
}

// ParseRegistryPath splits `HKLM\SOFTWARE\Vendor` into root and subkey.
func ParseRegistryPath(p string) (string, string, error) {
	p = strings.Trim(strings.ReplaceAll(strings.TrimSpace(p), "/", `\`), `\`)
	rootName, sub, _ := strings.Cut(p, `\`)
	root, ok := registryRoots[strings.ToUpper(rootName)]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown registry root in %q", tasks.ErrConfiguration, p)
	}
	if sub == "" {
		return "", "", fmt.Errorf("%w: registry path %q has no subkey", tasks.ErrConfiguration, p)
	}
	return root, sub, nil
}

// ParseRegistryValue validates spec and converts its value to the target type.
func ParseRegistryValue(spec tasks.RegistrySpec) (RegistryValue, error) {
	root, sub, err := ParseRegistryPath(spec.Path)
	if err != nil {
		return RegistryValue{}, err
	}
	v := RegistryValue{Root: root, SubKey: sub, Name: spec.Key, Type: strings.ToUpper(strings.TrimSpace(spec.Type))}
	if v.Type == "" {
		v.Type = "REG_SZ"
	}

	switch v.Type {
	case "REG_SZ", "REG_EXPAND_SZ":
		v.String = spec.Value
	case "REG_MULTI_SZ":
		for _, part := range strings.Split(spec.Value, ";") {
			if part != "" {
				v.Strings = append(v.Strings, part)
			}
		}
	case "REG_DWORD", "REG_QWORD":
		bits := 32
		if v.Type == "REG_QWORD" {
			bits = 64
		}
		n, err := strconv.ParseUint(strings.TrimSpace(spec.Value), 0, bits)
		if err != nil {
			return RegistryValue{}, fmt.Errorf("%w: %s value %q: %v", tasks.ErrConfiguration, v.Type, spec.Value, err)
		}
		v.Integer = n
	default:
		return RegistryValue{}, fmt.Errorf("%w: unsupported registry type %q", tasks.ErrConfiguration, spec.Type)
	}
	return v, nil
}

func (s *Set) modifyRegistry(cfg tasks.TaskConfig, rep Reporter) (string, error) {
	spec := cfg.Registry
	spec.Value = s.Vars.Expand(spec.Value)
	v, err := ParseRegistryValue(spec)
	if err != nil {
		return "", err
	}
	w := s.Registry
	if w == nil {
		w = NativeRegistry{}
	}
	if err := w.Write(v); err != nil {
		return "", err
	}
	rep.Logf(events.LevelInfo, `Set %s\%s\%s (%s)`, v.Root, v.SubKey, v.Name, v.Type)
	return fmt.Sprintf(`registry %s\%s\%s set`, v.Root, v.SubKey, v.Name), nil
}
