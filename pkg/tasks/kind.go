// pkg/tasks/kind.go - the closed set of task kinds a catalog entry can declare.

package tasks

import (
	"fmt"
	"strings"
)

// Kind selects the handler that executes a task.
type Kind string

const (
	KindLocalInstall        Kind = "local_install"
	KindManualAssisted      Kind = "manual_assisted_install"
	KindCopyInteractive     Kind = "copy_interactive"
	KindUninstall           Kind = "uninstall"
	KindCleanTemp           Kind = "clean_temp"
	KindPowerConfig         Kind = "power_config"
	KindRunPowerShell       Kind = "run_powershell"
	KindModifyRegistry      Kind = "modify_registry"
	KindManageService       Kind = "manage_service"
	KindCreateScheduledTask Kind = "create_scheduled_task"
	KindInstallDriver       Kind = "install_driver"
)

// Kinds lists every supported kind in catalog order.
var Kinds = []Kind{
	KindLocalInstall,
	KindManualAssisted,
	KindCopyInteractive,
	KindUninstall,
	KindCleanTemp,
	KindPowerConfig,
	KindRunPowerShell,
	KindModifyRegistry,
	KindManageService,
	KindCreateScheduledTask,
	KindInstallDriver,
}

// legacyKinds maps the spellings used by older catalog files.
var legacyKinds = map[string]Kind{
	"instalar_local":             KindLocalInstall,
	"instalar_manual_asistido":   KindManualAssisted,
	"copiar_archivo_interactivo": KindCopyInteractive,
	"desinstalar":                KindUninstall,
	"limpiar_temp":               KindCleanTemp,
	"configurar_energia_actual":  KindPowerConfig,
	"ejecutar_powershell":        KindRunPowerShell,
	"modificar_registro":         KindModifyRegistry,
	"gestionar_servicio":         KindManageService,
	"crear_tarea_programada":     KindCreateScheduledTask,
	"instalar_driver":            KindInstallDriver,
}

// ParseKind normalizes s and reports whether it names a known kind.
func ParseKind(s string) (Kind, error) {
	k := normalizeKind(s)
	if !k.Known() {
		return k, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func normalizeKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	if k, ok := legacyKinds[s]; ok {
		return k
	}
	return Kind(s)
}

// Known reports whether k is one of Kinds.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Interactive reports whether the kind waits on the operator. Interactive
// tasks never share a worker pool slot with automated ones.
func (k Kind) Interactive() bool {
	return k == KindManualAssisted || k == KindCopyInteractive
}

// Installs reports whether the kind resolves an installer file under the task folder.
func (k Kind) Installs() bool {
	return k == KindLocalInstall || k == KindManualAssisted
}

// UnmarshalText accepts both current and legacy spellings. Unknown values are
// kept verbatim so that dispatch, not decoding, reports them.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = normalizeKind(string(text))
	return nil
}

func (k Kind) String() string { return string(k) }
