package catalog

import "github.com/windowsadmins/playertoolkit/pkg/tasks"

// Builtin returns the catalog shipped with the tool. Entries only carry the
// fields that differ from tasks.Defaults.
func Builtin() map[string]tasks.TaskConfig {
	return map[string]tasks.TaskConfig{
		"AnyDesk": {
			Kind:         tasks.KindManualAssisted,
			InstallArgs:  tasks.Args{"/S"},
			Icon:         "🖥️",
			UninstallKey: "AnyDesk",
			Category:     "Acceso Remoto",
			DownloadURL:  "https://download.anydesk.com/AnyDesk.exe",
		},
		"PlataformaUniversal": {
			Kind:           tasks.KindLocalInstall,
			InstallArgs:    tasks.Args{"/VERYSILENT", "/SUPPRESSMSGBOXES"},
			Icon:           "🎬",
			UninstallKey:   "Plataforma Universal",
			Category:       "Multimedia",
			Dependencies:   []string{"Java"},
			PostTaskScript: "copy_lsplayer_shortcut",
		},
		"LimpiarArchivosTemporales": {
			Kind:     tasks.KindCleanTemp,
			Icon:     "🧹",
			Category: "Utilidades del Sistema",
		},
		"TeamViewerHost": {
			Kind:         tasks.KindManualAssisted,
			Icon:         "↔️",
			UninstallKey: "TeamViewer",
			Category:     "Acceso Remoto",
		},
		"Autologon": {
			Kind:     tasks.KindManualAssisted,
			Icon:     "🔑",
			Category: "Utilidades del Sistema",
		},
		"Novalct": {
			Kind:     tasks.KindManualAssisted,
			Icon:     "📺",
			Category: "Control de Hardware",
		},
		"TeamViewerSetup": {
			Kind:         tasks.KindLocalInstall,
			InstallArgs:  tasks.Args{"/S"},
			Icon:         "↔️",
			UninstallKey: "TeamViewer",
			Category:     "Acceso Remoto",
		},
		"Java": {
			Kind:         tasks.KindLocalInstall,
			InstallArgs:  tasks.Args{"/s"},
			Icon:         "☕",
			UninstallKey: "Java(",
			Category:     "Software Básico",
		},
		"OpenVPN": {
			Kind:         tasks.KindLocalInstall,
			InstallArgs:  tasks.Args{"/qn"},
			Icon:         "🛡️",
			UninstallKey: "OpenVPN",
			Category:     "Redes",
		},
		"Malwarebytes": {
			Kind:         tasks.KindLocalInstall,
			InstallArgs:  tasks.Args{"/SP-", "/VERYSILENT", "/NOCANCEL", "/NORESTART"},
			Icon:         "🐞",
			UninstallKey: "Malwarebytes version",
			Category:     "Seguridad",
			BlockingApps: []string{"mbam.exe", "MBAMService.exe"},
		},
		"CopiarArchivosUsuario": {
			Kind:     tasks.KindCopyInteractive,
			Icon:     "📂",
			Category: "Utilidades",
		},
		"ConfigurarEnergiaNunca": {
			Kind:     tasks.KindPowerConfig,
			Icon:     "⚡",
			Category: "Utilidades del Sistema",
		},
		"Chrome": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "🌐",
			UninstallKey: "Google Chrome",
			Category:     "Navegadores",
			BlockingApps: []string{"chrome.exe"},
		},
		"VLC": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "⏯️",
			UninstallKey: "VLC media player",
			Category:     "Multimedia",
			BlockingApps: []string{"vlc.exe"},
		},
		"Office365": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "💼",
			UninstallKey: "Microsoft 365",
			Category:     "Ofimática",
		},
		"AutoCAD": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "📏",
			UninstallKey: "AutoCAD",
			Category:     "Diseño",
		},
		"SketchUp": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "🏠",
			UninstallKey: "SketchUp",
			Category:     "Diseño",
		},
		"Lumion": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "💡",
			UninstallKey: "Lumion",
			Category:     "Diseño",
		},
		"Putty": {
			Kind:         tasks.KindLocalInstall,
			InstallArgs:  tasks.Args{"/qn"},
			Icon:         "💻",
			UninstallKey: "PuTTY",
			Category:     "Redes",
		},
		"WinRAR": {
			Kind:         tasks.KindLocalInstall,
			Icon:         "📚",
			UninstallKey: "WinRAR",
			Category:     "Utilidades",
		},
		"LedSet": {
			Kind:     tasks.KindLocalInstall,
			Icon:     "💡",
			Category: "Control de Hardware",
		},
		"ViPlex": {
			Kind:     tasks.KindLocalInstall,
			Icon:     "🖥️",
			Category: "Control de Hardware",
		},
	}
}
