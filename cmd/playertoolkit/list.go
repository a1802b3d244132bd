package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/windowsadmins/playertoolkit/pkg/catalog"
	"github.com/windowsadmins/playertoolkit/pkg/status"
	"github.com/windowsadmins/playertoolkit/pkg/version"
)

// printCatalog lists tasks by category with their installed state.
func printCatalog(w io.Writer, cat *catalog.Catalog, inv status.Inventory) {
	installed := color.New(color.FgGreen).SprintFunc()
	update := color.New(color.FgYellow).SprintFunc()

	for _, category := range cat.Categories() {
		fmt.Fprintf(w, "%s\n", category)
		for _, key := range cat.InCategory(category) {
			cfg, _ := cat.Get(key)
			line := fmt.Sprintf("  %s %-32s %s", cfg.Icon, key, cfg.Kind)

			lookup := cfg.UninstallKey
			if lookup == "" {
				lookup = key
			}
			if sw, ok := inv.Lookup(lookup); ok && cfg.Kind.Installs() {
				line += " " + installed("installed "+version.Normalize(sw.Version))
				if cfg.Version != "" && status.IsOlderVersion(sw.Version, cfg.Version) {
					line += " " + update("update to "+cfg.Version)
				}
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(cat.Discovered) > 0 {
		fmt.Fprintf(w, "\nGuessed configuration for: %v\n", cat.Discovered)
	}
}
