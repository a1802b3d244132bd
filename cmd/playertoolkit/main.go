// cmd/playertoolkit/main.go - provisions a workstation by running the selected
// catalog tasks in dependency order.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/playertoolkit/pkg/blocking"
	"github.com/windowsadmins/playertoolkit/pkg/catalog"
	"github.com/windowsadmins/playertoolkit/pkg/config"
	"github.com/windowsadmins/playertoolkit/pkg/download"
	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/filelock"
	"github.com/windowsadmins/playertoolkit/pkg/handlers"
	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/processor"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
	"github.com/windowsadmins/playertoolkit/pkg/prompt"
	"github.com/windowsadmins/playertoolkit/pkg/resolver"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/scripts"
	"github.com/windowsadmins/playertoolkit/pkg/status"
	"github.com/windowsadmins/playertoolkit/pkg/sysinfo"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
	"github.com/windowsadmins/playertoolkit/pkg/version"
)

const (
	exitOK = iota
	exitTaskFailed
	exitConfig
	exitBusy
)

type flags struct {
	configPath string
	selected   []string
	category   string
	group      string
	drivers    bool
	uninstall  []string
	parallel   bool
	workers    int
	installers map[string]string
	files      map[string]string
	vars       map[string]string
	list       bool
	dryRun     bool
	yes        bool
	version    bool
	verbosity  int
}

func parseFlags() flags {
	var f flags
	pflag.StringVar(&f.configPath, "config", config.DefaultConfigPath(), "Path to the configuration file.")
	pflag.StringSliceVarP(&f.selected, "select", "s", nil, "Tasks to run, comma separated.")
	pflag.StringVar(&f.category, "all-category", "", "Run every task in this category.")
	pflag.StringVarP(&f.group, "group", "g", "", "Run the tasks listed in a selection group.")
	pflag.BoolVar(&f.drivers, "drivers", false, "Install every driver package found under the programs folder.")
	pflag.StringSliceVar(&f.uninstall, "uninstall", nil, "Uninstall installed programs by display name.")
	pflag.BoolVarP(&f.parallel, "parallel", "p", false, "Run independent tasks concurrently.")
	pflag.IntVarP(&f.workers, "workers", "w", 0, "Maximum concurrent tasks in parallel mode.")
	pflag.StringToStringVar(&f.installers, "installer", nil, "Installer to use for a task, as task=file.")
	pflag.StringToStringVar(&f.files, "file", nil, "File to copy for a task, as task=file.")
	pflag.StringToStringVar(&f.vars, "var", nil, "Custom %NAME% variable, as NAME=value.")
	pflag.BoolVarP(&f.list, "list", "l", false, "List the catalog and installed state, then exit.")
	pflag.BoolVarP(&f.dryRun, "dry-run", "n", false, "Print the execution plan without running anything.")
	pflag.BoolVarP(&f.yes, "yes", "y", false, "Answer every confirmation with yes.")
	pflag.BoolVar(&f.version, "version", false, "Print the version and exit.")
	pflag.CountVarP(&f.verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv)")
	pflag.Parse()
	f.selected = append(f.selected, pflag.Args()...)
	return f
}

func main() {
	os.Exit(run(parseFlags()))
}

func run(f flags) int {
	if f.version {
		version.PrintFull()
		return exitOK
	}

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return exitConfig
	}
	applyVerbosity(cfg, f.verbosity)
	if f.parallel {
		cfg.Parallel = true
	}
	if f.workers > 0 {
		cfg.MaxWorkers = f.workers
	}

	logOpts := logging.Options{
		BaseDir:    cfg.LogDir,
		Level:      logging.ParseLevel(cfg.LogLevel),
		Retention:  cfg.Retention(),
		Structured: cfg.StructuredLogging,
	}
	if f.verbosity > 1 {
		logOpts.Console = os.Stderr
	}
	if err := logging.Init(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return exitConfig
	}
	defer logging.CloseLogger()
	logging.Info("Starting", "version", version.Version().String(), "config", f.configPath)

	lock := filelock.ForDir(cfg.LogDir)
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			fmt.Fprintln(os.Stderr, "Another run is already in progress.")
			return exitBusy
		}
		logging.Warn("Could not take the run lock", "path", lock.Path(), "error", err)
	} else {
		defer lock.Unlock()
	}

	sysinfo.Collect().Log()

	cat, err := catalog.Load(catalog.Options{
		ProgramsRoot:  cfg.ProgramsRoot,
		CatalogPath:   cfg.CatalogPath,
		OverridesPath: cfg.OverridesPath,
	})
	if err != nil {
		logging.Error("Could not load the catalog", "error", err)
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		return exitConfig
	}
	for _, verr := range cat.Validate() {
		logging.Warn("Invalid catalog entry", "error", verr)
	}

	vars, err := catalog.LoadVariables(cfg.VariablesPath)
	if err != nil {
		logging.Warn("Could not load custom variables", "error", err)
	}
	for name, value := range f.vars {
		vars[name] = value
	}

	inventory := status.Scan()

	if f.list {
		printCatalog(os.Stdout, cat, inventory)
		return exitOK
	}

	selected, err := selection(f, cfg, cat, inventory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfig
	}
	if len(selected) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks selected.")
		pflag.Usage()
		return exitConfig
	}

	if f.dryRun {
		return printPlan(os.Stdout, cat, selected)
	}

	timeout := time.Duration(cfg.DefaultTimeoutSeconds) * time.Second
	exec := runner.NewExec(vars, timeout)

	var prompter handlers.Prompter = prompt.NewNative()
	if f.yes {
		prompter = prompt.Fixed{Answer: true}
	}

	set := &handlers.Set{
		Runner:       exec,
		Opener:       runner.ShellOpener{},
		Prompt:       prompter,
		Downloader:   download.New(timeout, cfg.DownloadRetries),
		Processes:    blocking.NewChecker(),
		Registry:     handlers.NativeRegistry{},
		Software:     inventory,
		Vars:         vars,
		ProgramsRoot: cfg.ProgramsRoot,
		PowerPolicy:  cfg.PowerPolicy(),
	}

	console := events.NewConsoleSink(os.Stdout)
	console.Verbose = f.verbosity > 0
	progressPath := filepath.Join(cfg.LogDir, "progress.json")
	sink := events.Multi{console, progress.NewFileSink(progressPath, logging.SessionID())}

	proc, err := processor.New(processor.Options{
		Configs:      cat.Tasks,
		Selected:     selected,
		Extra:        extraOptions(f),
		Variables:    vars,
		Handlers:     set,
		Scripts:      scripts.NewRegistry(),
		Sink:         sink,
		Runner:       exec,
		ProgramsRoot: cfg.ProgramsRoot,
		Parallel:     cfg.Parallel,
		MaxWorkers:   cfg.MaxWorkers,
	})
	if err != nil {
		logging.Error("Could not create the task processor", "error", err)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report := proc.Run(ctx)
	if path, err := logging.WriteArtifact("report.json", report); err != nil {
		logging.Warn("Could not write the run report", "error", err)
	} else {
		logging.Debug("Run report written", "path", path)
	}

	switch {
	case report.Aborted:
		return exitConfig
	case report.Failed() > 0:
		return exitTaskFailed
	default:
		return exitOK
	}
}

func applyVerbosity(cfg *config.Configuration, verbosity int) {
	switch {
	case verbosity >= 2:
		cfg.LogLevel = "DEBUG"
	case verbosity == 1 && strings.EqualFold(cfg.LogLevel, "WARN"):
		cfg.LogLevel = "INFO"
	}
	if verbosity > 0 {
		cfg.Verbose = true
	}
}

// selection gathers the task keys to run from the flags, adding synthesized
// driver and uninstall tasks to the catalog as needed.
func selection(f flags, cfg *config.Configuration, cat *catalog.Catalog, inv status.Inventory) ([]string, error) {
	selected := append([]string(nil), f.selected...)

	if f.category != "" {
		keys := cat.InCategory(f.category)
		if len(keys) == 0 {
			return nil, fmt.Errorf("no tasks in category %q", f.category)
		}
		selected = append(selected, keys...)
	}

	if f.group != "" {
		groups, err := catalog.LoadGroups(filepath.Join(cfg.ProgramsRoot, catalog.GroupsDir))
		if err != nil {
			return nil, err
		}
		keys, ok := groups[f.group]
		if !ok {
			return nil, fmt.Errorf("unknown group %q", f.group)
		}
		selected = append(selected, keys...)
	}

	if f.drivers {
		names := catalog.DiscoverDrivers(cfg.ProgramsRoot)
		if len(names) == 0 {
			logging.Warn("No driver packages found", "root", cfg.ProgramsRoot)
		}
		cat.Add(catalog.DriverTasks(names))
		selected = append(selected, names...)
	}

	if len(f.uninstall) > 0 {
		commands := map[string]string{}
		for _, name := range f.uninstall {
			sw, ok := inv.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("%q is not installed", name)
			}
			commands[sw.Name] = sw.Uninstall
			selected = append(selected, sw.Name)
		}
		cat.Add(catalog.UninstallTasks(commands))
	}

	for _, key := range selected {
		if _, ok := cat.Get(key); !ok {
			logging.Warn("Selected task is not in the catalog", "task", key)
		}
	}
	return selected, nil
}

func extraOptions(f flags) map[string]tasks.ExtraOptions {
	extra := map[string]tasks.ExtraOptions{}
	for key, file := range f.installers {
		o := extra[key]
		o.InstallerFile = file
		extra[key] = o
	}
	for key, file := range f.files {
		o := extra[key]
		o.SelectedFile = file
		extra[key] = o
	}
	return extra
}

// printPlan writes the batches the selection resolves to.
func printPlan(w io.Writer, cat *catalog.Catalog, selected []string) int {
	plan, err := resolver.Resolve(selected, func(key string) []string {
		cfg, _ := cat.Get(key)
		return cfg.Dependencies
	})
	if err != nil {
		fmt.Fprintf(w, "Cannot run: %v\n", err)
		return exitConfig
	}
	for _, d := range plan.Dropped {
		fmt.Fprintf(w, "  %s: dependency %s is not selected, ignoring it\n", d.Task, d.Dependency)
	}
	for i, batch := range plan.Batches {
		fmt.Fprintf(w, "Batch %d:\n", i+1)
		for _, key := range batch {
			cfg, ok := cat.Get(key)
			if !ok {
				fmt.Fprintf(w, "  %s (not in catalog)\n", key)
				continue
			}
			fmt.Fprintf(w, "  %s %s [%s]\n", cfg.Icon, key, cfg.Kind)
		}
	}
	return exitOK
}
