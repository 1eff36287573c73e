package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spectral-works/prism/internal/acquire"
	"github.com/spectral-works/prism/internal/api"
	"github.com/spectral-works/prism/internal/config"
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/events"
	"github.com/spectral-works/prism/internal/host"
	"github.com/spectral-works/prism/internal/lock"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/metadata"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/storage"
	"github.com/spectral-works/prism/internal/tui/watch"
	"github.com/spectral-works/prism/plugins/scaling"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "plugin":
		os.Exit(runPluginNoun(args))

	// --- ROOT ALIASES ---
	case "start":
		os.Exit(runStart(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("prism version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`prism - Spectroscopy plugin host

Usage:
  prism <noun> <action> [flags]

Core Resources (Nouns):
  system    Host lifecycle and health
  config    System configuration and integrity
  plugin    Capability discovery

System Commands:
  system start      Start the host in foreground
  system watch      Attach the live session TUI

Config Commands:
  config lock       Authorize current state (update integrity hashes)
  config check      Validate syntax and integrity

Plugin Commands:
  plugin list       Show registered plugins

General:
  version           Show version information
  help              Show this help message

Use 'prism <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printSystemWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	case "help":
		printSystemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "help":
		printConfigNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runPluginNoun(args []string) int {
	if len(args) < 1 {
		printPluginNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printPluginNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	switch action {
	case "list":
		registry := builtinRegistry()
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return 0
	case "help":
		printPluginNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown plugin action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: prism system <action>")
	fmt.Fprintln(w, "Actions: start, watch")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: prism config <action> [flags]")
	fmt.Fprintln(w, "Actions: lock, check")
}

func printPluginNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: prism plugin <action>")
	fmt.Fprintln(w, "Actions: list")
}

func printSystemStartHelp() {
	fmt.Println("Usage: prism system start [--config PATH] [--pixels N] [--excitation NM]")
	fmt.Println("Start the host in the foreground against the simulated spectrometer.")
}

func printSystemWatchHelp() {
	fmt.Println("Usage: prism system watch [--api URL]")
	fmt.Println("Attach the live session TUI to a running host.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: prism config lock [--config PATH]")
	fmt.Println("Authorize current configuration state by regenerating integrity hashes.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: prism config check [--config PATH]")
	fmt.Println("Validate configuration syntax and integrity.")
}

// --- ACTION IMPLEMENTATIONS ---

// builtinRegistry registers every compiled-in plugin.
func builtinRegistry() *plugin.Registry {
	registry := plugin.NewRegistry()
	if err := scaling.Register(registry); err != nil {
		panic(err)
	}
	return registry
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	pixels := fs.Int("pixels", 1024, "Simulated detector pixel count")
	excitation := fs.Float64("excitation", 785, "Simulated excitation wavelength (nm)")
	seed := fs.Int64("seed", 0, "Simulator random seed (0 = time-based)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("prism starting", "version", version, "config", *configPath)

	pidLockPath := getPIDLockPath(cfg)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.Metadata.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Metadata.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Metadata.Path)

	meta := metadata.NewStore(db)
	registry := builtinRegistry()
	hub := events.NewHub(cfg.Service.EventBuffer)
	source := acquire.NewSimulator(*pixels, *excitation, *seed)
	recorder := device.NewRecorder()

	controller := host.New(cfg, registry, source, meta, hub, recorder)
	if err := controller.Start(ctx); err != nil {
		logger.Error("session start failed", "error", err)
		return 1
	}
	defer controller.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{Listen: cfg.API.Listen}, controller, hub, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("prism running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("prism stopped")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8217", "Base URL of the host status API")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	p := tea.NewProgram(watch.New(*apiURL))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Watch TUI failed: %v\n", err)
		return 1
	}
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	resolved, dir, err := resolveConfigTarget(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if err := config.GenerateChecksums(dir, []string{filepath.Base(resolved)}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	fmt.Printf("Locked %s (wrote %s)\n", resolved, filepath.Join(dir, ".checksums"))
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	resolved, _, err := resolveConfigTarget(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	cfg, err := config.Load(resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	enabled := 0
	for _, pc := range cfg.Plugins {
		if pc.Enabled {
			enabled++
		}
	}
	fmt.Printf("Config check PASSED: %s (plugins enabled: %d)\n", resolved, enabled)
	return 0
}

// resolveConfigTarget turns a --config value (or discovery) into the
// config file path and its directory.
func resolveConfigTarget(configPath string) (file, dir string, err error) {
	if configPath == "" {
		configPath, err = config.DiscoverConfigPath()
		if err != nil {
			return "", "", fmt.Errorf("failed to discover config: %w", err)
		}
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve config path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", "", fmt.Errorf("config not found: %s", abs)
	}
	if info.IsDir() {
		return filepath.Join(abs, "config.yaml"), abs, nil
	}
	return abs, filepath.Dir(abs), nil
}

func getPIDLockPath(cfg *config.Config) string {
	dbPath := cfg.Metadata.Path
	dbDir := filepath.Dir(dbPath)
	dbBase := filepath.Base(dbPath)
	ext := filepath.Ext(dbBase)
	nameWithoutExt := dbBase[:len(dbBase)-len(ext)]
	return filepath.Join(dbDir, nameWithoutExt+".pid")
}
