package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cuichenli/Wox/internal/config"
	"github.com/cuichenli/Wox/internal/events"
	"github.com/cuichenli/Wox/internal/host"
	"github.com/cuichenli/Wox/internal/lock"
	"github.com/cuichenli/Wox/internal/log"
	"github.com/cuichenli/Wox/internal/plugin"
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
	case "start":
		os.Exit(runStart(args))
	case "plugins":
		os.Exit(runPlugins(args))
	case "version":
		fmt.Printf("wox-host version %s\n", version)
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
	fmt.Print(`wox-host - Out-of-process plugin host service

Usage:
  wox-host <command> [flags]

Commands:
  start      Start the plugin hosts in foreground
  plugins    List discovered plugins
  version    Show version information
  help       Show this help message

Flags:
  -config    Path to configuration file or directory
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("wox-host starting", "version", version, "config", *configPath)

	pidLock, err := lock.Acquire(pidLockPath(cfg))
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLock.Path())

	metas, err := plugin.Discover(cfg.PluginsDir, func(level, msg string, args ...any) {
		switch level {
		case "debug":
			logger.Debug(msg, args...)
		case "info":
			logger.Info(msg, args...)
		case "warn":
			logger.Warn(msg, args...)
		case "error":
			logger.Error(msg, args...)
		}
	})
	if err != nil {
		logger.Error("plugin discovery failed", "plugins_dir", cfg.PluginsDir, "error", err)
		return 1
	}
	logger.Info("plugin discovery complete", "count", len(metas))

	hub := events.NewHub(256)
	sub, unsub := hub.Subscribe()
	defer unsub()
	go func() {
		eventLogger := log.WithComponent("events")
		for ev := range sub {
			eventLogger.Info("event", "type", ev.Type, "runtime", ev.Runtime, "plugin", ev.Plugin)
		}
	}()

	// One host per configured runtime. A runtime that fails to start is
	// skipped; its plugins stay unloaded while the others keep working.
	hosts := make(map[plugin.Runtime]host.Host)
	for name, rcfg := range cfg.Runtimes {
		runtime := plugin.Runtime(name)
		h := hostForRuntime(runtime, rcfg, cfg, hub)

		startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := h.Start(startCtx)
		cancel()
		if err != nil {
			log.WithRuntime(name).Error("failed to start runtime host", "error", err)
			continue
		}
		hosts[runtime] = h
	}
	if len(hosts) == 0 {
		logger.Error("no runtime host could be started")
		return 1
	}
	defer func() {
		for _, h := range hosts {
			h.Stop()
		}
	}()

	for _, meta := range metas {
		h, ok := hosts[meta.Runtime]
		if !ok {
			log.WithPlugin(meta.Name).Warn("no running host for plugin runtime", "runtime", meta.Runtime)
			continue
		}

		loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := h.LoadPlugin(loadCtx, meta, "")
		cancel()
		if err != nil {
			log.WithPlugin(meta.Name).Error("failed to load plugin", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
	return 0
}

func runPlugins(args []string) int {
	fs := flag.NewFlagSet("plugins", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	metas, err := plugin.Discover(cfg.PluginsDir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plugin discovery failed: %v\n", err)
		return 1
	}

	if len(metas) == 0 {
		fmt.Println("No plugins found.")
		return 0
	}
	for _, meta := range metas {
		fmt.Printf("%-30s %-10s %-10s %s\n", meta.ID, meta.Runtime, meta.Version, meta.Name)
	}
	return 0
}

func pidLockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Service.LogDir, cfg.Service.Name+".pid")
}

func hostForRuntime(runtime plugin.Runtime, rcfg config.RuntimeConfig, cfg *config.Config, hub *events.Hub) host.Host {
	logger := log.WithRuntime(string(runtime))
	switch runtime {
	case plugin.RuntimePython:
		return host.NewPythonHost(rcfg, cfg.Timing, cfg.Service.LogDir, logger, host.WithHub(hub))
	case plugin.RuntimeNodejs:
		return host.NewNodejsHost(rcfg, cfg.Timing, cfg.Service.LogDir, logger, host.WithHub(hub))
	default:
		return host.NewHost(runtime, rcfg, cfg.Timing, cfg.Service.LogDir, logger, host.WithHub(hub))
	}
}
