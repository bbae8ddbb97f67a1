package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses configuration from a file. A directory is accepted
// and resolved to config.yaml inside it.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "wox-host"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Service.LogDir == "" {
		cfg.Service.LogDir = os.TempDir()
	}

	def := DefaultTiming()
	if cfg.Timing.SpawnGrace <= 0 {
		cfg.Timing.SpawnGrace = def.SpawnGrace
	}
	if cfg.Timing.ConnectTimeout <= 0 {
		cfg.Timing.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.Timing.KeepAliveInterval <= 0 {
		cfg.Timing.KeepAliveInterval = def.KeepAliveInterval
	}
	if cfg.Timing.ReconnectBackoff <= 0 {
		cfg.Timing.ReconnectBackoff = def.ReconnectBackoff
	}
}

func validate(cfg *Config) error {
	if len(cfg.Runtimes) == 0 {
		return fmt.Errorf("config error: at least one runtime must be configured under 'runtimes'")
	}
	for name, rt := range cfg.Runtimes {
		if rt.Command == "" {
			return fmt.Errorf("config error: runtimes.%s.command is required", name)
		}
		if rt.HostEntry == "" {
			return fmt.Errorf("config error: runtimes.%s.host_entry is required", name)
		}
	}
	if cfg.PluginsDir == "" {
		return fmt.Errorf("config error: plugins_dir is required")
	}
	return nil
}
