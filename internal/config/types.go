package config

import "time"

// Config represents the complete host-layer configuration.
type Config struct {
	Service    ServiceConfig            `yaml:"service"`
	PluginsDir string                   `yaml:"plugins_dir"`
	Runtimes   map[string]RuntimeConfig `yaml:"runtimes"`
	Timing     TimingConfig             `yaml:"timing"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`
}

// RuntimeConfig defines how one runtime's host process is launched. Command
// is the interpreter executable; HostEntry is the host program it runs.
type RuntimeConfig struct {
	Command   string `yaml:"command"`
	HostEntry string `yaml:"host_entry"`
}

const defaultConnectRetries = 1

// TimingConfig holds the channel timing policy. Zero values take defaults.
type TimingConfig struct {
	// SpawnGrace is the wait after process spawn before the first dial,
	// giving the remote listener time to bind.
	SpawnGrace time.Duration `yaml:"spawn_grace"`

	// ConnectTimeout bounds a single connect attempt window.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ConnectRetries is how many extra attempt windows are granted after
	// the first one fails before the start sequence is abandoned. Nil
	// means the default; an explicit zero disables the retry window.
	ConnectRetries *int `yaml:"connect_retries"`

	// KeepAliveInterval is the spacing between ping frames on an open channel.
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`

	// ReconnectBackoff is the initial delay before a reconnect attempt.
	// It doubles after every unexpected close and is never reset within
	// one channel instance.
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
}

// Retries resolves the configured extra connect attempts. Negative values
// fall back to the default alongside nil.
func (t TimingConfig) Retries() int {
	if t.ConnectRetries == nil || *t.ConnectRetries < 0 {
		return defaultConnectRetries
	}
	return *t.ConnectRetries
}

// Retry returns a pointer suitable for TimingConfig.ConnectRetries.
func Retry(n int) *int {
	return &n
}

// DefaultTiming returns the stock timing policy.
func DefaultTiming() TimingConfig {
	return TimingConfig{
		SpawnGrace:        1000 * time.Millisecond,
		ConnectTimeout:    3000 * time.Millisecond,
		KeepAliveInterval: 3000 * time.Millisecond,
		ReconnectBackoff:  500 * time.Millisecond,
	}
}
