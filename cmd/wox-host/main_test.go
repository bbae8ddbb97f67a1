package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuichenli/Wox/internal/config"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func writeTestWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	pluginsDir := filepath.Join(root, "plugins", "calculator")
	if err := os.MkdirAll(pluginsDir, 0o755); err != nil {
		t.Fatalf("mkdir plugins: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginsDir, "main.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	pluginYAML := `
id: com.example.calculator
name: Calculator
entry: main.py
runtime: python
version: 1.0.0
`
	if err := os.WriteFile(filepath.Join(pluginsDir, "plugin.yaml"), []byte(pluginYAML), 0o644); err != nil {
		t.Fatalf("write plugin.yaml: %v", err)
	}

	configYAML := `
service:
  name: wox-host-test
plugins_dir: ` + filepath.Join(root, "plugins") + `
runtimes:
  python:
    command: python3
    host_entry: host.py
`
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}
	return root
}

func TestRunPluginsListsDiscovered(t *testing.T) {
	root := writeTestWorkspace(t)

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runPlugins([]string{"-config", filepath.Join(root, "config.yaml")})
	})

	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "com.example.calculator") {
		t.Errorf("plugin id missing from output: %q", stdout)
	}
	if !strings.Contains(stdout, "python") {
		t.Errorf("runtime missing from output: %q", stdout)
	}
}

func TestRunPluginsMissingConfig(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runPlugins([]string{"-config", "/nonexistent/config.yaml"})
	})

	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "Failed to load config") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRunStartMissingConfig(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runStart([]string{"-config", "/nonexistent/config.yaml"})
	})

	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "Failed to load config") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestPIDLockPath(t *testing.T) {
	cfg := &config.Config{}
	cfg.Service.Name = "wox-host"
	cfg.Service.LogDir = "/var/log/wox"

	got := pidLockPath(cfg)
	want := filepath.Join("/var/log/wox", "wox-host.pid")
	if got != want {
		t.Errorf("pidLockPath = %q, want %q", got, want)
	}
}
