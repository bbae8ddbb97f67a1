package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const metadataFilename = "plugin.yaml"

// Runtime identifies the out-of-process runtime kind a plugin executes in.
type Runtime string

const (
	RuntimePython Runtime = "python"
	RuntimeNodejs Runtime = "nodejs"
)

func (r Runtime) valid() bool {
	return r == RuntimePython || r == RuntimeNodejs
}

// Metadata describes one plugin. Instances are immutable and owned by the
// caller; every host call takes them by reference.
type Metadata struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Entry       string  `yaml:"entry"`
	Runtime     Runtime `yaml:"runtime"`
	Version     string  `yaml:"version,omitempty"`
	Description string  `yaml:"description,omitempty"`

	// Checksum is the optional BLAKE3 hex digest of the entry file. When
	// set, the host verifies it before the plugin is loaded.
	Checksum string `yaml:"checksum,omitempty"`

	// Directory is the absolute plugin directory, filled in by the loader.
	Directory string `yaml:"-"`
}

// LoadMetadata reads and validates plugin.yaml from a plugin directory.
// The returned metadata carries absolute entry and directory paths.
func LoadMetadata(dir string) (*Metadata, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin directory %q: %w", dir, err)
	}

	data, err := os.ReadFile(filepath.Join(absDir, metadataFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin metadata: %w", err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse plugin metadata YAML: %w", err)
	}

	if err := validateMetadata(&meta); err != nil {
		return nil, fmt.Errorf("invalid plugin metadata: %w", err)
	}

	meta.Directory = absDir
	meta.Entry = filepath.Join(absDir, meta.Entry)
	if _, err := os.Stat(meta.Entry); err != nil {
		return nil, fmt.Errorf("plugin entry not found: %w", err)
	}

	return &meta, nil
}

// validateMetadata checks required metadata fields.
func validateMetadata(m *Metadata) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if m.Entry == "" {
		return fmt.Errorf("entry is required")
	}

	// Check for path traversal in entry
	if strings.Contains(m.Entry, "..") {
		return fmt.Errorf("entry contains path traversal: %s", m.Entry)
	}

	if m.Runtime == "" {
		return fmt.Errorf("runtime is required")
	}
	if !m.Runtime.valid() {
		return fmt.Errorf("unsupported runtime %q (supported: %s, %s)", m.Runtime, RuntimePython, RuntimeNodejs)
	}

	return nil
}
