package plugin

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Discover scans pluginsDir for directories containing plugin.yaml and
// validates each one. Invalid plugins are logged through the supplied logger
// but are not fatal; duplicates keep the first discovered plugin.
func Discover(pluginsDir string, logger func(level, msg string, args ...any)) ([]*Metadata, error) {
	if logger == nil {
		logger = func(level, msg string, args ...any) {}
	}

	absRoot, err := filepath.Abs(strings.TrimSpace(pluginsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugins directory %q: %w", pluginsDir, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugins directory does not exist: %s", absRoot)
		}
		return nil, fmt.Errorf("failed to stat plugins directory %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("plugins path is not a directory: %s", absRoot)
	}

	var out []*Metadata
	seen := make(map[string]*Metadata)

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != metadataFilename {
			return nil
		}

		pluginDir := filepath.Dir(path)
		meta, err := LoadMetadata(pluginDir)
		if err != nil {
			logger("warn", "failed to load plugin", "path", pluginDir, "error", err.Error())
			return nil
		}

		if existing, ok := seen[meta.ID]; ok {
			logger(
				"warn",
				"duplicate plugin ignored (keeping first discovered)",
				"plugin", meta.Name,
				"ignored_path", meta.Directory,
				"kept_path", existing.Directory,
			)
			return nil
		}

		seen[meta.ID] = meta
		out = append(out, meta)
		logger("info", "discovered plugin", "plugin", meta.Name, "runtime", string(meta.Runtime), "path", meta.Directory)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan plugins directory %s: %w", absRoot, err)
	}

	return out, nil
}
