package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*EngineConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: $XDG_CONFIG_HOME/worktrunk/config.json
// Project: .worktrunk/config.json (relative to cwd)
func LoadDefault() (*EngineConfig, error) {
	globalPath, err := xdg.ConfigFile(filepath.Join("worktrunk", "config.json"))
	if err != nil {
		return nil, fmt.Errorf("resolving global config path: %w", err)
	}

	projectPath := filepath.Join(".worktrunk", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base
// config. Missing files are silently skipped. Malformed JSON returns an
// error. Zero-value fields in the loaded file leave the base untouched,
// except TaskDeadlines entries, which merge key-by-key.
func mergeConfigFile(base *EngineConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded EngineConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.WorkerPoolSize != 0 {
		base.WorkerPoolSize = loaded.WorkerPoolSize
	}
	if loaded.HeavyOpsPermits != 0 {
		base.HeavyOpsPermits = loaded.HeavyOpsPermits
	}
	if loaded.DefaultTaskDeadline != 0 {
		base.DefaultTaskDeadline = loaded.DefaultTaskDeadline
	}
	if loaded.TargetBranch != "" {
		base.TargetBranch = loaded.TargetBranch
	}
	if loaded.Trace != nil {
		base.Trace = loaded.Trace
	}
	for kind, deadline := range loaded.TaskDeadlines {
		if base.TaskDeadlines == nil {
			base.TaskDeadlines = TaskDeadlines{}
		}
		base.TaskDeadlines[kind] = deadline
	}

	return nil
}
