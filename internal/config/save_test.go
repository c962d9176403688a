package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveCreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	cfg := &EngineConfig{
		HeavyOpsPermits:     4,
		DefaultTaskDeadline: 10 * time.Second,
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Config file was not created: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var loaded EngineConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Config file contains invalid JSON: %v", err)
	}
	if loaded.HeavyOpsPermits != 4 {
		t.Errorf("HeavyOpsPermits = %d, want 4", loaded.HeavyOpsPermits)
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "deep", "config.json")

	cfg := &EngineConfig{HeavyOpsPermits: 4}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Config file was not created: %s", path)
	}

	parentDir := filepath.Dir(path)
	if _, err := os.Stat(parentDir); os.IsNotExist(err) {
		t.Fatalf("Parent directory was not created: %s", parentDir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	cfg := &EngineConfig{
		HeavyOpsPermits:     8,
		DefaultTaskDeadline: 15 * time.Second,
		TaskDeadlines:       TaskDeadlines{"ci_status": 30 * time.Second},
		Trace:               boolPtr(true),
		TargetBranch:        "develop",
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.HeavyOpsPermits != 8 {
		t.Errorf("HeavyOpsPermits = %d, want 8", loaded.HeavyOpsPermits)
	}
	if loaded.DefaultTaskDeadline != 15*time.Second {
		t.Errorf("DefaultTaskDeadline = %v, want 15s", loaded.DefaultTaskDeadline)
	}
	if loaded.TaskDeadlines["ci_status"] != 30*time.Second {
		t.Errorf("ci_status deadline = %v, want 30s", loaded.TaskDeadlines["ci_status"])
	}
	if loaded.Trace == nil || !*loaded.Trace {
		t.Error("Trace = false, want true")
	}
	if loaded.TargetBranch != "develop" {
		t.Errorf("TargetBranch = %q, want develop", loaded.TargetBranch)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	if err := Save(&EngineConfig{HeavyOpsPermits: 1}, path); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := Save(&EngineConfig{HeavyOpsPermits: 2}, path); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var loaded EngineConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}
	if loaded.HeavyOpsPermits != 2 {
		t.Errorf("HeavyOpsPermits = %d, want 2 (second save should win)", loaded.HeavyOpsPermits)
	}
}
