//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// TempDBPath creates a temporary database path for testing
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "programs.db")
}

// createTestConfig creates a temporary config file for testing
func createTestConfig(t *testing.T, dbPath, directoryPath, importDir string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.toml")

	config := `[general]
database_path = "` + dbPath + `"
directory_path = "` + directoryPath + `"
import_dir = "` + importDir + `"

[notifications]
desktop = false

[web]
port = 8080
host = "127.0.0.1"

[reports]
enabled = false
`

	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return configPath
}

// writeSeed drops a program seed file into dir
func writeSeed(t *testing.T, dir, name, programID, machine string) string {
	t.Helper()

	seed := `program_id: "` + programID + `"
material: "Aço P20"
machine: "` + machine + `"
reference: "MOLDE-2026-001"
programmer: "Ricardo"
date: "2026-08-20"
tools:
  - id: "T01"
    name: "Fresa de Topo 12mm"
    type: "Fresa de Topo Reto"
    function: "Desbaste"
    parameters:
      velocity: "2800 RPM"
      advance: "900 mm/min"
      depth: "0.8 mm"
      quality:
        tolerance: "±0.05 mm"
        finishing: "Ra 3.2"
`

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatalf("Failed to write seed: %v", err)
	}
	return path
}
