package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want 8080", cfg.Web.Port)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want 127.0.0.1", cfg.Web.Host)
	}
	if !cfg.Notifications.Desktop {
		t.Error("Notifications.Desktop should default to true")
	}
	if cfg.Reports.Cron != "0 6,14,22 * * *" {
		t.Errorf("Reports.Cron = %q, want shift schedule", cfg.Reports.Cron)
	}
	if cfg.Reports.Enabled {
		t.Error("Reports.Enabled should default to false")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[general]
database_path = "/test/programs.db"
import_dir = "/test/import"

[web]
port = 9000

[reports]
enabled = true
cron = "0 */4 * * *"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.DatabasePath != "/test/programs.db" {
		t.Errorf("DatabasePath = %q, want /test/programs.db", cfg.General.DatabasePath)
	}
	if cfg.General.ImportDir != "/test/import" {
		t.Errorf("ImportDir = %q, want /test/import", cfg.General.ImportDir)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Web.Port = %d, want 9000", cfg.Web.Port)
	}
	// Unset keys keep defaults
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want default 127.0.0.1", cfg.Web.Host)
	}
	if !cfg.Reports.Enabled {
		t.Error("Reports.Enabled should be true")
	}
	if cfg.Reports.Cron != "0 */4 * * *" {
		t.Errorf("Reports.Cron = %q, want 0 */4 * * *", cfg.Reports.Cron)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want default 8080", cfg.Web.Port)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"~/data/programs.db", filepath.Join(home, "data", "programs.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindLocalConfig(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	localPath := filepath.Join(dir, LocalConfigName)
	if err := os.WriteFile(localPath, []byte("[web]\nport = 9999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	orig, _ := os.Getwd()
	defer os.Chdir(orig)
	if err := os.Chdir(sub); err != nil {
		t.Fatal(err)
	}

	found := FindLocalConfig()
	if found == "" {
		t.Fatal("expected to find local config in ancestor dir")
	}
	// Resolve symlinks for comparison (macOS TempDir is under /var -> /private/var)
	wantResolved, _ := filepath.EvalSymlinks(localPath)
	gotResolved, _ := filepath.EvalSymlinks(found)
	if gotResolved != wantResolved {
		t.Errorf("FindLocalConfig() = %q, want %q", found, localPath)
	}
}
