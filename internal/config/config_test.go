package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmtabs/vmtabs/internal/directory"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.PollIntervalSeconds != 5 {
		t.Errorf("poll interval = %d, want 5", cfg.PollIntervalSeconds)
	}
	if cfg.ContainerTitle != "VM Tabs" {
		t.Errorf("container title = %q, want %q", cfg.ContainerTitle, "VM Tabs")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
poll_interval_seconds: 10
auto_attach:
  manager: true
hotkeys:
  refresh: ""
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.PollIntervalSeconds != 10 {
		t.Errorf("poll interval = %d, want 10", cfg.PollIntervalSeconds)
	}
	if !cfg.AutoAttach.Manager {
		t.Error("auto_attach.manager not overridden")
	}
	if cfg.Hotkeys.Refresh != "" {
		t.Errorf("hotkeys.refresh = %q, want empty", cfg.Hotkeys.Refresh)
	}
	// Untouched sections keep their defaults.
	if cfg.ServiceProcess != "VBoxSVC" {
		t.Errorf("service_process = %q, want %q", cfg.ServiceProcess, "VBoxSVC")
	}
	if len(cfg.Classification.RunningMarkers) != 2 {
		t.Errorf("running markers = %v", cfg.Classification.RunningMarkers)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("poll_interval_seconds: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"interval too small", func(c *Config) { c.PollIntervalSeconds = 0 }, "poll_interval_seconds"},
		{"interval too large", func(c *Config) { c.PollIntervalSeconds = 600 }, "poll_interval_seconds"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"container too small", func(c *Config) { c.ContainerWidth = 100 }, "container size"},
		{"no markers", func(c *Config) { c.Classification.RunningMarkers = nil }, "running_markers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAutoAttachEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.AutoAttachEnabled(directory.CategoryPrimaryApp) {
		t.Error("primary should auto-attach by default")
	}
	if cfg.AutoAttachEnabled(directory.CategoryCompanionManager) {
		t.Error("manager should not auto-attach by default")
	}
	if !cfg.AutoAttachEnabled(directory.CategoryExternalProcess) {
		t.Error("external should auto-attach by default")
	}
	if cfg.AutoAttachEnabled(directory.CategoryPicked) {
		t.Error("picked windows never auto-attach from polls")
	}
}

func TestRulesConversion(t *testing.T) {
	rules := DefaultConfig().Rules()
	if rules.TitleSuffix != "Oracle VirtualBox" {
		t.Errorf("title suffix = %q", rules.TitleSuffix)
	}
	if rules.ManagerLabel != "VirtualBox Manager" {
		t.Errorf("manager label = %q", rules.ManagerLabel)
	}
	if len(rules.CompanionRuntimes) != 3 {
		t.Errorf("companion runtimes = %v", rules.CompanionRuntimes)
	}
}
