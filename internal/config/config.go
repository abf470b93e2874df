// Package config loads and validates the vmtabs configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vmtabs/vmtabs/internal/directory"
)

// Classification configures the window classifier.
type Classification struct {
	// RunningMarkers are locale variants of the "running instance" status
	// marker looked for in window titles.
	RunningMarkers []string `yaml:"running_markers"`
	// TitleSuffix is the application suffix a primary window title carries.
	TitleSuffix string `yaml:"title_suffix"`
	// ManagerTitle identifies the companion manager window.
	ManagerTitle string `yaml:"manager_title"`
	// ManagerLabel is the fixed tab title used for the manager window.
	ManagerLabel string `yaml:"manager_label"`
	// CompanionRuntimes are executable basenames whose windows count as
	// external processes worth tracking.
	CompanionRuntimes []string `yaml:"companion_runtimes"`
}

// AutoAttach holds the per-category auto-attach defaults.
type AutoAttach struct {
	Primary  bool `yaml:"primary"`
	Manager  bool `yaml:"manager"`
	External bool `yaml:"external"`
}

// Hotkeys holds the global hotkey bindings. Empty disables a binding.
type Hotkeys struct {
	Refresh   string `yaml:"refresh"`
	AttachAll string `yaml:"attach_all"`
}

// Config is the daemon configuration.
type Config struct {
	// PollIntervalSeconds is the background rescan interval.
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	LogLevel            string `yaml:"log_level"`

	ContainerTitle  string `yaml:"container_title"`
	ContainerWidth  int    `yaml:"container_width"`
	ContainerHeight int    `yaml:"container_height"`

	// ManagerPath is the executable launched by `vmtabs manager`.
	ManagerPath string `yaml:"manager_path"`
	// ServiceProcess is a companion service terminated during close-all
	// (it owns no window of its own). Empty disables the hook.
	ServiceProcess string `yaml:"service_process"`

	Classification Classification `yaml:"classification"`
	AutoAttach     AutoAttach     `yaml:"auto_attach"`
	Hotkeys        Hotkeys        `yaml:"hotkeys"`
}

// DefaultConfig returns the built-in defaults, tuned for Oracle VirtualBox.
func DefaultConfig() *Config {
	return &Config{
		PollIntervalSeconds: 5,
		LogLevel:            "info",
		ContainerTitle:      "VM Tabs",
		ContainerWidth:      1280,
		ContainerHeight:     800,
		ManagerPath:         "/usr/bin/VirtualBox",
		ServiceProcess:      "VBoxSVC",
		Classification: Classification{
			RunningMarkers:    []string{"[Running]", "[Работает]"},
			TitleSuffix:       "Oracle VirtualBox",
			ManagerTitle:      "Oracle VirtualBox Manager",
			ManagerLabel:      "VirtualBox Manager",
			CompanionRuntimes: []string{"VirtualBoxVM", "VBoxSDL", "VBoxHeadless"},
		},
		AutoAttach: AutoAttach{
			Primary:  true,
			Manager:  false,
			External: true,
		},
		Hotkeys: Hotkeys{
			Refresh:   "Mod4-Mod1-v",
			AttachAll: "Mod4-Mod1-b",
		},
	}
}

// DefaultConfigPath returns ~/.config/vmtabs/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "vmtabs", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from path, merged over the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.PollIntervalSeconds < 1 || c.PollIntervalSeconds > 120 {
		return fmt.Errorf("poll_interval_seconds must be between 1 and 120, got %d", c.PollIntervalSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.ContainerWidth < 200 || c.ContainerHeight < 150 {
		return fmt.Errorf("container size %dx%d is below the 200x150 minimum",
			c.ContainerWidth, c.ContainerHeight)
	}
	if len(c.Classification.RunningMarkers) == 0 {
		return fmt.Errorf("classification.running_markers must not be empty")
	}
	return nil
}

// PollInterval returns the rescan interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Rules converts the classification section for the window directory.
func (c *Config) Rules() directory.Rules {
	return directory.Rules{
		RunningMarkers:    c.Classification.RunningMarkers,
		TitleSuffix:       c.Classification.TitleSuffix,
		ManagerTitle:      c.Classification.ManagerTitle,
		ManagerLabel:      c.Classification.ManagerLabel,
		CompanionRuntimes: c.Classification.CompanionRuntimes,
	}
}

// AutoAttachEnabled is the per-category auto-attach default. Picked windows
// never auto-attach from polls; the pick flow forces attachment itself.
func (c *Config) AutoAttachEnabled(cat directory.Category) bool {
	switch cat {
	case directory.CategoryPrimaryApp:
		return c.AutoAttach.Primary
	case directory.CategoryCompanionManager:
		return c.AutoAttach.Manager
	case directory.CategoryExternalProcess:
		return c.AutoAttach.External
	default:
		return false
	}
}
