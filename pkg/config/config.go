// Package config loads the idlewatch configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Display backends
const (
	BackendCommand = "command"
	BackendDPMS    = "dpms"
)

// ErrNoDevices is returned when no input device paths are configured.
var ErrNoDevices = errors.New("at least one device path is required")

// Config holds all configuration for idlewatch
type Config struct {
	// Command is the periodic action. It comes from the command line, never a file.
	Command string `yaml:"-" toml:"-"`

	// Polling cadence
	TourCheckPeriod time.Duration `yaml:"tour_check_period" toml:"tour_check_period" env:"IDLEWATCH_TOUR_CHECK_PERIOD"`
	WakeCheckPeriod time.Duration `yaml:"wake_check_period" toml:"wake_check_period" env:"IDLEWATCH_WAKE_CHECK_PERIOD"`

	// Idle cycle thresholds. SleepThreshold 0 disables display sleep.
	TourThreshold  int `yaml:"tour_threshold" toml:"tour_threshold" env:"IDLEWATCH_TOUR_THRESHOLD"`
	SleepThreshold int `yaml:"sleep_threshold" toml:"sleep_threshold" env:"IDLEWATCH_SLEEP_THRESHOLD"`

	// Devices are probed in this order
	Devices []string `yaml:"devices" toml:"devices" env:"IDLEWATCH_DEVICES"`

	Display DisplayConfig `yaml:"display" toml:"display"`
	Launch  LaunchConfig  `yaml:"launch" toml:"launch"`
}

// DisplayConfig holds display power settings
type DisplayConfig struct {
	Backend      string `yaml:"backend" toml:"backend" env:"IDLEWATCH_DISPLAY_BACKEND"`
	Selector     string `yaml:"selector" toml:"selector" env:"IDLEWATCH_DISPLAY"`
	WakeCommand  string `yaml:"wake_command" toml:"wake_command" env:"IDLEWATCH_WAKE_COMMAND"`
	SleepCommand string `yaml:"sleep_command" toml:"sleep_command" env:"IDLEWATCH_SLEEP_COMMAND"`
}

// LaunchConfig holds settings for background command execution
type LaunchConfig struct {
	Shell         string `yaml:"shell" toml:"shell" env:"IDLEWATCH_SHELL"`
	UsePTY        bool   `yaml:"use_pty" toml:"use_pty" env:"IDLEWATCH_USE_PTY"`
	SkipIfRunning bool   `yaml:"skip_if_running" toml:"skip_if_running" env:"IDLEWATCH_SKIP_IF_RUNNING"`
}

// SleepEnabled reports whether display sleep escalation is configured
func (c *Config) SleepEnabled() bool {
	return c.SleepThreshold > 0
}

// WithCommand returns a copy of the configuration with the periodic command set
func (c *Config) WithCommand(command string) *Config {
	cp := *c
	cp.Devices = append([]string(nil), c.Devices...)
	cp.Command = command
	return &cp
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TourCheckPeriod: 40 * time.Second,
		WakeCheckPeriod: 5 * time.Second,
		TourThreshold:   2,
		SleepThreshold:  0,
		Devices: []string{
			"/dev/input/spacenavigator",
			"/dev/input/quanum",
		},
		Display: DisplayConfig{
			Backend:      BackendCommand,
			Selector:     ":0",
			WakeCommand:  "xset dpms force on",
			SleepCommand: "xset dpms force off",
		},
		Launch: LaunchConfig{
			Shell: "/bin/sh",
		},
	}
}

// Load loads configuration from file and environment.
// An explicit path wins over IDLEWATCH_CONFIG and the XDG location.
func Load(explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath(explicitPath)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			// Only an explicitly requested file has to exist
			if !os.IsNotExist(err) || explicitPath != "" {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if path := os.Getenv("IDLEWATCH_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "idlewatch", "config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "idlewatch", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML or TOML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (flag, env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"IDLEWATCH_TOUR_CHECK_PERIOD", &cfg.TourCheckPeriod},
		{"IDLEWATCH_WAKE_CHECK_PERIOD", &cfg.WakeCheckPeriod},
	}
	for _, d := range durations {
		if v := os.Getenv(d.name); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.name, err)
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"IDLEWATCH_TOUR_THRESHOLD", &cfg.TourThreshold},
		{"IDLEWATCH_SLEEP_THRESHOLD", &cfg.SleepThreshold},
	}
	for _, i := range ints {
		if v := os.Getenv(i.name); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", i.name, err)
			}
			*i.dst = parsed
		}
	}

	if devices := os.Getenv("IDLEWATCH_DEVICES"); devices != "" {
		cfg.Devices = splitList(devices)
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"IDLEWATCH_DISPLAY_BACKEND", &cfg.Display.Backend},
		{"IDLEWATCH_DISPLAY", &cfg.Display.Selector},
		{"IDLEWATCH_WAKE_COMMAND", &cfg.Display.WakeCommand},
		{"IDLEWATCH_SLEEP_COMMAND", &cfg.Display.SleepCommand},
		{"IDLEWATCH_SHELL", &cfg.Launch.Shell},
	}
	for _, s := range strs {
		if v := os.Getenv(s.name); v != "" {
			*s.dst = v
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"IDLEWATCH_USE_PTY", &cfg.Launch.UsePTY},
		{"IDLEWATCH_SKIP_IF_RUNNING", &cfg.Launch.SkipIfRunning},
	}
	for _, b := range bools {
		if v := os.Getenv(b.name); v != "" {
			switch strings.ToLower(v) {
			case "true", "1", "yes":
				*b.dst = true
			case "false", "0", "no":
				*b.dst = false
			default:
				return fmt.Errorf("invalid %s value: %q (use true/false)", b.name, v)
			}
		}
	}

	return nil
}

// splitList splits a comma-separated list, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MinCheckPeriod is the shortest accepted dwell. A bare TOML integer decodes
// as nanoseconds, which would otherwise pass as a positive period.
const MinCheckPeriod = time.Second

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.TourCheckPeriod < MinCheckPeriod {
		return fmt.Errorf("tour_check_period must be at least %v (got %v; use a duration such as \"40s\")", MinCheckPeriod, cfg.TourCheckPeriod)
	}

	if cfg.WakeCheckPeriod < MinCheckPeriod {
		return fmt.Errorf("wake_check_period must be at least %v (got %v; use a duration such as \"5s\")", MinCheckPeriod, cfg.WakeCheckPeriod)
	}

	if cfg.TourThreshold <= 0 {
		return fmt.Errorf("tour_threshold must be positive")
	}

	if cfg.SleepThreshold < 0 {
		return fmt.Errorf("sleep_threshold must be non-negative (0 disables display sleep)")
	}

	if len(cfg.Devices) == 0 {
		return ErrNoDevices
	}
	for _, d := range cfg.Devices {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("device paths must not be empty")
		}
	}

	switch cfg.Display.Backend {
	case BackendCommand:
		if cfg.SleepEnabled() && (cfg.Display.WakeCommand == "" || cfg.Display.SleepCommand == "") {
			return fmt.Errorf("display.wake_command and display.sleep_command are required when sleep_threshold is set")
		}
	case BackendDPMS:
	default:
		return fmt.Errorf("unknown display.backend %q (use %s or %s)", cfg.Display.Backend, BackendCommand, BackendDPMS)
	}

	if cfg.Launch.Shell == "" {
		return fmt.Errorf("launch.shell must not be empty")
	}

	return nil
}
