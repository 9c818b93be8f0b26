// Package config loads the supervisor's YAML-file configuration: the
// device poll cadence and the base directory under which every device's
// on-disk layout (see pkg/paths) is rooted.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the supervisor's top-level configuration.
type Settings struct {
	// RefreshRate is the configured poll cadence. supervisor.Config has no
	// such field and no task reads it; each task runs on its own fixed
	// intervals.
	RefreshRate time.Duration `yaml:"refresh_rate"`

	// BaseDir is the root directory under which every device gets its
	// own sub-tree (see pkg/paths.Layout).
	BaseDir string `yaml:"base_dir"`

	// SyslogEnabled toggles the optional syslog collector, disabled by
	// default.
	SyslogEnabled bool `yaml:"syslog_enabled"`
}

// settingsYAML mirrors Settings with RefreshRate as a duration string
// (e.g. "30s"), since yaml.v3 has no native time.Duration support.
type settingsYAML struct {
	RefreshRate   string `yaml:"refresh_rate"`
	BaseDir       string `yaml:"base_dir"`
	SyslogEnabled bool   `yaml:"syslog_enabled"`
}

// UnmarshalYAML parses refresh_rate as a duration string.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	var raw settingsYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.BaseDir != "" {
		s.BaseDir = raw.BaseDir
	}
	s.SyslogEnabled = raw.SyslogEnabled

	if raw.RefreshRate == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.RefreshRate)
	if err != nil {
		return fmt.Errorf("parsing refresh_rate %q: %w", raw.RefreshRate, err)
	}
	s.RefreshRate = d
	return nil
}

// MarshalYAML renders RefreshRate as a duration string.
func (s Settings) MarshalYAML() (interface{}, error) {
	return settingsYAML{
		RefreshRate:   s.RefreshRate.String(),
		BaseDir:       s.BaseDir,
		SyslogEnabled: s.SyslogEnabled,
	}, nil
}

// Default returns the settings used when no config file is present.
func Default() Settings {
	return Settings{
		RefreshRate:   30 * time.Second,
		BaseDir:       "./imonitor-data",
		SyslogEnabled: false,
	}
}

// Load reads and parses a YAML settings file at path, starting from
// Default() so a partial file only overrides the fields it sets.
func Load(path string) (Settings, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Write serializes cfg as YAML to path.
func Write(path string, cfg Settings) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
