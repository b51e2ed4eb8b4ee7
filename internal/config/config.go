// Package config loads specflow settings: defaults, then the
// repository's .specflow/config.yaml, then SPECFLOW_* environment
// variables, each layer overriding the previous.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the specflow state directory.
	Dir = ".specflow"
	// FileName is the config file inside Dir.
	FileName = "config.yaml"
)

// Config holds all specflow configuration.
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Git       GitConfig       `yaml:"git"`
	Guard     GuardConfig     `yaml:"guard"`
	Tickets   TicketsConfig   `yaml:"tickets"`
}

// SchedulerConfig holds WIP pool settings.
type SchedulerConfig struct {
	// Capacity is the maximum number of epics in Implementing at once.
	Capacity int `yaml:"capacity"`
	// DefaultKind names the unit type when epics are added without one.
	DefaultKind string `yaml:"default_kind"`
}

// GitConfig holds version control settings.
type GitConfig struct {
	// Trunk is the shared mainline branch.
	Trunk string `yaml:"trunk"`
}

// GuardConfig holds root protection settings.
type GuardConfig struct {
	// ProtectionLevel is strict, prompt, or none.
	ProtectionLevel string `yaml:"protection_level"`
}

// TicketsConfig holds external tracker mirroring settings.
type TicketsConfig struct {
	GitHub GitHubTickets `yaml:"github"`
	GitLab GitLabTickets `yaml:"gitlab"`
}

// GitHubTickets configures the GitHub issue mirror.
type GitHubTickets struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token,omitempty"`
}

// Enabled reports whether the GitHub mirror is configured.
func (g GitHubTickets) Enabled() bool {
	return g.Owner != "" && g.Repo != ""
}

// GitLabTickets configures the GitLab issue mirror.
type GitLabTickets struct {
	Host    string `yaml:"host,omitempty"`
	Project string `yaml:"project"`
	Token   string `yaml:"token,omitempty"`
}

// Enabled reports whether the GitLab mirror is configured.
func (g GitLabTickets) Enabled() bool {
	return g.Project != ""
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Capacity:    3,
			DefaultKind: "epic",
		},
		Git: GitConfig{
			Trunk: "main",
		},
		Guard: GuardConfig{
			ProtectionLevel: "strict",
		},
	}
}

// Load reads configuration for the repository rooted at root.
func Load(root string) (*Config, error) {
	cfg := NewDefault()

	path := filepath.Join(root, Dir, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers SPECFLOW_* environment variables over the
// file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPECFLOW_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.Capacity = n
		}
	}
	if v := os.Getenv("SPECFLOW_TRUNK"); v != "" {
		cfg.Git.Trunk = v
	}
	if v := os.Getenv("SPECFLOW_PROTECTION_LEVEL"); v != "" {
		cfg.Guard.ProtectionLevel = v
	}
	if v := os.Getenv("SPECFLOW_DEFAULT_KIND"); v != "" {
		cfg.Scheduler.DefaultKind = v
	}
}

// Validate checks the configuration for values the rest of the system
// cannot work with.
func (c *Config) Validate() error {
	if c.Scheduler.Capacity < 1 {
		return fmt.Errorf("scheduler capacity must be at least 1, got %d", c.Scheduler.Capacity)
	}
	if c.Git.Trunk == "" {
		return fmt.Errorf("git trunk branch must not be empty")
	}
	switch c.Guard.ProtectionLevel {
	case "strict", "prompt", "none":
	default:
		return fmt.Errorf("invalid protection level %q (must be strict, prompt, or none)", c.Guard.ProtectionLevel)
	}
	return nil
}

// Save writes the configuration to the repository's config file.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0o644)
}
