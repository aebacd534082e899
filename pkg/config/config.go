// Package config holds the gateway's configuration struct -- exactly the
// fields SPEC_FULL names, with the same sane-default posture the teacher's
// own config loading favored. Wire-level config sources (files, env,
// flags) are wired up by cmd/gatewayd; this package only defines the
// shape and defaults.
package config

import "time"

// Config is the gateway's full runtime configuration.
type Config struct {
	BindAddress        string        `yaml:"bind_address"`
	PolicyDir          string        `yaml:"policy_dir"`
	MaxConcurrentTasks int           `yaml:"max_concurrent_tasks"`
	SandboxPoolSize    int           `yaml:"sandbox_pool_size"`
	DefaultTimeout     time.Duration `yaml:"default_timeout"`
	MaxTimeout         time.Duration `yaml:"max_timeout"`
	WorkspaceDir       string        `yaml:"workspace_dir"`
	RetentionWindow    time.Duration `yaml:"retention_window"`
	LogLevel           string        `yaml:"log_level"`
}

// Default returns a Config populated with the gateway's out-of-the-box
// defaults, suitable for local development and as a base for overrides.
func Default() Config {
	return Config{
		BindAddress:        "127.0.0.1:8443",
		PolicyDir:          "/etc/gatewayd/policy",
		MaxConcurrentTasks: 16,
		SandboxPoolSize:    16,
		DefaultTimeout:     30 * time.Second,
		MaxTimeout:         10 * time.Minute,
		WorkspaceDir:       "/var/lib/gatewayd/workspace",
		RetentionWindow:    1 * time.Hour,
		LogLevel:           "info",
	}
}

// Validate checks that the configuration is internally consistent,
// returning the first violation found.
func (c Config) Validate() error {
	if c.MaxConcurrentTasks <= 0 {
		return errConfig("max_concurrent_tasks must be positive")
	}
	if c.SandboxPoolSize <= 0 {
		return errConfig("sandbox_pool_size must be positive")
	}
	if c.DefaultTimeout <= 0 {
		return errConfig("default_timeout must be positive")
	}
	if c.MaxTimeout < c.DefaultTimeout {
		return errConfig("max_timeout must be >= default_timeout")
	}
	if c.PolicyDir == "" {
		return errConfig("policy_dir must be set")
	}
	if c.WorkspaceDir == "" {
		return errConfig("workspace_dir must be set")
	}
	return nil
}
