package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Gateway       string `toml:"gateway"`
	Server        string `toml:"server"`
	URL           string `toml:"url"`
	Insecure      *bool  `toml:"insecure"`
	Timeout       string `toml:"timeout"`
	Timezone      string `toml:"timezone"`
	Token         string `toml:"token"`
	APIEndpoint   string `toml:"api_endpoint"`
	LogToken      string `toml:"log_token"`
	LogEndpoint   string `toml:"log_endpoint"`
	ForwardLogs   *bool  `toml:"forward_logs"`
	LogLevel      string `toml:"log_level"`
	LogFile       string `toml:"log_file"`
	StateDir      string `toml:"state_dir"`
	MaxRetries    *int   `toml:"max_retries"`
	RetryInterval string `toml:"retry_interval"`
	MaxReadings   int    `toml:"max_readings"`
	FlushInterval string `toml:"flush_interval"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.dexcell/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dexcell", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("gateway", fc.Gateway, &cfg.Gateway)
	s.setString("server", fc.Server, &cfg.Server)
	s.setString("url", fc.URL, &cfg.URL)
	s.setString("timezone", fc.Timezone, &cfg.Timezone)
	s.setString("token", fc.Token, &cfg.Token)
	s.setString("api-endpoint", fc.APIEndpoint, &cfg.APIEndpoint)
	s.setString("log-token", fc.LogToken, &cfg.LogToken)
	s.setString("log-endpoint", fc.LogEndpoint, &cfg.LogEndpoint)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("retry-interval", fc.RetryInterval, &cfg.RetryInterval); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}

	s.setIntPtr("max-retries", fc.MaxRetries, &cfg.MaxRetries)
	s.setInt("max-readings", fc.MaxReadings, &cfg.MaxReadings)

	s.setBool("insecure", fc.Insecure, &cfg.Insecure)
	s.setBool("forward-logs", fc.ForwardLogs, &cfg.ForwardLogs)

	return nil
}

// Load applies the config file at path, when it exists, and then the
// environment to cfg. Flags named in changed are left alone.
func Load(cfg *Config, path string, changed map[string]bool) error {
	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return err
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}
	return ApplyEnvConfig(cfg, changed)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
