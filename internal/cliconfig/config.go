package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/dexcell/pkg/dexcell"
	"github.com/bft-labs/dexcell/pkg/loghandler"
	"github.com/bft-labs/dexcell/pkg/restapi"
	"github.com/bft-labs/dexcell/pkg/sender"
)

// Config holds CLI configuration for dexcell.
type Config struct {
	Gateway  string
	Server   string
	URL      string
	Insecure bool
	Timeout  time.Duration
	Timezone string

	Token       string
	APIEndpoint string

	LogToken    string
	LogEndpoint string
	ForwardLogs bool
	LogLevel    string
	LogFile     string

	StateDir string

	MaxRetries    int
	RetryInterval time.Duration
	MaxReadings   int
	FlushInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Gateway:       sender.DefaultGateway,
		Server:        sender.DefaultServer,
		URL:           sender.DefaultURL,
		Timeout:       sender.DefaultTimeout,
		Timezone:      sender.DefaultTimezone,
		APIEndpoint:   restapi.DefaultEndpoint,
		LogEndpoint:   loghandler.DefaultEndpoint,
		LogLevel:      "info",
		StateDir:      "", // Derived from DefaultConfigPath during Validate
		MaxRetries:    int(sender.DefaultMaxRetries),
		RetryInterval: sender.DefaultRetryInterval,
		MaxReadings:   100,
		FlushInterval: 5 * time.Second,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Gateway == "" {
		return fmt.Errorf("gateway is required")
	}
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if c.URL == "" {
		c.URL = sender.DefaultURL
	}
	if !strings.HasPrefix(c.URL, "/") {
		c.URL = "/" + c.URL
	}
	if c.Timezone == "" {
		c.Timezone = sender.DefaultTimezone
	}

	// Ensure no trailing slash
	c.APIEndpoint = strings.TrimRight(c.APIEndpoint, "/")
	c.LogEndpoint = strings.TrimRight(c.LogEndpoint, "/")

	if c.StateDir == "" {
		if p := DefaultConfigPath(); p != "" {
			c.StateDir = filepath.Dir(p)
		} else {
			c.StateDir = "."
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("retry interval must be positive")
	}
	if c.MaxReadings <= 0 {
		return fmt.Errorf("max readings must be positive")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.ForwardLogs && c.LogToken == "" {
		return fmt.Errorf("forward-logs requires log-token")
	}

	return nil
}

// Masked returns a copy of c that is safe to log.
func (c Config) Masked() Config {
	if c.Token != "" {
		c.Token = "*****"
	}
	if c.LogToken != "" {
		c.LogToken = "*****"
	}
	return c
}

// Library converts the CLI configuration to the library configuration.
func (c Config) Library() dexcell.Config {
	return dexcell.Config{
		Gateway:     c.Gateway,
		Server:      c.Server,
		URL:         c.URL,
		HTTPS:       !c.Insecure,
		Timeout:     c.Timeout,
		LoggerName:  sender.DefaultLoggerName,
		APIToken:    c.Token,
		APIEndpoint: c.APIEndpoint,
		LogToken:    c.LogToken,
		LogEndpoint: c.LogEndpoint,
		ForwardLogs: c.ForwardLogs,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer, zero included.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Zero is accepted so that retries can be disabled from the environment.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
