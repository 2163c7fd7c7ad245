package sender

import (
	"fmt"
	"net/url"
	"time"
)

// Defaults for the DEXCell insert endpoint.
const (
	DefaultServer     = "insert.dexcell.com"
	DefaultURL        = "/insert-json.htm"
	DefaultGateway    = "None"
	DefaultLoggerName = "DexcellSender"
	DefaultTimeout    = 30 * time.Second
	DefaultTimezone   = "UTC"
)

// Config holds the connection parameters of a Sender.
type Config struct {
	// Gateway identifies the device on whose behalf readings are submitted.
	Gateway string

	// Server is the insert host, optionally with a port.
	Server string

	// URL is the request path on Server.
	URL string

	// HTTPS selects TLS. DefaultConfig enables it.
	HTTPS bool

	// Timeout bounds each attempt, including reading the response.
	Timeout time.Duration

	// LoggerName selects the logger from the Registry given with WithRegistry.
	LoggerName string
}

// DefaultConfig returns the configuration of the public DEXCell insert service.
func DefaultConfig() Config {
	return Config{
		Gateway:    DefaultGateway,
		Server:     DefaultServer,
		URL:        DefaultURL,
		HTTPS:      true,
		Timeout:    DefaultTimeout,
		LoggerName: DefaultLoggerName,
	}
}

// SetDefaults fills empty fields. HTTPS is left untouched.
func (c *Config) SetDefaults() {
	if c.Gateway == "" {
		c.Gateway = DefaultGateway
	}
	if c.Server == "" {
		c.Server = DefaultServer
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LoggerName == "" {
		c.LoggerName = DefaultLoggerName
	}
}

// Endpoint returns the absolute URL readings are posted to.
func (c Config) Endpoint() (string, error) {
	scheme := "http"
	if c.HTTPS {
		scheme = "https"
	}
	raw := scheme + "://" + c.Server + c.URL
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse endpoint %q: missing server", raw)
	}
	return u.String(), nil
}
