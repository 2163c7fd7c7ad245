package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (DEXCELL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("gateway", os.Getenv("DEXCELL_GATEWAY"), &cfg.Gateway)
	s.setString("server", os.Getenv("DEXCELL_SERVER"), &cfg.Server)
	s.setString("url", os.Getenv("DEXCELL_URL"), &cfg.URL)
	s.setString("timezone", os.Getenv("DEXCELL_TIMEZONE"), &cfg.Timezone)
	s.setString("token", os.Getenv("DEXCELL_TOKEN"), &cfg.Token)
	s.setString("api-endpoint", os.Getenv("DEXCELL_API_ENDPOINT"), &cfg.APIEndpoint)
	s.setString("log-token", os.Getenv("DEXCELL_LOG_TOKEN"), &cfg.LogToken)
	s.setString("log-endpoint", os.Getenv("DEXCELL_LOG_ENDPOINT"), &cfg.LogEndpoint)
	s.setString("log-level", os.Getenv("DEXCELL_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", os.Getenv("DEXCELL_LOG_FILE"), &cfg.LogFile)
	s.setString("state-dir", os.Getenv("DEXCELL_STATE_DIR"), &cfg.StateDir)

	if err := s.setDuration("timeout", os.Getenv("DEXCELL_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("retry-interval", os.Getenv("DEXCELL_RETRY_INTERVAL"), &cfg.RetryInterval); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", os.Getenv("DEXCELL_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("max-retries", os.Getenv("DEXCELL_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("max-readings", os.Getenv("DEXCELL_MAX_READINGS"), &cfg.MaxReadings); err != nil {
		return err
	}

	s.setBoolFromString("insecure", os.Getenv("DEXCELL_INSECURE"), &cfg.Insecure)
	s.setBoolFromString("forward-logs", os.Getenv("DEXCELL_FORWARD_LOGS"), &cfg.ForwardLogs)

	return nil
}
