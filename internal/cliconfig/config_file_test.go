package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	zero := 0

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Gateway:       "00:11:22",
				Server:        "localhost:8080",
				Insecure:      &trueVal,
				Timeout:       "5s",
				Token:         "abc",
				MaxRetries:    &zero,
				MaxReadings:   20,
				FlushInterval: "1m",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Gateway:       "00:11:22",
				Server:        "localhost:8080",
				Insecure:      true,
				Timeout:       5 * time.Second,
				Token:         "abc",
				MaxRetries:    0,
				MaxReadings:   20,
				FlushInterval: time.Minute,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Gateway: "file-gw",
				Server:  "file-server",
			},
			changed: map[string]bool{"gateway": true},
			initial: Config{
				Gateway: "flag-gw",
				Server:  "flag-server",
			},
			expected: Config{
				Gateway: "flag-gw", // unchanged because flag was set
				Server:  "file-server",
			},
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{Gateway: "None", MaxRetries: 10},
			expected:   Config{Gateway: "None", MaxRetries: 10},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Timeout: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
gateway = "00:11:22:33"
server = "insert.example.com"
insecure = true
timeout = "10s"
token = "abc"
max_retries = 3
retry_interval = "2s"
forward_logs = true
log_token = "gw-token"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Gateway != "00:11:22:33" {
		t.Errorf("Gateway = %v, want 00:11:22:33", fc.Gateway)
	}
	if fc.Timeout != "10s" {
		t.Errorf("Timeout = %v, want 10s", fc.Timeout)
	}
	if fc.Insecure == nil || !*fc.Insecure {
		t.Errorf("Insecure = %v, want true", fc.Insecure)
	}
	if fc.MaxRetries == nil || *fc.MaxRetries != 3 {
		t.Errorf("MaxRetries = %v, want 3", fc.MaxRetries)
	}
	if fc.LogToken != "gw-token" {
		t.Errorf("LogToken = %v, want gw-token", fc.LogToken)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
gateway = "gw"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(`gateway = "file-gw"`+"\n"+`server = "file-server"`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DEXCELL_SERVER", "env-server")

	cfg := DefaultConfig()
	if err := Load(&cfg, configPath, map[string]bool{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gateway != "file-gw" {
		t.Errorf("Gateway = %v, want file-gw", cfg.Gateway)
	}
	if cfg.Server != "env-server" {
		t.Errorf("Server = %v, want env-server", cfg.Server)
	}

	// a missing file is not an error
	cfg = DefaultConfig()
	if err := Load(&cfg, filepath.Join(tmpDir, "missing.toml"), map[string]bool{}); err != nil {
		t.Errorf("Load() with missing file: %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	// Should return a path containing .dexcell
	if path != "" && !strings.Contains(path, ".dexcell") {
		t.Errorf("DefaultConfigPath() = %v, should contain .dexcell", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
