package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalYAML_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{`"10s"`, 10 * time.Second},
		{`"500ms"`, 500 * time.Millisecond},
		{`"2m"`, 2 * time.Minute},
		{`0`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d duration
			if err := yaml.Unmarshal([]byte(tt.input), &d); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got, want := d.Duration(), tt.want; got != want {
				t.Fatalf("Duration() = %v, want %v", got, want)
			}
		})
	}
}

func TestDurationUnmarshalYAML_Invalid(t *testing.T) {
	var d duration
	err := yaml.Unmarshal([]byte(`"notaduration"`), &d)
	if err == nil {
		t.Fatal("Unmarshal(notaduration) expected error, got nil")
	}
}

func TestConfigStructPointerFields(t *testing.T) {
	// Verify that unmarshaling partial YAML leaves unset fields as nil.
	input := `listen_addr: ":9090"`
	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if cfg.ListenAddr == nil {
		t.Fatal("ListenAddr should not be nil")
	}
	if got, want := *cfg.ListenAddr, ":9090"; got != want {
		t.Fatalf("ListenAddr = %q, want %q", got, want)
	}
	if cfg.AttemptTimeout != nil {
		t.Fatalf("AttemptTimeout = %v, want nil", cfg.AttemptTimeout)
	}
	if cfg.MaxBodyBytes != nil {
		t.Fatalf("MaxBodyBytes = %v, want nil", cfg.MaxBodyBytes)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	return path
}

func TestLoadFrom_ValidFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr: "127.0.0.1:7000"
attempt_timeout: "5s"
request_timeout: "30s"
max_body_bytes: 65536
client_version: "2.1.0"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got, want := *cfg.ListenAddr, "127.0.0.1:7000"; got != want {
		t.Fatalf("ListenAddr = %q, want %q", got, want)
	}
	if got, want := cfg.AttemptTimeout.Duration(), 5*time.Second; got != want {
		t.Fatalf("AttemptTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.RequestTimeout.Duration(), 30*time.Second; got != want {
		t.Fatalf("RequestTimeout = %v, want %v", got, want)
	}
	if got, want := *cfg.MaxBodyBytes, int64(65536); got != want {
		t.Fatalf("MaxBodyBytes = %d, want %d", got, want)
	}
	if got, want := *cfg.ClientVersion, "2.1.0"; got != want {
		t.Fatalf("ClientVersion = %q, want %q", got, want)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v, want nil for missing file", err)
	}
	if cfg.ListenAddr != nil {
		t.Fatalf("ListenAddr = %v, want nil for missing file", cfg.ListenAddr)
	}
}

func TestLoadFrom_EmptyFile(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.AttemptTimeout != nil {
		t.Fatalf("AttemptTimeout = %v, want nil for empty file", cfg.AttemptTimeout)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "listen_addr: [invalid"))
	if err == nil {
		t.Fatal("LoadFrom() expected error for invalid YAML, got nil")
	}
}

func TestEnvOverrides_AllVars(t *testing.T) {
	path := writeConfig(t, "")

	t.Setenv("MCPHEALTH_LISTEN_ADDR", ":8181")
	t.Setenv("MCPHEALTH_ATTEMPT_TIMEOUT", "7s")
	t.Setenv("MCPHEALTH_REQUEST_TIMEOUT", "45s")
	t.Setenv("MCPHEALTH_MAX_BODY_BYTES", "4096")
	t.Setenv("MCPHEALTH_CLIENT_VERSION", "9.9.9")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if got, want := *cfg.ListenAddr, ":8181"; got != want {
		t.Fatalf("ListenAddr = %q, want %q", got, want)
	}
	if got, want := cfg.AttemptTimeout.Duration(), 7*time.Second; got != want {
		t.Fatalf("AttemptTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.RequestTimeout.Duration(), 45*time.Second; got != want {
		t.Fatalf("RequestTimeout = %v, want %v", got, want)
	}
	if got, want := *cfg.MaxBodyBytes, int64(4096); got != want {
		t.Fatalf("MaxBodyBytes = %d, want %d", got, want)
	}
	if got, want := *cfg.ClientVersion, "9.9.9"; got != want {
		t.Fatalf("ClientVersion = %q, want %q", got, want)
	}
}

func TestEnvOverrides_OverridesFile(t *testing.T) {
	path := writeConfig(t, `attempt_timeout: "5s"`)

	t.Setenv("MCPHEALTH_ATTEMPT_TIMEOUT", "9s")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got, want := cfg.AttemptTimeout.Duration(), 9*time.Second; got != want {
		t.Fatalf("AttemptTimeout = %v, want %v (env should override file)", got, want)
	}
}

func TestEnvOverrides_Invalid(t *testing.T) {
	tests := map[string]string{
		"MCPHEALTH_ATTEMPT_TIMEOUT": "soon",
		"MCPHEALTH_REQUEST_TIMEOUT": "later",
		"MCPHEALTH_MAX_BODY_BYTES":  "notanumber",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadFrom(writeConfig(t, "")); err == nil {
				t.Fatalf("LoadFrom() expected error for %s=%q, got nil", key, value)
			}
		})
	}
}

func TestLoad_FullPrecedence(t *testing.T) {
	// File sets attempt_timeout=5s, env sets 20s. Env should win.
	content := "attempt_timeout: \"5s\"\nmax_body_bytes: 2048\n"
	dir := t.TempDir()
	configDir := filepath.Join(dir, "mcphealth")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MCPHEALTH_ATTEMPT_TIMEOUT", "20s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.AttemptTimeout == nil || cfg.AttemptTimeout.Duration() != 20*time.Second {
		t.Fatalf("AttemptTimeout = %v, want 20s (env should override file)", cfg.AttemptTimeout)
	}
	if cfg.MaxBodyBytes == nil || *cfg.MaxBodyBytes != 2048 {
		t.Fatalf("MaxBodyBytes = %v, want 2048 (from file)", cfg.MaxBodyBytes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", false},
		{"zero attempt timeout disables bound", `attempt_timeout: "0s"`, false},
		{"negative attempt timeout", `attempt_timeout: "-1s"`, true},
		{"attempt timeout at max", `attempt_timeout: "10m"`, false},
		{"attempt timeout above max", `attempt_timeout: "11m"`, true},
		{"zero request timeout", `request_timeout: "0s"`, true},
		{"request timeout above max", `request_timeout: "1h"`, true},
		{"body limit too small", `max_body_bytes: 10`, true},
		{"body limit at min", `max_body_bytes: 1024`, false},
		{"body limit too large", `max_body_bytes: 16777217`, true},
		{"empty listen addr", `listen_addr: ""`, true},
		{"empty client version", `client_version: ""`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			if tt.wantErr && err == nil {
				t.Fatal("LoadFrom() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("LoadFrom() error = %v, want nil", err)
			}
		})
	}
}
