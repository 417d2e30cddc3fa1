package mcphealth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonchun/mcphealth"
)

func TestNew_WithConfigFile(t *testing.T) {
	content := "listen_addr: \"127.0.0.1:9911\"\nattempt_timeout: \"4s\"\n"
	dir := t.TempDir()
	configDir := filepath.Join(dir, "mcphealth")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)

	svc, err := mcphealth.New(mcphealth.Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got, want := svc.ListenAddr, "127.0.0.1:9911"; got != want {
		t.Fatalf("ListenAddr = %q, want %q", got, want)
	}
	if got, want := svc.Prober.AttemptTimeout(), 4*time.Second; got != want {
		t.Fatalf("AttemptTimeout = %v, want %v", got, want)
	}
}

func TestNew_ExplicitConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("attempt_timeout: \"0s\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := mcphealth.New(mcphealth.Config{ConfigPath: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := svc.Prober.AttemptTimeout(); got != 0 {
		t.Fatalf("AttemptTimeout = %v, want 0", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_body_bytes: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := mcphealth.New(mcphealth.Config{ConfigPath: path}); err == nil {
		t.Fatal("New() expected error for invalid config, got nil")
	}
}

func TestNew_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	svc, err := mcphealth.New(mcphealth.Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got, want := svc.Prober.AttemptTimeout(), 15*time.Second; got != want {
		t.Fatalf("AttemptTimeout = %v, want %v", got, want)
	}
}
