package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "parokya.db" {
		t.Errorf("db path = %q, want parokya.db", cfg.Database.Path)
	}
	if cfg.Auth.SessionTTLHours != 168 {
		t.Errorf("session ttl = %d, want 168", cfg.Auth.SessionTTLHours)
	}
	if cfg.Logs.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logs.Level)
	}
}

func TestLoadFile(t *testing.T) {
	content := `
[server]
port = 9090

[database]
path = "/var/lib/parokya/parokya.db"

[email]
server_token = "pm-token"
from_email = "office@parish.example"
sender_name = "Fr. Jose Rivera"
sender_position = "Parish Priest"
sender_contact = "(02) 555 0100"
organization_name = "St. Isidore Parish"

[metrics]
enabled = true
service_name = "parokya-prod"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Email.SenderRole != "Parish Priest" {
		t.Errorf("sender role = %q, want Parish Priest", cfg.Email.SenderRole)
	}
	if cfg.Email.Organization != "St. Isidore Parish" {
		t.Errorf("organization = %q", cfg.Email.Organization)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should be enabled")
	}
	// Unset sections keep their defaults
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Logs.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logs.Level)
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[[[not toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
