package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Email    EmailConfig    `toml:"email"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Logs     LogsConfig     `toml:"logs"`
}

type ServerConfig struct {
	Port    int    `toml:"port"`
	BaseURL string `toml:"base_url"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	SessionTTLHours int    `toml:"session_ttl_hours"`
	AdminEmail      string `toml:"admin_email"`
	AdminName       string `toml:"admin_name"`
	AdminPassword   string `toml:"admin_password"`
}

type EmailConfig struct {
	ServerToken  string `toml:"server_token"`
	FromEmail    string `toml:"from_email"`
	SenderName   string `toml:"sender_name"`
	SenderRole   string `toml:"sender_position"`
	SenderPhone  string `toml:"sender_contact"`
	Organization string `toml:"organization_name"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Service string `toml:"service_name"`
}

type LogsConfig struct {
	Level string `toml:"level"`
}

// Load reads a TOML config file. A missing file yields the defaults, so
// development runs work without any configuration.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Path: "parokya.db",
		},
		Auth: AuthConfig{
			SessionTTLHours: 24 * 7,
		},
		Email: EmailConfig{
			Organization: "Parish Office",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Service: "parokya",
		},
		Logs: LogsConfig{
			Level: "info",
		},
	}
}
