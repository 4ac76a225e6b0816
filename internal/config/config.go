// Package config provides configuration loading for sift.
//
// Precedence (highest to lowest): SIFT_* environment variables, the YAML
// config file (~/.config/sift/config.yaml by default), hardcoded defaults.
// Environment variables map underscores to nesting after the prefix:
// SIFT_SERVER_LISTEN -> server.listen, SIFT_ORACLE_API_KEY -> oracle.api_key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Extraction policies. HeuristicFirst runs the zero-cost pattern pass and
// only consults the oracle when it comes back empty; OracleAlways asks the
// oracle for every item and keeps whichever result is non-empty.
const (
	PolicyHeuristicFirst = "heuristic-first"
	PolicyOracleAlways   = "oracle-always"
)

// Config is the root configuration for the sift daemon and CLI.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Sync    SyncConfig    `koanf:"sync"`
	Oracle  OracleConfig  `koanf:"oracle"`
	Sources SourcesConfig `koanf:"sources"`
	Digest  DigestConfig  `koanf:"digest"`
}

// ServerConfig holds HTTP server and storage settings.
type ServerConfig struct {
	Listen string `koanf:"listen"`
	DBPath string `koanf:"db_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// SyncConfig controls the ingestion pipeline.
type SyncConfig struct {
	LookbackHours   int    `koanf:"lookback_hours"`
	IntervalMinutes int    `koanf:"interval_minutes"`
	Enabled         bool   `koanf:"enabled"`
	Policy          string `koanf:"policy"`
	StatusFile      string `koanf:"status_file"`
}

// OracleConfig configures the extraction oracle backend. An empty APIKey
// disables the oracle; the pipeline degrades to heuristic-only.
type OracleConfig struct {
	Provider       string `koanf:"provider"`
	APIKey         string `koanf:"api_key"`
	Model          string `koanf:"model"`
	BaseURL        string `koanf:"base_url"`
	MaxItems       int    `koanf:"max_items"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// SourcesConfig locates the per-source inputs. Empty paths disable a source.
type SourcesConfig struct {
	MeetingCachePath   string `koanf:"meeting_cache_path"`
	MeetingArchivePath string `koanf:"meeting_archive_path"`
	ChatLogDir         string `koanf:"chat_log_dir"`
	ChatUserID         string `koanf:"chat_user_id"`
}

// DigestConfig configures the daily briefing push.
type DigestConfig struct {
	WebhookURL string `koanf:"webhook_url"`
	Hour       int    `koanf:"hour"`
	Enabled    bool   `koanf:"enabled"`
}

// Default returns the built-in defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Listen: "127.0.0.1:7433",
			DBPath: filepath.Join(home, ".sift", "sift.db"),
		},
		Log: LogConfig{Level: "info"},
		Sync: SyncConfig{
			LookbackHours:   24,
			IntervalMinutes: 360,
			Enabled:         true,
			Policy:          PolicyHeuristicFirst,
			StatusFile:      filepath.Join(home, ".sift", "sync_status.json"),
		},
		Oracle: OracleConfig{
			Provider:       "anthropic",
			MaxItems:       5,
			TimeoutSeconds: 30,
		},
		Digest: DigestConfig{Hour: 8},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sift", "config.yaml")
}

// Load reads configuration from the given YAML file (default path when
// empty), then applies SIFT_* environment overrides. A missing file is not
// an error; defaults and environment still apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		configPath = DefaultPath()
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("SIFT_", ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// transformEnv maps SIFT_SECTION_FIELD_NAME to section.field_name. The first
// underscore separates the section; the rest stay joined since field names
// themselves contain underscores.
func transformEnv(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "SIFT_"))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

func (c *Config) validate() error {
	switch c.Sync.Policy {
	case PolicyHeuristicFirst, PolicyOracleAlways:
	default:
		return fmt.Errorf("invalid sync.policy %q", c.Sync.Policy)
	}
	if c.Sync.LookbackHours <= 0 {
		return fmt.Errorf("sync.lookback_hours must be positive, got %d", c.Sync.LookbackHours)
	}
	if c.Digest.Hour < 0 || c.Digest.Hour > 23 {
		return fmt.Errorf("digest.hour must be in [0,23], got %d", c.Digest.Hour)
	}
	return nil
}
