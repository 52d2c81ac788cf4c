// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/stdqa/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete stdqa configuration.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Health  HealthConfig  `toml:"health"`
	Ask     AskConfig     `toml:"ask"`
	UI      UIConfig      `toml:"ui"`
	Logging LoggingConfig `toml:"logging"`
	Journal JournalConfig `toml:"journal"`

	// path is the file the config was loaded from, if any.
	path string
}

// BackendConfig selects the question-answering service.
type BackendConfig struct {
	// Host is the hostname or IP of the backend server.
	Host string `toml:"host"`
	// Port is the TCP port the backend listens on.
	Port int `toml:"port"`
	// Scheme is "http" or "https".
	Scheme string `toml:"scheme"`
}

// HealthConfig controls the liveness probe.
type HealthConfig struct {
	TimeoutSeconds  int `toml:"timeout_seconds"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
	// Retries is the number of extra probe attempts after a failure.
	// Zero disables retrying.
	Retries         int `toml:"retries"`
	RetryMaxSeconds int `toml:"retry_max_seconds"`
}

// AskConfig controls the ask call.
type AskConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme"`
	// GlamourStyle is the glamour style used for answers ("auto", "dark",
	// "light", "notty").
	GlamourStyle string `toml:"glamour_style"`
	// ShowDetails renders the supporting facts of each answer.
	ShowDetails bool `toml:"show_details"`
}

// LoggingConfig controls the rotating log file.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// JournalConfig controls the opt-in local ask journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	// DefaultHost is used when neither the environment nor the config file
	// names a backend.
	DefaultHost = "95.163.255.123"
	// DefaultPort is the port the backend service listens on.
	DefaultPort = 8001
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Host:   DefaultHost,
			Port:   DefaultPort,
			Scheme: "http",
		},
		Health: HealthConfig{
			TimeoutSeconds:  10,
			CacheTTLSeconds: 30,
			Retries:         0,
			RetryMaxSeconds: 30,
		},
		Ask: AskConfig{
			TimeoutSeconds: 60,
		},
		UI: UIConfig{
			Theme:        "auto",
			GlamourStyle: "auto",
			ShowDetails:  true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// BaseURL returns scheme://host:port without a trailing slash.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("%s://%s", c.Backend.Scheme, net.JoinHostPort(c.Backend.Host, strconv.Itoa(c.Backend.Port)))
}

// Address returns host:port for display.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Backend.Host, strconv.Itoa(c.Backend.Port))
}

// HealthTimeout returns the probe timeout.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.Health.TimeoutSeconds) * time.Second
}

// HealthCacheTTL returns how long a successful probe is reused.
func (c *Config) HealthCacheTTL() time.Duration {
	return time.Duration(c.Health.CacheTTLSeconds) * time.Second
}

// AskTimeout returns the ask call timeout.
func (c *Config) AskTimeout() time.Duration {
	return time.Duration(c.Ask.TimeoutSeconds) * time.Second
}

// Path returns the file this config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the stdqa configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("STDQA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".stdqa"), nil
}

// ConfigPath returns the path to the default TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the configured log file, or the default under ConfigDir.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "stdqa.log")
	}
	return filepath.Join(dir, "logs", "stdqa.log")
}

// JournalPath returns the configured journal database path.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "stdqa-journal.db")
	}
	return filepath.Join(dir, "journal.db")
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config at path, or the default path when path is "".
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
		cfg.path = path
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Encode renders cfg as TOML with a short header.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# stdqa configuration file\n")
	buf.WriteString("# Environment variables STDQA_BACKEND_HOST / SELECTEL_IP override [backend].host\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors

	host := strings.TrimSpace(c.Backend.Host)
	if host == "" {
		errs = append(errs, ValidationError{Field: "backend.host", Message: "must not be empty"})
	} else if strings.ContainsAny(host, "/ ?#") {
		errs = append(errs, ValidationError{Field: "backend.host", Message: fmt.Sprintf("'%s' must be a bare host or IP, not a URL", host)})
	}
	if c.Backend.Port < 1 || c.Backend.Port > 65535 {
		errs = append(errs, ValidationError{Field: "backend.port", Message: fmt.Sprintf("%d is out of range 1-65535", c.Backend.Port)})
	}
	if s := strings.ToLower(c.Backend.Scheme); s != "http" && s != "https" {
		errs = append(errs, ValidationError{Field: "backend.scheme", Message: fmt.Sprintf("invalid scheme '%s', must be http or https", c.Backend.Scheme)})
	}

	if c.Health.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{Field: "health.timeout_seconds", Message: "must be positive"})
	}
	if c.Health.CacheTTLSeconds < 0 {
		errs = append(errs, ValidationError{Field: "health.cache_ttl_seconds", Message: "cannot be negative"})
	}
	if c.Health.Retries < 0 || c.Health.Retries > 10 {
		errs = append(errs, ValidationError{Field: "health.retries", Message: "must be between 0 and 10"})
	}
	if c.Ask.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{Field: "ask.timeout_seconds", Message: "must be positive"})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)})
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("invalid level '%s'", c.Logging.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that would otherwise fail validation.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Backend.Port == 0 {
		c.Backend.Port = d.Backend.Port
	}
	if c.Backend.Scheme == "" {
		c.Backend.Scheme = d.Backend.Scheme
	}
	c.Backend.Scheme = strings.ToLower(c.Backend.Scheme)
	c.Backend.Host = strings.TrimSpace(c.Backend.Host)
	if c.Health.TimeoutSeconds == 0 {
		c.Health.TimeoutSeconds = d.Health.TimeoutSeconds
	}
	if c.Health.RetryMaxSeconds == 0 {
		c.Health.RetryMaxSeconds = d.Health.RetryMaxSeconds
	}
	if c.Ask.TimeoutSeconds == 0 {
		c.Ask.TimeoutSeconds = d.Ask.TimeoutSeconds
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.GlamourStyle == "" {
		c.UI.GlamourStyle = d.UI.GlamourStyle
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ErrBadEnv is wrapped by values that could not be parsed from the environment.
var ErrBadEnv = errors.New("bad environment value")

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SELECTEL_IP: backend host (legacy name)
//   - STDQA_BACKEND_HOST: backend host, wins over SELECTEL_IP
//   - STDQA_BACKEND_PORT: backend port
//   - STDQA_HEALTH_RETRIES: extra health probe attempts
//   - STDQA_THEME: overrides ui.theme
//   - STDQA_LOG_LEVEL: overrides logging.level
//   - STDQA_JOURNAL: "1" or "true" enables the ask journal
//
// Unparseable numeric values are ignored with a warning on stderr.
func (c *Config) ApplyEnvOverrides() {
	if ip := os.Getenv("SELECTEL_IP"); ip != "" {
		c.Backend.Host = ip
	}
	if host := os.Getenv("STDQA_BACKEND_HOST"); host != "" {
		c.Backend.Host = host
	}
	if port := os.Getenv("STDQA_BACKEND_PORT"); port != "" {
		if n, err := parseEnvInt("STDQA_BACKEND_PORT", port); err == nil {
			c.Backend.Port = n
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if retries := os.Getenv("STDQA_HEALTH_RETRIES"); retries != "" {
		if n, err := parseEnvInt("STDQA_HEALTH_RETRIES", retries); err == nil {
			c.Health.Retries = n
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if theme := os.Getenv("STDQA_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if level := os.Getenv("STDQA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if journal := os.Getenv("STDQA_JOURNAL"); journal != "" {
		c.Journal.Enabled = journal == "1" || strings.EqualFold(journal, "true")
	}
}

func parseEnvInt(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrBadEnv, name, value)
	}
	return n, nil
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
