// Package config holds global settings for the glyphtrace scanner.
// All settings can be configured via environment variables, and optionally
// layered over from a YAML settings file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the scanner and its glue surfaces.
type Config struct {
	// === Server ===
	Port         string // HTTP listen port (default: "8090")
	MaxBodyBytes int    // request body cap for the analyze endpoint

	// === Analysis defaults ===
	DefaultChecks []string // checks run when a request selects none
	MaskURLs      bool     // default mask_urls setting

	// === Audit ===
	AuditLogPath string // JSONL audit file; empty disables auditing

	// === Result cache ===
	RedisAddr string        // host:port of the cache; empty disables caching
	CacheTTL  time.Duration // how long cached envelopes stay valid
}

// fileConfig mirrors the YAML settings file. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it names.
type fileConfig struct {
	Port         *string  `yaml:"port"`
	MaxBodyBytes *int     `yaml:"max_body_bytes"`
	Checks       []string `yaml:"checks"`
	MaskURLs     *bool    `yaml:"mask_urls"`
	AuditLog     *string  `yaml:"audit_log"`
	RedisAddr    *string  `yaml:"redis_addr"`
	CacheTTLSecs *int     `yaml:"cache_ttl_seconds"`
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		Port:         GetEnv("GLYPHTRACE_PORT", "8090"),
		MaxBodyBytes: GetEnvInt("GLYPHTRACE_MAX_BODY_BYTES", 4*1024*1024),

		DefaultChecks: GetEnvSlice("GLYPHTRACE_CHECKS", []string{
			"unicode_specials", "unicode_bidi", "unicode_homoglyph",
			"unicode_norm", "payload_base64",
		}),
		MaskURLs: GetEnvBool("GLYPHTRACE_MASK_URLS", true),

		AuditLogPath: GetEnv("GLYPHTRACE_AUDIT_LOG", ""),

		RedisAddr: GetEnv("GLYPHTRACE_REDIS_ADDR", ""),
		CacheTTL:  time.Duration(GetEnvInt("GLYPHTRACE_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

// LoadFile layers a YAML settings file over the env-derived defaults.
func LoadFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.MaxBodyBytes != nil {
		cfg.MaxBodyBytes = *fc.MaxBodyBytes
	}
	if len(fc.Checks) > 0 {
		cfg.DefaultChecks = fc.Checks
	}
	if fc.MaskURLs != nil {
		cfg.MaskURLs = *fc.MaskURLs
	}
	if fc.AuditLog != nil {
		cfg.AuditLogPath = *fc.AuditLog
	}
	if fc.RedisAddr != nil {
		cfg.RedisAddr = *fc.RedisAddr
	}
	if fc.CacheTTLSecs != nil {
		cfg.CacheTTL = time.Duration(*fc.CacheTTLSecs) * time.Second
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at an awkward moment.
func (c *Config) Validate() error {
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %s", c.CacheTTL)
	}
	if len(c.DefaultChecks) == 0 {
		return fmt.Errorf("default checks must not be empty")
	}
	return nil
}

// Helper functions for environment variable parsing.
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
