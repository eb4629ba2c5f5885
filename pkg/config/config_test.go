package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Port != "8090" {
		t.Fatalf("expected default port 8090, got %s", cfg.Port)
	}
	if !cfg.MaskURLs {
		t.Fatal("expected mask_urls to default to true")
	}
	if len(cfg.DefaultChecks) != 5 {
		t.Fatalf("expected 5 default checks, got %d", len(cfg.DefaultChecks))
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache TTL, got %s", cfg.CacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLYPHTRACE_PORT", "9999")
	t.Setenv("GLYPHTRACE_MASK_URLS", "false")
	t.Setenv("GLYPHTRACE_CHECKS", "unicode_bidi, payload_base64")

	cfg := NewDefaultConfig()
	if cfg.Port != "9999" {
		t.Fatalf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.MaskURLs {
		t.Fatal("expected mask_urls false from env")
	}
	if len(cfg.DefaultChecks) != 2 || cfg.DefaultChecks[1] != "payload_base64" {
		t.Fatalf("unexpected checks from env: %v", cfg.DefaultChecks)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glyphtrace.yaml")
	body := "port: \"7070\"\nmask_urls: false\ncache_ttl_seconds: 60\nchecks:\n  - unicode_norm\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write settings file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected file port 7070, got %s", cfg.Port)
	}
	if cfg.MaskURLs {
		t.Fatal("expected file to disable mask_urls")
	}
	if cfg.CacheTTL != time.Minute {
		t.Fatalf("expected 1m TTL, got %s", cfg.CacheTTL)
	}
	if len(cfg.DefaultChecks) != 1 || cfg.DefaultChecks[0] != "unicode_norm" {
		t.Fatalf("unexpected checks: %v", cfg.DefaultChecks)
	}
	// Settings the file does not name keep their defaults.
	if cfg.MaxBodyBytes != 4*1024*1024 {
		t.Fatalf("expected default body cap, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing settings file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxBodyBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero body cap")
	}

	cfg = NewDefaultConfig()
	cfg.CacheTTL = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative TTL")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GLYPHTRACE_TEST_BOOL", "not-a-bool")
	if !GetEnvBool("GLYPHTRACE_TEST_BOOL", true) {
		t.Fatal("malformed bool should fall back to default")
	}

	t.Setenv("GLYPHTRACE_TEST_INT", "42")
	if got := GetEnvInt("GLYPHTRACE_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	t.Setenv("GLYPHTRACE_TEST_SLICE", " , ,")
	if got := GetEnvSlice("GLYPHTRACE_TEST_SLICE", []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Fatalf("blank slice entries should fall back to default, got %v", got)
	}
}
