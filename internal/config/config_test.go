// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// isolate points the config dir at a temp dir and blanks the overrides
// most likely to be set on a developer machine.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(DirEnv, dir)
	for _, k := range []string{
		"CHATDECK_API_URL", "VITE_API_URL", "CHATDECK_SESSION_BACKEND",
		"CHATDECK_LOG_LEVEL", "CHATDECK_THEME", "OPENAI_API_KEY",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"CHATDECK_IMAGES_BACKEND", "CHATDECK_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c := Default()
			c.API.BaseURL = "http://example.test"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() loads defaults on
// first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}
	if cfg.API.BaseURL != "http://127.0.0.1:5005" {
		t.Errorf("API.BaseURL = %q, want default", cfg.API.BaseURL)
	}

	custom := Default()
	custom.UI.Theme = "light"
	SetGlobal(custom)
	if got := Global().UI.Theme; got != "light" {
		t.Errorf("after SetGlobal theme = %q, want light", got)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
	if cfg.Session.Backend != "file" {
		t.Errorf("Session.Backend = %q, want file", cfg.Session.Backend)
	}
	if cfg.Server.Images.Backend != "disk" {
		t.Errorf("Images.Backend = %q, want disk", cfg.Server.Images.Backend)
	}
	if cfg.API.TimeoutSecs != 0 || cfg.API.Timeout() != 0 {
		t.Errorf("API timeout = %d, want 0 (no timeout)", cfg.API.TimeoutSecs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"relative base url", func(c *Config) { c.API.BaseURL = "localhost:5005" }, "api.base_url", true},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "api.base_url", true},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs", true},
		{"unknown session backend", func(c *Config) { c.Session.Backend = "redis" }, "session.backend", true},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme", true},
		{"tiny word wrap", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap", true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level", true},
		{"uppercase log level", func(c *Config) { c.Log.Level = "DEBUG" }, "", false},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst", true},
		{"s3 without bucket", func(c *Config) {
			c.Server.Images.Backend = "s3"
			c.Server.Images.S3.Bucket = ""
		}, "server.images.s3.bucket", true},
		{"hot temperature", func(c *Config) { c.Server.OpenAI.Temperature = 3 }, "server.openai.temperature", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error is %T, want ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadFromPath(filepath.Join(dir, "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.API.BaseURL != Default().API.BaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Log.File != filepath.Join(dir, "chatdeck.log") {
		t.Errorf("Log.File = %q, want under config dir", cfg.Log.File)
	}
	if cfg.Server.Images.Dir != filepath.Join(dir, "images") {
		t.Errorf("Images.Dir = %q", cfg.Server.Images.Dir)
	}
}

func TestLoadFromPath_FileAndFillDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	data := `
[api]
base_url = "http://chat.internal:8000"

[session]
backend = "sqlite"

[server.images]
backend = "s3"

[server.images.s3]
bucket = "mockups"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.API.BaseURL != "http://chat.internal:8000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Session.Backend != "sqlite" {
		t.Errorf("Session.Backend = %q", cfg.Session.Backend)
	}
	if cfg.Server.Images.S3.Bucket != "mockups" {
		t.Errorf("S3.Bucket = %q", cfg.Server.Images.S3.Bucket)
	}
	if cfg.Server.Images.S3.Region != "us-east-1" {
		t.Errorf("S3.Region = %q, want default", cfg.Server.Images.S3.Region)
	}
	if cfg.UI.WordWrap != 80 {
		t.Errorf("UI.WordWrap = %d, want default 80", cfg.UI.WordWrap)
	}
}

func TestLoadFromPath_InvalidTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[api\nbase_url = "), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[session]\nbackend = \"redis\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "session.backend") {
		t.Fatalf("error = %v, want session.backend validation error", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("VITE_API_URL", "http://vite:5000")
	t.Setenv("CHATDECK_SESSION_BACKEND", "SQLite")
	t.Setenv("CHATDECK_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHATDECK_API_TIMEOUT", "30")

	cfg := Default()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides() error = %v", err)
	}
	if cfg.API.BaseURL != "http://vite:5000" {
		t.Errorf("BaseURL = %q, want VITE_API_URL", cfg.API.BaseURL)
	}
	if cfg.Session.Backend != "sqlite" {
		t.Errorf("Session.Backend = %q", cfg.Session.Backend)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey not applied")
	}
	if cfg.API.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d", cfg.API.TimeoutSecs)
	}

	// The chatdeck-specific variable wins over the Vite one.
	t.Setenv("CHATDECK_API_URL", "http://primary:5005")
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://primary:5005" {
		t.Errorf("BaseURL = %q, want CHATDECK_API_URL", cfg.API.BaseURL)
	}
}

func TestApplyEnvOverrides_BadNumber(t *testing.T) {
	isolate(t)
	t.Setenv("CHATDECK_API_TIMEOUT", "soon")
	if err := Default().ApplyEnvOverrides(); err == nil {
		t.Fatal("expected parse error for CHATDECK_API_TIMEOUT")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "dev.env")
	if err := os.WriteFile(path, []byte("CHATDECK_THEME=light\n"), 0600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("CHATDECK_THEME")
	t.Cleanup(func() { os.Unsetenv("CHATDECK_THEME") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	cfg, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light from env file", cfg.UI.Theme)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "sub", "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "https://chat.example.com"
	cfg.UI.ShowTimestamps = false
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.API.BaseURL != "https://chat.example.com" || loaded.UI.ShowTimestamps {
		t.Errorf("round trip mismatch: %+v", loaded.API)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Server.OpenAI.APIKey = "sk-secret"
	cfg.Server.Images.S3.SecretAccessKey = "aws-secret"

	out := cfg.String()
	if strings.Contains(out, "sk-secret") || strings.Contains(out, "aws-secret") {
		t.Errorf("String() leaks secrets:\n%s", out)
	}
	if cfg.Server.OpenAI.APIKey != "sk-secret" {
		t.Error("Redacted must not modify the original")
	}
}

func TestClone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.Server.AllowedOrigins[0] = "http://changed"
	if original.Server.AllowedOrigins[0] != "*" {
		t.Error("Clone should deep copy AllowedOrigins")
	}
}
