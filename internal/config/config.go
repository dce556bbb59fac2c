// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jeranaias/chatdeck/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete chatdeck configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Session SessionConfig `toml:"session" json:"session"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Server  ServerConfig  `toml:"server" json:"server"`
}

// APIConfig locates the chat backend.
type APIConfig struct {
	// BaseURL is the server root; the client appends "/api".
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds each request. 0 means no timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// SessionConfig selects where the active session id is kept.
type SessionConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`
	// Path overrides the backend's default file under the config dir.
	Path string `toml:"path" json:"path"`
	// Watch reloads the session id when another process changes the file.
	Watch bool `toml:"watch" json:"watch"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme          string `toml:"theme" json:"theme"`
	WordWrap       int    `toml:"word_wrap" json:"word_wrap"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// File receives logs while the TUI owns the terminal.
	File string `toml:"file" json:"file"`
}

// ServerConfig configures the development chat API server.
type ServerConfig struct {
	Addr           string   `toml:"addr" json:"addr"`
	DatabasePath   string   `toml:"database_path" json:"database_path"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
	// RateLimit is the sustained requests per second allowed per client IP.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	RateBurst int     `toml:"rate_burst" json:"rate_burst"`

	Images ImagesConfig `toml:"images" json:"images"`
	OpenAI OpenAIConfig `toml:"openai" json:"openai"`
}

// ImagesConfig selects where uploaded images are stored.
type ImagesConfig struct {
	// Backend is "disk" or "s3".
	Backend string `toml:"backend" json:"backend"`
	Dir     string `toml:"dir" json:"dir"`
	// PublicURL prefixes image URLs handed back to clients. Empty derives
	// it from the request host.
	PublicURL string   `toml:"public_url" json:"public_url"`
	S3        S3Config `toml:"s3" json:"s3"`
}

// S3Config points at an S3-compatible bucket.
type S3Config struct {
	Bucket          string `toml:"bucket" json:"bucket"`
	Region          string `toml:"region" json:"region"`
	Endpoint        string `toml:"endpoint" json:"endpoint"`
	AccessKeyID     string `toml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key" json:"secret_access_key"`
}

// OpenAIConfig enables model-backed replies in the development server.
// Without an API key the server answers with canned components.
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key" json:"api_key"`
	BaseURL     string  `toml:"base_url" json:"base_url"`
	Model       string  `toml:"model" json:"model"`
	Temperature float64 `toml:"temperature" json:"temperature"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:5005",
			TimeoutSecs: 0,
		},
		Session: SessionConfig{
			Backend: "file",
			Watch:   true,
		},
		UI: UIConfig{
			Theme:          "auto",
			WordWrap:       80,
			ShowTimestamps: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:           ":5005",
			AllowedOrigins: []string{"*"},
			RateLimit:      10,
			RateBurst:      20,
			Images: ImagesConfig{
				Backend: "disk",
				S3: S3Config{
					Bucket: "chatdeck-images",
					Region: "us-east-1",
				},
			},
			OpenAI: OpenAIConfig{
				Model:       "gpt-4o-mini",
				Temperature: 0.2,
			},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// DirEnv overrides the configuration directory.
const DirEnv = "CHATDECK_HOME"

// ConfigDir returns the chatdeck configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatdeck"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// inDir resolves name against the config directory, or returns "" when
// the directory cannot be determined.
func inDir(name string) string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, name)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the default config file if present, then applies environment
// overrides, defaults and validation.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit file. A missing file is not an
// error: the defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg and fills any values left empty.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are not overridden.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadDefaultEnvFile loads ./.env when it exists.
func LoadDefaultEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return LoadEnvFile(".env")
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = defaults.Session.Backend
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaults.UI.WordWrap
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = defaults.Server.RateLimit
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = defaults.Server.RateBurst
	}
	if cfg.Server.Images.Backend == "" {
		cfg.Server.Images.Backend = defaults.Server.Images.Backend
	}
	if cfg.Server.Images.S3.Bucket == "" {
		cfg.Server.Images.S3.Bucket = defaults.Server.Images.S3.Bucket
	}
	if cfg.Server.Images.S3.Region == "" {
		cfg.Server.Images.S3.Region = defaults.Server.Images.S3.Region
	}
	if cfg.Server.OpenAI.Model == "" {
		cfg.Server.OpenAI.Model = defaults.Server.OpenAI.Model
	}
}

// SetDefaults resolves paths that depend on the config directory.
func (c *Config) SetDefaults() {
	if c.Log.File == "" {
		c.Log.File = inDir("chatdeck.log")
	}
	if c.Server.DatabasePath == "" {
		c.Server.DatabasePath = inDir("server.db")
	}
	if c.Server.Images.Dir == "" {
		c.Server.Images.Dir = inDir("images")
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# chatdeck configuration file\n")
	buf.WriteString("# Environment variables (CHATDECK_*) override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
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

var (
	validSessionBackends = []string{"file", "sqlite", "memory"}
	validThemes          = []string{"auto", "dark", "light"}
	validLogLevels       = []string{"debug", "info", "warn", "error"}
	validImageBackends   = []string{"disk", "s3"}
)

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("api.base_url", "must be an absolute http(s) URL, got %q", c.API.BaseURL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("api.base_url", "unsupported scheme %q", u.Scheme)
	}
	if c.API.TimeoutSecs < 0 {
		add("api.timeout_secs", "must not be negative")
	}

	if !oneOf(c.Session.Backend, validSessionBackends) {
		add("session.backend", "must be one of %s", strings.Join(validSessionBackends, ", "))
	}
	if !oneOf(c.UI.Theme, validThemes) {
		add("ui.theme", "must be one of %s", strings.Join(validThemes, ", "))
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 400 {
		add("ui.word_wrap", "must be between 20 and 400")
	}
	if !oneOf(strings.ToLower(c.Log.Level), validLogLevels) {
		add("log.level", "must be one of %s", strings.Join(validLogLevels, ", "))
	}

	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "must not be negative")
	}
	if c.Server.RateBurst < 1 {
		add("server.rate_burst", "must be at least 1")
	}
	if !oneOf(c.Server.Images.Backend, validImageBackends) {
		add("server.images.backend", "must be one of %s", strings.Join(validImageBackends, ", "))
	}
	if c.Server.Images.Backend == "s3" && c.Server.Images.S3.Bucket == "" {
		add("server.images.s3.bucket", "required when images.backend is s3")
	}
	if t := c.Server.OpenAI.Temperature; t < 0 || t > 2 {
		add("server.openai.temperature", "must be between 0 and 2")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// EnvOverrides lists the environment variables that override the file.
// Empty values leave the file setting alone.
type EnvOverrides struct {
	APIURL     string `env:"CHATDECK_API_URL"`
	ViteAPIURL string `env:"VITE_API_URL"`
	Timeout    int    `env:"CHATDECK_API_TIMEOUT"`

	SessionBackend string `env:"CHATDECK_SESSION_BACKEND"`
	SessionPath    string `env:"CHATDECK_SESSION_PATH"`

	LogLevel string `env:"CHATDECK_LOG_LEVEL"`
	Theme    string `env:"CHATDECK_THEME"`

	ServerAddr     string   `env:"CHATDECK_SERVER_ADDR"`
	DatabasePath   string   `env:"CHATDECK_DATABASE_PATH"`
	AllowedOrigins []string `env:"CHATDECK_ALLOWED_ORIGINS" envSeparator:","`
	ImagesBackend  string   `env:"CHATDECK_IMAGES_BACKEND"`
	PublicURL      string   `env:"CHATDECK_PUBLIC_URL"`

	S3Bucket           string `env:"CHATDECK_S3_BUCKET"`
	S3Endpoint         string `env:"S3_ENDPOINT_URL"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"CHATDECK_OPENAI_MODEL"`
}

// ApplyEnvOverrides reads EnvOverrides from the process environment and
// applies every non-empty value. CHATDECK_API_URL wins over VITE_API_URL.
func (c *Config) ApplyEnvOverrides() error {
	var ov EnvOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	c.applyOverrides(ov)
	return nil
}

func (c *Config) applyOverrides(ov EnvOverrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&c.API.BaseURL, ov.ViteAPIURL)
	set(&c.API.BaseURL, ov.APIURL)
	if ov.Timeout > 0 {
		c.API.TimeoutSecs = ov.Timeout
	}

	set(&c.Session.Backend, strings.ToLower(ov.SessionBackend))
	set(&c.Session.Path, ov.SessionPath)
	set(&c.Log.Level, strings.ToLower(ov.LogLevel))
	set(&c.UI.Theme, strings.ToLower(ov.Theme))

	set(&c.Server.Addr, ov.ServerAddr)
	set(&c.Server.DatabasePath, ov.DatabasePath)
	if len(ov.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = ov.AllowedOrigins
	}
	set(&c.Server.Images.Backend, strings.ToLower(ov.ImagesBackend))
	set(&c.Server.Images.PublicURL, ov.PublicURL)

	s3 := &c.Server.Images.S3
	set(&s3.Bucket, ov.S3Bucket)
	set(&s3.Endpoint, ov.S3Endpoint)
	set(&s3.Region, ov.AWSRegion)
	set(&s3.AccessKeyID, ov.AWSAccessKeyID)
	set(&s3.SecretAccessKey, ov.AWSSecretAccessKey)

	oa := &c.Server.OpenAI
	set(&oa.APIKey, ov.OpenAIKey)
	set(&oa.BaseURL, ov.OpenAIBaseURL)
	set(&oa.Model, ov.OpenAIModel)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.AllowedOrigins != nil {
		clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	}
	return &clone
}

// Redacted returns a copy with secrets masked, safe to print.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	mask := func(s *string) {
		if *s != "" {
			*s = "[REDACTED]"
		}
	}
	mask(&safe.Server.OpenAI.APIKey)
	mask(&safe.Server.Images.S3.SecretAccessKey)
	mask(&safe.Server.Images.S3.AccessKeyID)
	return safe
}

// String renders the redacted config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(c.Redacted())
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.SetDefaults()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
