// Package config loads server settings from defaults, an optional YAML file
// and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the storefront server.
type Config struct {
	Environment string `yaml:"environment"`
	HTTPAddr    string `yaml:"http_addr"`
	// GRPCHealthAddr enables the gRPC health listener when non-empty.
	GRPCHealthAddr string `yaml:"grpc_health_addr"`
	DatabaseURL    string `yaml:"database_url"`
	CORSOrigins    string `yaml:"cors_origins"`
	FrontendURL    string `yaml:"frontend_url"`
	LogFile        string `yaml:"log_file"`

	GoogleDriveFolderURL string `yaml:"google_drive_folder_url"`

	OpenRouterAPIKey string        `yaml:"openrouter_api_key"`
	OpenRouterModel  string        `yaml:"openrouter_model"`
	DescribeTimeout  time.Duration `yaml:"describe_timeout"`

	ImageTimeout  time.Duration `yaml:"image_timeout"`
	MaxImageBytes int64         `yaml:"max_image_bytes"`

	SessionTTL time.Duration `yaml:"session_ttl"`
	// SessionSweep is a cron spec; empty disables the background sweep.
	SessionSweep string `yaml:"session_sweep"`

	LoginMaxFailures int           `yaml:"login_max_failures"`
	LoginWindow      time.Duration `yaml:"login_window"`
	LoginBlockFor    time.Duration `yaml:"login_block_for"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment:          "development",
		HTTPAddr:             ":8000",
		CORSOrigins:          "http://localhost:5173,http://localhost:3000",
		FrontendURL:          "http://localhost:5173",
		GoogleDriveFolderURL: "https://drive.google.com/drive/folders/1ms1u6tuw22Bsl1SsGpR1zXtkR_zsgddx",
		DescribeTimeout:      30 * time.Second,
		ImageTimeout:         15 * time.Second,
		MaxImageBytes:        10 << 20,
		SessionTTL:           24 * time.Hour,
		LoginMaxFailures:     5,
		LoginWindow:          15 * time.Minute,
		LoginBlockFor:        15 * time.Minute,
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.loadEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// loadEnv overrides fields from environment variables that are set.
func (c *Config) loadEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := cast.ToDurationE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := cast.ToIntE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("ENVIRONMENT", &c.Environment)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("GRPC_HEALTH_ADDR", &c.GRPCHealthAddr)
	str("DATABASE_URL", &c.DatabaseURL)
	str("CORS_ORIGINS", &c.CORSOrigins)
	str("FRONTEND_URL", &c.FrontendURL)
	str("LOG_FILE", &c.LogFile)
	str("GOOGLE_DRIVE_FOLDER_URL", &c.GoogleDriveFolderURL)
	str("OPENROUTER_API_KEY", &c.OpenRouterAPIKey)
	str("OPENROUTER_MODEL", &c.OpenRouterModel)
	str("SESSION_SWEEP", &c.SessionSweep)
	dur("DESCRIBE_TIMEOUT", &c.DescribeTimeout)
	dur("IMAGE_TIMEOUT", &c.ImageTimeout)
	dur("SESSION_TTL", &c.SessionTTL)
	dur("LOGIN_WINDOW", &c.LoginWindow)
	dur("LOGIN_BLOCK_FOR", &c.LoginBlockFor)
	num("LOGIN_MAX_FAILURES", &c.LoginMaxFailures)
	if v, ok := lookup("MAX_IMAGE_BYTES"); ok {
		n, err := cast.ToInt64E(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_IMAGE_BYTES: %w", err))
		} else {
			c.MaxImageBytes = n
		}
	}
	return errors.Join(errs...)
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("max_image_bytes must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// CORSOriginsList returns the allowed origins: the comma-separated list plus
// the frontend URL, without blanks or duplicates.
func (c *Config) CORSOriginsList() []string {
	out := []string{}
	seen := map[string]bool{}
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			return
		}
		seen[o] = true
		out = append(out, o)
	}
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		add(o)
	}
	add(c.FrontendURL)
	return out
}
