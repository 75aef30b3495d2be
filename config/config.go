// Package config loads the service configuration from YAML with defaults and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	EnvModelsDir = "AGROSMART_MODELS_DIR"
	EnvHTTPPort  = "AGROSMART_HTTP_PORT"

	FallbackNone  = "none"
	FallbackRules = "rules"
)

type Config struct {
	HTTP struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		RateLimit      int           `yaml:"rate_limit"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Models struct {
		Dir         string        `yaml:"dir"`
		LoadTimeout time.Duration `yaml:"load_timeout"`
		Lazy        bool          `yaml:"lazy"`
		Watch       bool          `yaml:"watch"`
		Fallback    string        `yaml:"fallback"`
	} `yaml:"models"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	var c Config
	c.HTTP.Port = 8000
	c.HTTP.Timeout = 30 * time.Second
	c.HTTP.AllowedOrigins = []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:3000",
	}
	c.HTTP.RateLimit = 120
	c.HTTP.MaxBodyBytes = 1 << 20
	c.Models.Dir = "trained_models"
	c.Models.LoadTimeout = 30 * time.Second
	c.Models.Fallback = FallbackNone
	c.Cache.Size = 1024
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	return &c
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if dir := os.Getenv(EnvModelsDir); dir != "" {
		c.Models.Dir = dir
	}
	if raw := os.Getenv(EnvHTTPPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPPort, err)
		}
		c.HTTP.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit must not be negative"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.Models.Dir == "" {
		errs = append(errs, errors.New("models.dir is required"))
	}
	if c.Models.LoadTimeout <= 0 {
		errs = append(errs, errors.New("models.load_timeout must be positive"))
	}
	if c.Models.Fallback != FallbackNone && c.Models.Fallback != FallbackRules {
		errs = append(errs, fmt.Errorf("models.fallback must be %q or %q, got %q", FallbackNone, FallbackRules, c.Models.Fallback))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, errors.New("cache.size must not be negative"))
	}
	return errors.Join(errs...)
}
