package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/TypeTerrors/gonfig"
)

const (
	DefaultBackendURL = "http://localhost:5000"
	DefaultTimeoutMs  = 120000
)

type Config struct {
	Api     ApiConfig     `yaml:"api"`
	Backend BackendConfig `yaml:"backend"`
	Runner  RunnerConfig  `yaml:"runner"`
	Tui     TuiConfig     `yaml:"tui"`
	Log     LogConfig     `yaml:"log"`
}

type ApiConfig struct {
	Port              string `yaml:"port"`
	AllowedOrigins    string `yaml:"allowedOrigins"`
	BodyLimitMB       int    `yaml:"bodyLimitMB"`
	SessionTTLMinutes int    `yaml:"sessionTTLMinutes"`
}

// BackendConfig points at the image-editing service.
type BackendConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type RunnerConfig struct {
	QueueSize     int `yaml:"queueSize"`
	MaxConcurrent int `yaml:"maxConcurrent"`
}

type TuiConfig struct {
	OutputDir string `yaml:"outputDir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

func (a ApiConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

func Default() Config {
	var c Config
	c.Normalize()
	return c
}

// Normalize fills every zero value with its default.
func (c *Config) Normalize() {
	if c.Api.Port == "" {
		c.Api.Port = "8080"
	}
	if c.Api.AllowedOrigins == "" {
		c.Api.AllowedOrigins = "*"
	}
	if c.Api.BodyLimitMB <= 0 {
		c.Api.BodyLimitMB = 20
	}
	if c.Api.SessionTTLMinutes <= 0 {
		c.Api.SessionTTLMinutes = 60
	}

	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	if c.Backend.URL == "" {
		c.Backend.URL = DefaultBackendURL
	}
	if c.Backend.TimeoutMs <= 0 {
		c.Backend.TimeoutMs = DefaultTimeoutMs
	}

	if c.Runner.QueueSize <= 0 {
		c.Runner.QueueSize = 64
	}
	if c.Runner.MaxConcurrent <= 0 {
		c.Runner.MaxConcurrent = 4
	}

	if c.Tui.OutputDir == "" {
		c.Tui.OutputDir = "."
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Load reads path through gonfig, expanding ${VAR:-default} references from
// the environment and an optional .env file. A missing file yields the
// defaults with BACKEND_URL still honoured.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := Config{Backend: BackendConfig{URL: os.Getenv("BACKEND_URL")}}
		cfg.Normalize()
		return cfg, nil
	}

	cfg, err := gonfig.Load[Config](
		gonfig.WithConfigFile(path),
		gonfig.WithDotenv(".env"), // ignored if missing
		gonfig.WithStrict(),       // fail if ${VAR} has no value/default
	)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg.Normalize()
	return cfg, nil
}
