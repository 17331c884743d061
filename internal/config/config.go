// Package config loads the storefront client configuration from a YAML file
// and STOREFRONT_* environment variables, with environment values taking
// precedence over the file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root client configuration.
type Config struct {
	BaseURL string      `yaml:"base_url" env:"STOREFRONT_BASE_URL" env-default:"http://localhost:8080"`
	Session SessionConf `yaml:"session"`
	HTTP    HTTPConf    `yaml:"http"`
	Log     LogConf     `yaml:"log"`
}

// SessionConf controls where and how the session is kept.
type SessionConf struct {
	// URL is an afs URL; empty means file://$HOME/.storefront/session.json.
	URL            string        `yaml:"url" env:"STOREFRONT_SESSION_URL"`
	ObfuscationKey string        `yaml:"obfuscation_key" env:"STOREFRONT_OBFUSCATION_KEY" env-default:"storefront-session"`
	ExpiryBuffer   time.Duration `yaml:"expiry_buffer" env:"STOREFRONT_EXPIRY_BUFFER" env-default:"5m"`
}

type HTTPConf struct {
	Timeout time.Duration `yaml:"timeout" env:"STOREFRONT_HTTP_TIMEOUT" env-default:"30s"`
}

type LogConf struct {
	Level  string `yaml:"level" env:"STOREFRONT_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"STOREFRONT_LOG_FORMAT" env-default:"text"`
}

// Load reads path (when not empty) and overlays the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		// ReadConfig overlays the environment on top of the file
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if cfg.Session.URL == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home dir: %w", err)
		}
		cfg.Session.URL = "file://" + filepath.Join(home, ".storefront", "session.json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	if c.Session.ExpiryBuffer < 0 {
		return fmt.Errorf("expiry_buffer must not be negative: %v", c.Session.ExpiryBuffer)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive: %v", c.HTTP.Timeout)
	}
	if _, err = c.Log.level(); err != nil {
		return err
	}
	return nil
}

func (l LogConf) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.Log.level()
	options := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}
