package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "wavestream"

type Config struct {
	Streaming StreamingConfig `koanf:"streaming"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Auth      AuthConfig      `koanf:"auth"`
	Player    PlayerConfig    `koanf:"player"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
}

// StreamingConfig points at the audio streaming endpoint.
type StreamingConfig struct {
	BaseURL  string        `koanf:"base_url"`  // e.g., "http://localhost:8001"
	Timeout  time.Duration `koanf:"timeout"`   // whole fetch timeout (default: 60s)
	MaxBytes int64         `koanf:"max_bytes"` // payload ceiling (default: 256 MiB)
}

// CatalogConfig configures song info lookups.
type CatalogConfig struct {
	BaseURL   string `koanf:"base_url"`   // defaults to streaming.base_url
	CacheSize int    `koanf:"cache_size"` // cached tracks (default: 256)
}

// AuthConfig holds the bearer credential. A token file is re-read on every
// load and wins over a static token.
type AuthConfig struct {
	Token     string `koanf:"token"`
	TokenFile string `koanf:"token_file"`
}

type PlayerConfig struct {
	Volume          int           `koanf:"volume"`           // 0-100 (default: 70)
	ErrorDisplay    time.Duration `koanf:"error_display"`    // error banner lifetime (default: 5s)
	MetadataTimeout time.Duration `koanf:"metadata_timeout"` // (default: 30s)
}

type MetricsConfig struct {
	Listen string `koanf:"listen"` // e.g., "127.0.0.1:9464"; empty disables
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  string `koanf:"file"`  // default: $XDG_STATE_HOME/wavestream/wavestream.log
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() Config {
	return Config{
		Streaming: StreamingConfig{
			BaseURL:  "http://localhost:8001",
			Timeout:  60 * time.Second,
			MaxBytes: 256 << 20,
		},
		Catalog: CatalogConfig{CacheSize: 256},
		Auth: AuthConfig{
			TokenFile: filepath.Join(xdg.ConfigHome, appName, "token"),
		},
		Player: PlayerConfig{
			Volume:          70,
			ErrorDisplay:    5 * time.Second,
			MetadataTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(xdg.StateHome, appName, appName+".log"),
		},
	}
}

// Load reads the user and working-directory config files.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order, later files winning.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Streaming.BaseURL = strings.TrimSuffix(c.Streaming.BaseURL, "/")
	c.Catalog.BaseURL = strings.TrimSuffix(c.Catalog.BaseURL, "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = c.Streaming.BaseURL
	}
	c.Auth.Token = strings.TrimSpace(c.Auth.Token)
	c.Auth.TokenFile = expandPath(c.Auth.TokenFile)
	c.Log.File = expandPath(c.Log.File)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Streaming.BaseURL == "" {
		return fmt.Errorf("streaming.base_url is required")
	}
	if !strings.HasPrefix(c.Streaming.BaseURL, "http://") && !strings.HasPrefix(c.Streaming.BaseURL, "https://") {
		return fmt.Errorf("streaming.base_url must be an http(s) URL, got %q", c.Streaming.BaseURL)
	}
	if c.Player.Volume < 0 || c.Player.Volume > 100 {
		return fmt.Errorf("player.volume must be between 0 and 100, got %d", c.Player.Volume)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// HasMetrics returns true if the metrics endpoint is enabled.
func (c *Config) HasMetrics() bool {
	return c.Metrics.Listen != ""
}

// HasStaticToken returns true if a token is set in the config itself.
func (c *Config) HasStaticToken() bool {
	return c.Auth.Token != ""
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/wavestream/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
