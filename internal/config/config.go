package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Server connection (required; the app refuses to start without it)
	Server ServerConfig `koanf:"server"`

	// Download behavior
	Download DownloadConfig `koanf:"download"`

	LogFile string `koanf:"log_file"` // debug log destination, empty disables
}

// ServerConfig holds the download server connection settings.
type ServerConfig struct {
	URL    string `koanf:"url"`    // e.g., "http://localhost:8000"
	APIKey string `koanf:"apikey"` // API key from the server settings page
}

// DownloadConfig holds download tuning knobs.
type DownloadConfig struct {
	Quality       string `koanf:"quality"`        // fallback when the server settings carry none
	MaxConcurrent int    `koanf:"max_concurrent"` // fallback concurrency bound (1-10, default: 3)
	PageSize      int    `koanf:"page_size"`      // completed-history page size (default: 50)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize server URL (remove trailing slash)
	cfg.Server.URL = strings.TrimSuffix(cfg.Server.URL, "/")

	if cfg.LogFile != "" {
		cfg.LogFile = expandPath(cfg.LogFile)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/riptide/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "riptide", "config.toml"))
	}

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

// HasServerConfig returns true if the server connection is configured.
func (c *Config) HasServerConfig() bool {
	return c.Server.URL != "" && c.Server.APIKey != ""
}

// GetDownloadConfig returns the download configuration with defaults applied.
func (c *Config) GetDownloadConfig() DownloadConfig {
	cfg := c.Download

	// Apply defaults
	if cfg.Quality == "" {
		cfg.Quality = "HI_RES_LOSSLESS"
	}
	if cfg.MaxConcurrent <= 0 || cfg.MaxConcurrent > 10 {
		cfg.MaxConcurrent = 3
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}

	return cfg
}
