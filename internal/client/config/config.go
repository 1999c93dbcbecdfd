// Package config loads runtime configuration for the TextDrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config, then
//     TEXTDRIVE_CLIENT_* environment variables.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the TextDrive server
//	-i int      online status check interval (seconds)
//	-o string   directory downloads are written to
package config

import "time"

// Config holds runtime settings for the TextDrive CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API, e.g. http://127.0.0.1:8080.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: per-request deadline for API calls.
//   - DownloadDir: directory, relative to the working directory unless
//     absolute, where downloaded files are saved.
type Config struct {
	ServerURL           string        `validate:"required,http_url"`
	OnlineCheckInterval time.Duration `validate:"gt=0"`
	RequestTimeout      time.Duration `validate:"gt=0"`
	DownloadDir         string        `validate:"required"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.DownloadDir = "downloads"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
