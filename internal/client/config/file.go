package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TEXTDRIVE_CLIENT_SERVER_URL.
const EnvPrefix = "TEXTDRIVE_CLIENT"

// FileConfig is the on-disk shape of Config. Durations accept strings like "3s".
type FileConfig struct {
	ServerURL           string        `mapstructure:"server_url"`
	OnlineCheckInterval time.Duration `mapstructure:"online_check_interval"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	DownloadDir         string        `mapstructure:"download_dir"`
}

func parseFile(cfg *Config) error {
	return parseFileAt(cfg, flagx.ConfigFileFlag())
}

func parseFileAt(cfg *Config, path string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", cfg.ServerURL)
	v.SetDefault("online_check_interval", cfg.OnlineCheckInterval)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("download_dir", cfg.DownloadDir)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	cfg.ServerURL = fc.ServerURL
	cfg.OnlineCheckInterval = fc.OnlineCheckInterval
	cfg.RequestTimeout = fc.RequestTimeout
	cfg.DownloadDir = fc.DownloadDir
	return nil
}
