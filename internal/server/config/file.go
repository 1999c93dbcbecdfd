package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TEXTDRIVE_DATABASE_DSN.
const EnvPrefix = "TEXTDRIVE"

// FileConfig is the on-disk / environment shape of Config. Durations accept
// strings such as "30m".
type FileConfig struct {
	EndpointAddrHTTP            string        `mapstructure:"endpoint_addr_http"`
	DatabaseDSN                 string        `mapstructure:"database_dsn"`
	MaintenanceDSN              string        `mapstructure:"maintenance_dsn"`
	SecretKey                   string        `mapstructure:"secret_key"`
	TokenIssuer                 string        `mapstructure:"token_issuer"`
	AccessTokenValidityDuration time.Duration `mapstructure:"access_token_validity_duration"`
	BootstrapTimeout            time.Duration `mapstructure:"bootstrap_timeout"`
	SystemUserName              string        `mapstructure:"system_user_name"`
	SystemUserPassword          string        `mapstructure:"system_user_password"`
	LogLevel                    string        `mapstructure:"log_level"`
	AllowedOrigins              []string      `mapstructure:"allowed_origins"`
	GitHubClientID              string        `mapstructure:"github_client_id"`
	GitHubClientSecret          string        `mapstructure:"github_client_secret"`
	OAuthRedirectBaseURL        string        `mapstructure:"oauth_redirect_base_url"`
}

// parseFile overlays the config file named by -c/-config (if any) and
// TEXTDRIVE_* environment variables onto config. Values already in config
// act as defaults, so missing keys keep them.
func parseFile(config *Config) error {
	return parseFileAt(config, flagx.ConfigFileFlag())
}

func parseFileAt(config *Config, path string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// every key must be known to viper for env lookups to apply on Unmarshal
	v.SetDefault("endpoint_addr_http", config.EndpointAddrHTTP)
	v.SetDefault("database_dsn", config.DatabaseDSN)
	v.SetDefault("maintenance_dsn", config.MaintenanceDSN)
	v.SetDefault("secret_key", config.SecretKey)
	v.SetDefault("token_issuer", config.TokenIssuer)
	v.SetDefault("access_token_validity_duration", config.AccessTokenValidityDuration)
	v.SetDefault("bootstrap_timeout", config.BootstrapTimeout)
	v.SetDefault("system_user_name", config.SystemUserName)
	v.SetDefault("system_user_password", config.SystemUserPassword)
	v.SetDefault("log_level", config.LogLevel)
	v.SetDefault("allowed_origins", config.AllowedOrigins)
	v.SetDefault("github_client_id", config.GitHubClientID)
	v.SetDefault("github_client_secret", config.GitHubClientSecret)
	v.SetDefault("oauth_redirect_base_url", config.OAuthRedirectBaseURL)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	c := &FileConfig{}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.MaintenanceDSN = c.MaintenanceDSN
	config.SecretKey = c.SecretKey
	config.TokenIssuer = c.TokenIssuer
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration
	config.BootstrapTimeout = c.BootstrapTimeout
	config.SystemUserName = c.SystemUserName
	config.SystemUserPassword = c.SystemUserPassword
	config.LogLevel = c.LogLevel
	config.AllowedOrigins = c.AllowedOrigins
	config.GitHubClientID = c.GitHubClientID
	config.GitHubClientSecret = c.GitHubClientSecret
	config.OAuthRedirectBaseURL = c.OAuthRedirectBaseURL
	return nil
}
