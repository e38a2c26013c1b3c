// Package config holds application configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Update  UpdateConfig  `mapstructure:"update"`
	Assets  AssetsConfig  `mapstructure:"assets"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// UpdateConfig holds release feed configuration.
type UpdateConfig struct {
	Repo string `mapstructure:"repo"`
}

// AssetsConfig holds encoder toolchain configuration.
type AssetsConfig struct {
	ArchiveURL string `mapstructure:"archive_url"`
}

// Load reads configuration from the optional config file under the app
// root and from TINYTHIS_* environment variables.
// Priority: environment variables > config file > defaults.
func Load(appRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if appRoot != "" {
		v.AddConfigPath(appRoot)
	}

	v.SetEnvPrefix("TINYTHIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", filepath.Join(appRoot, "config.yaml"), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", false)

	v.SetDefault("update.repo", "")
	v.SetDefault("assets.archive_url", "")
}
