// Package config provides a reusable loader for archetypeirc's driver
// configuration files and environment variables. It is versioned so that
// downstream tooling can depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/gridbugs/archetype-lang/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for one archetypeirc run, mirroring
// core.Options plus the ambient logging/output settings the CLI layer
// owns (core itself never reads files or environment variables, per
// spec.md §6 "No file I/O").
type Config struct {
	Driver struct {
		Caller           string `mapstructure:"caller" json:"caller"`
		PropertyFocused  string `mapstructure:"property_focused" json:"property_focused"`
		MetadataURI      string `mapstructure:"metadata_uri" json:"metadata_uri"`
		MetadataStorage  string `mapstructure:"metadata_storage" json:"metadata_storage"`
		WithMetadata     bool   `mapstructure:"with_metadata" json:"with_metadata"`
		TestMode         bool   `mapstructure:"test_mode" json:"test_mode"`
		EventWellAddress string `mapstructure:"event_well_address" json:"event_well_address"`
		VerifMode        bool   `mapstructure:"verif_mode" json:"verif_mode"`
		Target           string `mapstructure:"target" json:"target"`
	} `mapstructure:"driver" json:"driver"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath(".")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // env vars named like a config key override it; no prefix is set

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ARCHETYPEIRC_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ARCHETYPEIRC_ENV", ""))
}
