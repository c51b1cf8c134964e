// Package config loads the annokit CLI configuration from annokit.yml with
// environment overrides and sane defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/annokit/annokit/mapping"
)

// Config represents the annokit configuration
type Config struct {
	Definitions string       `mapstructure:"definitions"`
	Excluded    []string     `mapstructure:"excluded_namespaces"`
	Output      OutputConfig `mapstructure:"output"`
	Server      ServerConfig `mapstructure:"server"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Format  string `mapstructure:"format"` // "table" or "json"
	NoColor bool   `mapstructure:"no_color"`
}

// ServerConfig represents inspection server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Load loads the configuration from annokit.yml or annokit.yaml in the
// working directory. A missing file yields the defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("definitions", "annotations.json")
	v.SetDefault("excluded_namespaces", []string{})
	v.SetDefault("output.format", "table")
	v.SetDefault("output.no_color", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8420)

	v.SetConfigName("annokit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ANNOKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file - defaults apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	switch config.Output.Format {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output format %q (expected \"table\" or \"json\")", config.Output.Format)
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	return nil
}

// Address returns the inspection server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Filter builds the traversal filter for the configured excluded namespaces.
// The reserved annokit namespace is always excluded.
func (c *Config) Filter() mapping.Filter {
	if len(c.Excluded) == 0 {
		return mapping.FilterReserved
	}
	prefixes := append([]string{"annokit."}, c.Excluded...)
	name := "excluded:" + strings.Join(c.Excluded, ",")
	return mapping.NewFilter(name, func(typeName string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(typeName, prefix) {
				return true
			}
		}
		return false
	})
}
