package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	Import   ImportConfig
	Jobs     JobsConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// HTTPConfig holds server settings.
type HTTPConfig struct {
	Addr string
}

// ImportConfig holds the statement inbox directories.
type ImportConfig struct {
	Inbox    string
	Complete string
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	Workers  int
	Buffer   int
	PageSize int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from file and env. Env var overrides use prefix MENTHA_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "mentha", "mentha.db"))
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("import.inbox", "imports/inbox")
	v.SetDefault("import.complete", "imports/complete")
	v.SetDefault("jobs.workers", 1)
	v.SetDefault("jobs.buffer", 16)
	v.SetDefault("jobs.page_size", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MENTHA_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "mentha"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MENTHA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
