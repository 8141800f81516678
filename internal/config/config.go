// Package config loads rubyscope's project configuration from a
// .rubyscope.yaml file at the project root. Every field has a default so
// a project with no config file works out of the box.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the complete rubyscope configuration.
type Config struct {
	// Exclude lists path prefixes skipped during file discovery,
	// relative to the project root.
	Exclude []string `json:"exclude" mapstructure:"exclude"`

	// Parallelism is the extraction worker count. Zero means one worker
	// per CPU.
	Parallelism int `json:"parallelism" mapstructure:"parallelism"`

	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Snapshot SnapshotConfig `json:"snapshot" mapstructure:"snapshot"`
}

// LoggingConfig controls the CLI's logger.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"` // "text" or "json"
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
}

// SnapshotConfig controls the sqlite export.
type SnapshotConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Exclude:     []string{"vendor", "tmp", "log", "node_modules"},
		Parallelism: 0,
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Snapshot: SnapshotConfig{
			Path: ".rubyscope/index.db",
		},
	}
}

// Load reads .rubyscope.yaml from root. A missing file yields Default.
func Load(root string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("parallelism", def.Parallelism)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("snapshot.path", def.Snapshot.Path)

	v.SetConfigName(".rubyscope")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", filepath.Join(root, ".rubyscope.yaml"), err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot honor.
func (c *Config) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("config: parallelism must be >= 0, got %d", c.Parallelism)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
