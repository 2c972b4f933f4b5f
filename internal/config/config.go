// Package config loads joinery settings from defaults, an optional YAML
// file and JOINERY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/joinery/internal/coord"
)

// EnvPrefix prefixes every environment override, e.g. JOINERY_LOGGING_LEVEL
// for logging.level.
const EnvPrefix = "JOINERY"

// Config is the effective configuration.
type Config struct {
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Scenarios   ScenariosConfig   `mapstructure:"scenarios"`
}

// CoordinatorConfig controls coordinators created by the CLI.
type CoordinatorConfig struct {
	// Debounce is the minimum time between two fires of a group.
	// Accepts Go durations ("500ms"). Zero disables debouncing.
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

// JournalConfig controls the SQLite journal.
type JournalConfig struct {
	// Path is the database file. Empty means no journal.
	Path string `mapstructure:"path"`
}

// ScenariosConfig controls scenario discovery.
type ScenariosConfig struct {
	// Dir is searched by "joinery test" when no directory is given.
	Dir string `mapstructure:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{Debounce: coord.DefaultDebounce},
		Logging:     LoggingConfig{Level: "warn", Format: "text"},
		Scenarios:   ScenariosConfig{Dir: "scenarios"},
	}
}

// SetDefaults registers every default on v so that they show up in
// AllSettings and can be overridden by the environment.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("coordinator.debounce", defaults.Coordinator.Debounce)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("journal.path", defaults.Journal.Path)
	v.SetDefault("scenarios.dir", defaults.Scenarios.Dir)
}

// New returns a viper instance with defaults and environment binding set
// up. When file is non-empty it must exist; otherwise config.yaml is looked
// up in ConfigDir() and the working directory, and a missing file is fine.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// JOINERY_COORDINATOR_DEBOUNCE for coordinator.debounce
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "joinery")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".joinery"
	}
	return filepath.Join(home, ".config", "joinery")
}
