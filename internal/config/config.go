package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces the environment variables, e.g. FRICTION_PATHS_INPUT_DIR.
const envPrefix = "FRICTION"

// Config is the full pipeline configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Boundaries BoundariesConfig `yaml:"boundaries" envconfig:"BOUNDARIES"`
	Schemes    SchemesConfig    `yaml:"schemes" envconfig:"SCHEMES"`
	Simulation SimulationConfig `yaml:"simulation" envconfig:"SIMULATION"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	// Output is "console", "file" or "both".
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/friction.log"`
}

// BoundariesConfig controls how the boundary dataset is read.
type BoundariesConfig struct {
	// NameProperty is the GeoJSON property carrying the municipality name.
	NameProperty string `yaml:"name_property" envconfig:"NAME_PROPERTY" default:"NAME_3"`
	// Excluded lists boundary features with no statistical counterpart.
	Excluded []string `yaml:"excluded" envconfig:"EXCLUDED" default:"Athos"`
}

// SchemesConfig selects the classification views to apply.
type SchemesConfig struct {
	Enabled []string `yaml:"enabled" envconfig:"ENABLED" default:"policy3,policy4,eu6" validate:"min=1,dive,oneof=policy3 policy4 eu6"`
}

// SimulationConfig parameterizes the unlock scenario.
type SimulationConfig struct {
	// UnlockFraction is the share of locked stock returned to the market.
	UnlockFraction float64 `yaml:"unlock_fraction" envconfig:"UNLOCK_FRACTION" default:"0.20" validate:"gte=0,lte=1"`
	// Alpha is the price elasticity exponent.
	Alpha  float64 `yaml:"alpha" envconfig:"ALPHA" default:"1.4" validate:"gt=0"`
	Demand float64 `yaml:"demand" envconfig:"DEMAND" default:"1" validate:"gt=0"`
	Supply float64 `yaml:"supply" envconfig:"SUPPLY" default:"1" validate:"gt=0"`
	// TopN bounds the console ranking tables.
	TopN int `yaml:"top_n" envconfig:"TOP_N" default:"10" validate:"gt=0"`
}

// Load reads configuration from the environment (with struct-tag
// defaults), then overlays the optional YAML file named by
// FRICTION_CONFIG (default config.yaml). File values win.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	path := os.Getenv(envPrefix + "_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks all field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
