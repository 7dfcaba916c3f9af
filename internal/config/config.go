// Package config handles configuration loading for StockPulse.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCKPULSE_ENGINE_URL.
const EnvPrefix = "STOCKPULSE"

// Config represents the complete application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"  yaml:"engine"  json:"engine"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"     json:"api"`
	UI      UIConfig      `mapstructure:"ui"      yaml:"ui"      json:"ui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// EngineConfig points at the remote analysis engine.
type EngineConfig struct {
	URL        string `mapstructure:"url"         yaml:"url"         json:"url"         validate:"required,http_url"` // full POST endpoint
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec" validate:"gt=0"`              // per-request bound
}

// APIConfig holds the web interface server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"         validate:"min=1,max=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// UIConfig holds settings shared by the web and terminal pages.
type UIConfig struct {
	ScrollDelayMS int      `mapstructure:"scroll_delay_ms" yaml:"scroll_delay_ms" json:"scroll_delay_ms" validate:"gte=0"`
	Presets       []Preset `mapstructure:"presets"         yaml:"presets"         json:"presets"         validate:"dive"`
}

// Preset is a named case-study shortcut.
type Preset struct {
	Name        string `mapstructure:"name"        yaml:"name"        json:"name"        validate:"required"`
	Ticker      string `mapstructure:"ticker"      yaml:"ticker"      json:"ticker"      validate:"required"`
	Description string `mapstructure:"description" yaml:"description" json:"description"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
	File   string `mapstructure:"file"   yaml:"file"   json:"file"`   // optional; the TUI always logs to a file
}

// EngineTimeout returns the per-request bound for analysis calls.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSec) * time.Second
}

// ScrollDelay returns the settle delay before results are scrolled into view.
func (c *Config) ScrollDelay() time.Duration {
	return time.Duration(c.UI.ScrollDelayMS) * time.Millisecond
}

// ListenAddr returns host:port for the web interface.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

// Validate checks values that would otherwise fail late at request time.
// Errors name the offending key as it appears in the config file.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: failed %q check (got %v)", key, fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockpulse/config.yaml (home directory)
//  3. /etc/stockpulse/config.yaml (system)
//
// A .env file in the working directory is applied first when present.
// Environment variables override config file values.
// Format: STOCKPULSE_<SECTION>_<KEY>, e.g., STOCKPULSE_ENGINE_URL
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockpulse"))
	v.AddConfigPath("/etc/stockpulse")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv applies KEY=VALUE pairs from path without overriding variables
// already set in the process environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.url", DefaultEngineURL)
	v.SetDefault("engine.timeout_sec", 90)

	// Web interface defaults; the engine itself usually occupies :8080
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 3000)
	v.SetDefault("api.cors_origins", []string{"*"})

	// UI defaults
	v.SetDefault("ui.scroll_delay_ms", 200)
	v.SetDefault("ui.presets", []map[string]string{
		{"name": "Reliance Industries", "ticker": "RELIANCE.NS", "description": "High-cap volatility & neural momentum."},
		{"name": "TCS", "ticker": "TCS.NS", "description": "Blue-chip stability & relative valuation."},
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// DefaultEngineURL is the analysis endpoint of a locally running engine.
const DefaultEngineURL = "http://127.0.0.1:8080/analyze"

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
