// Package config loads CLI settings from flags, environment and an optional config file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aretw0/quicknote/internal/platform"
)

const (
	envPrefix            = "QUICKNOTE"
	defaultAdapter       = platform.AdapterFS
	defaultLogLevel      = "info"
	defaultAutosaveDelay = 2 * time.Second
)

// Config keys.
const (
	KeyDataDir       = "data.dir"
	KeyAdapter       = "storage.adapter"
	KeyReadOnly      = "storage.read_only"
	KeyDevSafety     = "storage.dev_safety"
	KeyAutosaveDelay = "autosave.delay"
	KeyLogLevel      = "log.level"
)

// AppConfig captures runtime configuration for the CLI.
type AppConfig struct {
	// DataDir is empty when the CLI should discover it with FindRoot.
	DataDir       string
	Adapter       string
	ReadOnly      bool
	DevSafety     bool
	AutosaveDelay time.Duration
	LogLevel      slog.Level
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(platform.DefaultDir)

	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyAdapter, defaultAdapter)
	v.SetDefault(KeyReadOnly, false)
	v.SetDefault(KeyDevSafety, true)
	v.SetDefault(KeyAutosaveDelay, defaultAutosaveDelay)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		DataDir:       strings.TrimSpace(v.GetString(KeyDataDir)),
		Adapter:       strings.ToLower(strings.TrimSpace(v.GetString(KeyAdapter))),
		ReadOnly:      v.GetBool(KeyReadOnly),
		DevSafety:     v.GetBool(KeyDevSafety),
		AutosaveDelay: v.GetDuration(KeyAutosaveDelay),
	}

	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return AppConfig{}, err
	}
	cfg.LogLevel = level

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	switch c.Adapter {
	case platform.AdapterFS, platform.AdapterSQLite, platform.AdapterMemory:
	default:
		return fmt.Errorf("%s: unknown adapter %q", KeyAdapter, c.Adapter)
	}
	if c.AutosaveDelay < 0 {
		return fmt.Errorf("%s must not be negative", KeyAutosaveDelay)
	}
	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	return level, nil
}
