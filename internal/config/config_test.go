package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quicknote/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "fs", cfg.Adapter)
	assert.False(t, cfg.ReadOnly)
	assert.True(t, cfg.DevSafety)
	assert.Equal(t, 2*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("QUICKNOTE_DATA_DIR", "/tmp/notes")
	t.Setenv("QUICKNOTE_STORAGE_ADAPTER", "SQLite")
	t.Setenv("QUICKNOTE_AUTOSAVE_DELAY", "500ms")
	t.Setenv("QUICKNOTE_LOG_LEVEL", "debug")

	cfg, err := config.Load(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/notes", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Adapter)
	assert.Equal(t, 500*time.Millisecond, cfg.AutosaveDelay)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	v := config.NewViper()
	v.Set(config.KeyAdapter, "s3")
	_, err := config.Load(v)
	assert.ErrorContains(t, err, "unknown adapter")

	v = config.NewViper()
	v.Set(config.KeyLogLevel, "loud")
	_, err = config.Load(v)
	assert.Error(t, err)

	v = config.NewViper()
	v.Set(config.KeyAutosaveDelay, "-1s")
	_, err = config.Load(v)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := config.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}
