package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigUsesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o600))

	args.config, args.debug = path, false
	t.Cleanup(func() { args.config, args.debug = "", false })

	cfg, err := loadConfig()
	require.NoError(t, err)

	logger, err := cfg.NewLogger(os.Stderr)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, cfg.Vulkan.Validation)
}

func TestLoadConfigDebugFlag(t *testing.T) {
	args.config, args.debug = "", true
	t.Cleanup(func() { args.config, args.debug = "", false })

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Vulkan.Validation)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "hello vulkan: device", cfg.Window.Title)
}
