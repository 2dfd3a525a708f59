package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Vulkan.MaxFramesInFlight)
	assert.Equal(t, BackendGLFW, cfg.Window.Backend)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, cfg.Render.ClearColor)
	assert.Empty(t, cfg.Render.ShaderDir, "the embedded shaders are used by default")
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
title = "triangle"
width = 800
height = 600
backend = "sdl2"

[vulkan]
validation = true
present_mode = "fifo"
max_frames_in_flight = 3

[render]
shader_dir = "build/shaders"
clear_color = [0.1, 0.2, 0.3, 1.0]
fps_interval = "250ms"

[log]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, "triangle", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, BackendSDL2, cfg.Window.Backend)
	assert.True(t, cfg.Vulkan.Validation)
	assert.Equal(t, PresentModeFIFO, cfg.Vulkan.PresentMode)
	assert.Equal(t, 3, cfg.Vulkan.MaxFramesInFlight)
	assert.Equal(t, "build/shaders", cfg.Render.ShaderDir)
	assert.InDelta(t, 0.2, cfg.Render.ClearColor[1], 1e-6)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Render.FPSInterval)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[window]\nwidth = 640\n"))
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
	assert.Equal(t, PresentModeMailbox, cfg.Vulkan.PresentMode)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[window]\nwidht = 640\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("[render]\nfps_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, ErrInvalid},
		{"negative height", func(c *Config) { c.Window.Height = -1 }, ErrInvalid},
		{"backend", func(c *Config) { c.Window.Backend = "wayland" }, ErrUnknownBackend},
		{"present mode", func(c *Config) { c.Vulkan.PresentMode = "vsync" }, ErrInvalid},
		{"no frames", func(c *Config) { c.Vulkan.MaxFramesInFlight = 0 }, ErrInvalid},
		{"too many frames", func(c *Config) { c.Vulkan.MaxFramesInFlight = MaxFramesInFlightLimit + 1 }, ErrInvalid},
		{"fps interval", func(c *Config) { c.Render.FPSInterval = -1 }, ErrInvalid},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vulkan]\nmax_frames_in_flight = 1\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Vulkan.MaxFramesInFlight)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, Duration(90*time.Second), d)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}

func TestDurationConversion(t *testing.T) {
	assert.Equal(t, 5*time.Second, Default().Render.FPSInterval.Duration())
}

func TestEnableDebug(t *testing.T) {
	cfg := Default()
	cfg.EnableDebug()

	assert.True(t, cfg.Vulkan.Validation)
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"

	var out bytes.Buffer
	logger, err := cfg.NewLogger(&out)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "frames", 2)
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=shown frames=2")

	cfg.Log.Level = "loud"
	_, err = cfg.NewLogger(&out)
	assert.True(t, errors.Is(err, ErrInvalid))
}
