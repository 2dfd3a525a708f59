// Package config holds the settings of the triangle programs. Settings come from
// built-in defaults, optionally overridden by a TOML file and then by command line
// flags.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Window backends.
const (
	BackendGLFW = "glfw"
	BackendSDL2 = "sdl2"
)

// Present mode names accepted in the configuration.
const (
	PresentModeMailbox     = "mailbox"
	PresentModeImmediate   = "immediate"
	PresentModeFIFO        = "fifo"
	PresentModeFIFORelaxed = "fifo_relaxed"
)

// MaxFramesInFlightLimit is the largest accepted vulkan.max_frames_in_flight.
const MaxFramesInFlightLimit = 8

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid configuration")

	// ErrUnknownBackend is returned for a window backend other than glfw or sdl2.
	ErrUnknownBackend = errors.New("unknown window backend")
)

// Config is the complete program configuration.
type Config struct {
	Window Window `toml:"window"`
	Vulkan Vulkan `toml:"vulkan"`
	Render Render `toml:"render"`
	Log    Log    `toml:"log"`
}

// Window describes the native window.
type Window struct {
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Backend string `toml:"backend"`
}

// Vulkan holds the instance, device and swapchain settings.
type Vulkan struct {
	// Validation turns on the validation layers and the debug report callback.
	Validation       bool     `toml:"validation"`
	ValidationLayers []string `toml:"validation_layers"`

	// PresentMode is the preferred present mode. FIFO is used when the preferred
	// one is not supported by the surface.
	PresentMode string `toml:"present_mode"`

	MaxFramesInFlight int `toml:"max_frames_in_flight"`
}

// Render holds per-frame settings.
type Render struct {
	// ShaderDir is a directory with vert.spv and frag.spv. When empty the
	// shaders built into the binary are used.
	ShaderDir  string     `toml:"shader_dir"`
	ClearColor [4]float32 `toml:"clear_color"`

	// FPSInterval is how often frame statistics are logged. Zero disables them.
	FPSInterval Duration `toml:"fps_interval"`
}

// Log configures the program logger.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "5s" in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "parsing duration %q", text)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Window: Window{
			Title:   "hello vulkan",
			Width:   1024,
			Height:  768,
			Backend: BackendGLFW,
		},
		Vulkan: Vulkan{
			ValidationLayers:  []string{"VK_LAYER_KHRONOS_validation"},
			PresentMode:       PresentModeMailbox,
			MaxFramesInFlight: 2,
		},
		Render: Render{
			ClearColor:  [4]float32{0, 0, 0, 1},
			FPSInterval: Duration(5 * time.Second),
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load returns the defaults overridden by the TOML file at path. An empty path
// returns the validated defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config file")
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config file %s", path)
	}

	return cfg, nil
}

// Parse decodes TOML on top of the defaults and validates the result. Unknown
// keys are rejected so typos do not go unnoticed.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return Config{}, errors.Wrapf(ErrInvalid, "unknown keys:\n%s", strictErr.String())
		}
		return Config{}, errors.Wrap(err, "decoding TOML")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the values are usable.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Wrapf(ErrInvalid, "window size %dx%d", c.Window.Width, c.Window.Height)
	}

	switch c.Window.Backend {
	case BackendGLFW, BackendSDL2:
	default:
		return errors.Wrapf(ErrUnknownBackend, "%q", c.Window.Backend)
	}

	switch c.Vulkan.PresentMode {
	case PresentModeMailbox, PresentModeImmediate, PresentModeFIFO, PresentModeFIFORelaxed:
	default:
		return errors.Wrapf(ErrInvalid, "present mode %q", c.Vulkan.PresentMode)
	}

	if n := c.Vulkan.MaxFramesInFlight; n < 1 || n > MaxFramesInFlightLimit {
		return errors.Wrapf(ErrInvalid, "max_frames_in_flight %d not in [1, %d]",
			n, MaxFramesInFlightLimit)
	}

	if c.Render.FPSInterval < 0 {
		return errors.Wrap(ErrInvalid, "negative fps_interval")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return nil
}

// EnableDebug turns on the validation layers and debug logging.
func (c *Config) EnableDebug() {
	c.Vulkan.Validation = true
	c.Log.Level = "debug"
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}

// LogLevel converts Log.Level into a slog level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(ErrInvalid, "log level %q", c.Log.Level)
	}
	return level, nil
}
