package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"hello-vulkan/config"
	"hello-vulkan/gpu"
	"hello-vulkan/window"

	"github.com/cockroachdb/errors"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.StringVar(&args.config, "config", "", "Path to a TOML configuration file")
	flag.BoolVar(&args.debug, "debug", false,
		"Enable Vulkan validation layers and debug logging")
	flag.StringVar(&args.backend, "backend", "", "Window backend: glfw or sdl2")
	flag.StringVar(&args.shaders, "shaders", "",
		"Directory with the compiled vert.spv and frag.spv instead of the built-in ones")
}

var args struct {
	config  string
	debug   bool
	backend string
	shaders string
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("configuration", "error", err)
		os.Exit(2)
	}

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		slog.Error("configuration", "error", err)
		os.Exit(2)
	}

	app := &App{cfg: cfg, log: logger}
	if err := app.Run(); err != nil {
		logger.Error("app run error", "error", err)
		logger.Debug("error details", "details", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the command line flags
// on top of it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(args.config)
	if err != nil {
		return cfg, err
	}

	if args.debug {
		cfg.EnableDebug()
	}
	if args.backend != "" {
		cfg.Window.Backend = args.backend
	}
	if args.shaders != "" {
		cfg.Render.ShaderDir = args.shaders
	}

	return cfg, cfg.Validate()
}

// App opens the window and drives the quad program until the window is closed.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// Run runs the program.
func (a *App) Run() error {
	win, err := window.New(a.cfg.Window)
	if err != nil {
		return errors.Wrap(err, "initWindow")
	}
	defer win.Destroy()

	program := gpu.NewProgram(win, a.cfg, a.log)
	defer program.Uninit()

	if err := program.Init(); err != nil {
		return errors.Wrap(err, "initVulkan")
	}

	if err := a.mainLoop(win, program); err != nil {
		return errors.Wrap(err, "mainLoop")
	}

	return nil
}

func (a *App) mainLoop(win window.Window, program *gpu.Program) error {
	a.log.Info("main loop", "backend", a.cfg.Window.Backend)

	for !win.ShouldClose() {
		win.PollEvents()

		if win.Minimized() {
			win.WaitEvents()
			continue
		}

		if err := program.DrawFrame(); err != nil {
			return errors.Wrap(err, "error drawing a frame")
		}
	}

	return program.WaitIdle()
}
