package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	"hello-vulkan/config"
	"hello-vulkan/window"

	"github.com/cockroachdb/errors"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.StringVar(&args.backend, "backend", config.BackendGLFW, "Window backend: glfw or sdl2")
}

var args struct {
	backend string
}

func main() {
	flag.Parse()

	cfg := config.Default()
	cfg.Window.Title = "hello vulkan: window"
	cfg.Window.Backend = args.backend

	if err := run(cfg.Window); err != nil {
		slog.Error("run", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Window) error {
	win, err := window.New(cfg)
	if err != nil {
		return errors.Wrap(err, "initWindow")
	}
	defer win.Destroy()

	slog.Info("main loop", "backend", cfg.Backend)

	for !win.ShouldClose() {
		win.WaitEvents()

		if win.TakeResized() {
			width, height := win.FramebufferSize()
			slog.Info("resized", "width", width, "height", height)
		}
	}

	return nil
}
