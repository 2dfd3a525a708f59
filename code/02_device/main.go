package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	"hello-vulkan/config"
	"hello-vulkan/gpu"
	"hello-vulkan/window"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.StringVar(&args.config, "config", "", "Path to a TOML configuration file")
	flag.BoolVar(&args.debug, "debug", false,
		"Enable Vulkan validation layers and debug logging")
}

var args struct {
	config string
	debug  bool
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

	if err := run(cfg, logger); err != nil {
		logger.Error("run", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(args.config)
	if err != nil {
		return cfg, err
	}

	cfg.Window.Title = "hello vulkan: device"
	if args.debug {
		cfg.EnableDebug()
	}

	return cfg, cfg.Validate()
}

func run(cfg config.Config, logger *slog.Logger) error {
	win, err := window.New(cfg.Window)
	if err != nil {
		return errors.Wrap(err, "initWindow")
	}
	defer win.Destroy()

	var device gpu.Device
	if err := device.Init(win, cfg, logger); err != nil {
		return errors.Wrap(err, "initVulkan")
	}
	defer device.Uninit()

	resource := device.Resource()

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(resource.PhysicalDevice, &properties)
	properties.Deref()

	logger.Info("device ready",
		"gpu", vk.ToString(properties.DeviceName[:]),
		"graphics_family", resource.Families.Graphics.Get(),
		"present_family", resource.Families.Present.Get(),
		"swapchain_images", len(resource.Swapchain.Images),
		"width", resource.Swapchain.Extent.Width,
		"height", resource.Swapchain.Extent.Height,
	)

	for !win.ShouldClose() {
		win.WaitEvents()
	}

	return nil
}
