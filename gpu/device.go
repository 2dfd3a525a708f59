package gpu

import (
	"log/slog"

	"hello-vulkan/config"
	"hello-vulkan/window"
)

// Device is a Resource without anything to draw. It brings up the instance,
// the logical device and the swapchain for programs which only need those.
type Device struct {
	resource *Resource
}

// Init creates the Vulkan objects for win. A failed Init releases whatever it
// managed to create.
func (d *Device) Init(win window.Window, cfg config.Config, logger *slog.Logger) error {
	resource := NewResource(win, cfg.Vulkan, cfg.Window.Title, logger)
	if err := resource.Init(); err != nil {
		resource.Destroy()
		return err
	}

	d.resource = resource
	return nil
}

// Resource returns the objects created by Init, or nil before Init.
func (d *Device) Resource() *Resource {
	return d.resource
}

// Uninit releases everything created by Init. It does nothing when Init has
// not succeeded.
func (d *Device) Uninit() {
	if d.resource == nil {
		return
	}

	if err := d.resource.WaitIdle(); err != nil {
		d.resource.log.Error("waiting for the device", "error", err)
	}
	d.resource.Destroy()
	d.resource = nil
}
