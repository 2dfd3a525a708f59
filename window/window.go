// Package window opens the native window the triangle is drawn into. It hides
// whether GLFW or SDL2 is used and exposes only what Vulkan needs: the instance
// extensions, the loader entry point, a surface and the event pump.
//
// All functions must be called from the main OS thread.
package window

import (
	"unsafe"

	"hello-vulkan/config"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Window is a native window which can present Vulkan images.
type Window interface {
	// FramebufferSize returns the drawable size in pixels. It may differ from the
	// window size on high-DPI displays.
	FramebufferSize() (width, height int)

	// RequiredInstanceExtensions lists the instance extensions needed to create a
	// surface for this window.
	RequiredInstanceExtensions() []string

	// InstanceProcAddr returns the vkGetInstanceProcAddr of the loader used by the
	// windowing library.
	InstanceProcAddr() unsafe.Pointer

	// CreateSurface creates a presentable surface for instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// PollEvents processes pending events without blocking.
	PollEvents()

	// WaitEvents blocks until at least one event arrives and processes it.
	WaitEvents()

	// ShouldClose reports whether the user asked for the window to be closed.
	ShouldClose() bool

	// Minimized reports whether the window is currently iconified.
	Minimized() bool

	// TakeResized returns true once after every change of the framebuffer size.
	TakeResized() bool

	// Destroy closes the window and shuts the windowing library down.
	Destroy()
}

// New opens a window with the backend chosen in cfg.
func New(cfg config.Window) (Window, error) {
	var (
		win Window
		err error
	)

	switch cfg.Backend {
	case config.BackendGLFW:
		win, err = newGLFW(cfg)
	case config.BackendSDL2:
		win, err = newSDL(cfg)
	default:
		return nil, errors.Wrapf(config.ErrUnknownBackend, "%q", cfg.Backend)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "%s window", cfg.Backend)
	}
	return win, nil
}

// resizeFlag remembers that the framebuffer changed size until someone asks.
type resizeFlag struct {
	resized bool
}

func (r *resizeFlag) mark() {
	r.resized = true
}

// TakeResized implements Window.
func (r *resizeFlag) TakeResized() bool {
	resized := r.resized
	r.resized = false
	return resized
}
