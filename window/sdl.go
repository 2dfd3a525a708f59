package window

import (
	"unsafe"

	"hello-vulkan/config"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

type sdlWindow struct {
	resizeFlag

	window *sdl.Window
	quit   bool
}

func newSDL(cfg config.Window) (*sdlWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl.Init")
	}

	win, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_VULKAN,
	)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "creating window")
	}

	return &sdlWindow{window: win}, nil
}

func (w *sdlWindow) FramebufferSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *sdlWindow) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *sdlWindow) InstanceProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (w *sdlWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfacePtr, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "cannot create surface within SDL window")
	}

	return vk.SurfaceFromPointer(uintptr(surfacePtr)), nil
}

func (w *sdlWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

func (w *sdlWindow) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *sdlWindow) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.quit = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			w.quit = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			w.mark()
		case sdl.WINDOWEVENT_CLOSE:
			w.quit = true
		}
	}
}

func (w *sdlWindow) ShouldClose() bool {
	return w.quit
}

// Minimized asks SDL for the current window state. Windows can come back from
// being minimized with MAXIMIZED instead of RESTORED, so no state is kept here.
func (w *sdlWindow) Minimized() bool {
	return minimizedFlags(w.window.GetFlags())
}

func minimizedFlags(flags uint32) bool {
	return flags&sdl.WINDOW_MINIMIZED != 0
}

func (w *sdlWindow) Destroy() {
	w.window.Destroy()
	sdl.Quit()
}
