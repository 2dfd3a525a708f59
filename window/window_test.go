package window

import (
	"testing"

	"hello-vulkan/config"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.Default().Window
	cfg.Backend = "cocoa"

	w, err := New(cfg)
	assert.Nil(t, w)
	assert.True(t, errors.Is(err, config.ErrUnknownBackend), "got %v", err)
}

func TestResizeFlag(t *testing.T) {
	var r resizeFlag
	assert.False(t, r.TakeResized())

	r.mark()
	r.mark()
	assert.True(t, r.TakeResized())
	assert.False(t, r.TakeResized(), "the flag is cleared after it was taken")
}

func TestSDLMinimizedFollowsWindowFlags(t *testing.T) {
	assert.True(t, minimizedFlags(sdl.WINDOW_SHOWN|sdl.WINDOW_MINIMIZED))
	assert.False(t, minimizedFlags(sdl.WINDOW_SHOWN|sdl.WINDOW_MAXIMIZED),
		"a window restored straight to maximized is no longer minimized")
	assert.False(t, minimizedFlags(0))
}

func TestSDLWindowEvents(t *testing.T) {
	var w sdlWindow

	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED})
	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MAXIMIZED})
	assert.False(t, w.ShouldClose())
	assert.False(t, w.TakeResized())

	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_SIZE_CHANGED})
	assert.True(t, w.TakeResized())

	w.handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}})
	assert.True(t, w.ShouldClose())
}
