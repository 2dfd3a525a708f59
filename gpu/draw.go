package gpu

import (
	"hello-vulkan/window"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// frameSteps are the device operations behind a single frame. Program is the
// real implementation.
type frameSteps interface {
	// waitForFrame blocks until the GPU is done with the frame slot.
	waitForFrame(frame uint32) error
	acquireImage(frame uint32) (imageIndex uint32, res vk.Result)
	// resetFrame unsignals the in flight fence of the frame slot.
	resetFrame(frame uint32) error
	recordFrame(frame, imageIndex uint32) error
	submitFrame(frame, imageIndex uint32) error
	presentFrame(imageIndex uint32) vk.Result
	windowResized() bool
	recreateSwapchain() error
}

// drawFrame runs one frame through steps and reports whether an image was
// presented. The ring only advances after a submit: when acquiring finds the
// swapchain out of date the fence is left signalled and the same slot is
// used again on the next call.
func drawFrame(steps frameSteps, frames *frameRing) (bool, error) {
	frame := frames.Current()

	if err := steps.waitForFrame(frame); err != nil {
		return false, err
	}

	imageIndex, res := steps.acquireImage(frame)
	if err := classifyAcquire(res); errors.Is(err, ErrSwapchainOutOfDate) {
		return false, steps.recreateSwapchain()
	} else if err != nil {
		return false, err
	}

	// Only reset the fence if we are submitting work.
	if err := steps.resetFrame(frame); err != nil {
		return false, err
	}

	if err := steps.recordFrame(frame, imageIndex); err != nil {
		return false, err
	}

	if err := steps.submitFrame(frame, imageIndex); err != nil {
		return false, err
	}

	res = steps.presentFrame(imageIndex)
	if err := classifyPresent(res, steps.windowResized()); errors.Is(err, ErrSwapchainOutOfDate) {
		if err := steps.recreateSwapchain(); err != nil {
			return false, err
		}
	} else if err != nil {
		return false, err
	}

	frames.Advance()
	return true, nil
}

// waitForFramebuffer blocks on window events while the framebuffer is 0x0.
// It returns false when the window was closed in the meantime.
func waitForFramebuffer(win window.Window) bool {
	width, height := win.FramebufferSize()
	for width == 0 || height == 0 {
		if win.ShouldClose() {
			return false
		}
		win.WaitEvents()
		width, height = win.FramebufferSize()
	}
	return true
}
