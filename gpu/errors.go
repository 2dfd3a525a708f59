package gpu

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrSwapchainOutOfDate means the swapchain no longer matches the surface and
	// has to be recreated before drawing can continue.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")

	// ErrNoSuitableDevice is returned when no physical device can draw to the
	// window surface.
	ErrNoSuitableDevice = errors.New("failed to find suitable physical devices")

	// ErrNoMemoryType is returned when no memory type matches a resource.
	ErrNoMemoryType = errors.New("failed to find suitable memory type")
)

// ResultError is a vk.Result other than success.
type ResultError struct {
	Result vk.Result
}

func (e ResultError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("vulkan error: %s (%d)", err, e.Result)
	}
	return fmt.Sprintf("vulkan result %d", e.Result)
}

// VkError converts res into an error. It returns nil for vk.Success.
func VkError(res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	return errors.WithStack(ResultError{Result: res})
}

// enumerateError checks the result of filling a slice with a vkGet*s call.
// VK_INCOMPLETE only means the list grew after it was counted; the entries
// written are still valid.
func enumerateError(res vk.Result) error {
	if res == vk.Incomplete {
		return nil
	}
	return VkError(res)
}

// classifyAcquire decides what to do with the result of vkAcquireNextImageKHR.
// A suboptimal swapchain can still be drawn to, so only OUT_OF_DATE asks for a
// recreation.
func classifyAcquire(res vk.Result) error {
	switch res {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorOutOfDate:
		return ErrSwapchainOutOfDate
	default:
		return errors.Wrap(VkError(res), "failed to acquire swap chain image")
	}
}

// classifyPresent decides what to do with the result of vkQueuePresentKHR. The
// image was already queued, so a suboptimal swapchain or a resized window are
// handled by recreating it for the next frame.
func classifyPresent(res vk.Result, resized bool) error {
	switch {
	case res == vk.ErrorOutOfDate || res == vk.Suboptimal || resized:
		return ErrSwapchainOutOfDate
	case res == vk.Success:
		return nil
	default:
		return errors.Wrap(VkError(res), "failed to present swap chain image")
	}
}
