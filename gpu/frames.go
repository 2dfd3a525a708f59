package gpu

import (
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// frameRing tracks which of the frames in flight is being recorded.
type frameRing struct {
	current uint32
	size    uint32
}

func newFrameRing(size int) frameRing {
	if size < 1 {
		size = 1
	}
	return frameRing{size: uint32(size)}
}

// Current returns the slot of the frame being recorded.
func (r frameRing) Current() uint32 {
	return r.current
}

// Advance moves to the next slot, wrapping around after the last one.
func (r *frameRing) Advance() {
	r.current = (r.current + 1) % r.size
}

// Len returns the number of frames in flight.
func (r frameRing) Len() int {
	return int(r.size)
}

// syncObjects are the semaphores and fences of every frame in flight, plus
// one render finished semaphore per swapchain image. Presentation may still be
// waiting on a render finished semaphore when its frame slot comes around
// again, so those follow the image index instead of the frame slot.
type syncObjects struct {
	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []vk.Fence
}

func createSyncObjects(device vk.Device, frames, images int) (syncObjects, error) {
	var sync syncObjects

	// Fences start signalled so that the first wait of every frame returns.
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := 0; i < frames; i++ {
		imageAvailable, err := createSemaphore(device)
		if err != nil {
			return sync, errors.Wrapf(err, "failed to create image available semaphore %d", i)
		}
		sync.imageAvailable = append(sync.imageAvailable, imageAvailable)

		var fence vk.Fence
		if err := VkError(
			vk.CreateFence(device, &fenceInfo, nil, &fence),
		); err != nil {
			return sync, errors.Wrapf(err, "failed to create in flight fence %d", i)
		}
		sync.inFlight = append(sync.inFlight, fence)
	}

	return sync, sync.createRenderFinished(device, images)
}

// createRenderFinished creates a render finished semaphore for each of the
// swapchain images. It replaces any semaphores created for a previous
// swapchain, so the device must be idle.
func (s *syncObjects) createRenderFinished(device vk.Device, images int) error {
	s.destroyRenderFinished(device)

	for i := 0; i < images; i++ {
		semaphore, err := createSemaphore(device)
		if err != nil {
			return errors.Wrapf(err, "failed to create render finished semaphore %d", i)
		}
		s.renderFinished = append(s.renderFinished, semaphore)
	}

	return nil
}

func (s *syncObjects) destroyRenderFinished(device vk.Device) {
	for _, semaphore := range s.renderFinished {
		vk.DestroySemaphore(device, semaphore, nil)
	}
	s.renderFinished = nil
}

func (s *syncObjects) destroy(device vk.Device) {
	for _, semaphore := range s.imageAvailable {
		vk.DestroySemaphore(device, semaphore, nil)
	}
	s.destroyRenderFinished(device)
	for _, fence := range s.inFlight {
		vk.DestroyFence(device, fence, nil)
	}
	*s = syncObjects{}
}

func createSemaphore(device vk.Device) (vk.Semaphore, error) {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	return semaphore, VkError(vk.CreateSemaphore(device, &semaphoreInfo, nil, &semaphore))
}

// frameStats counts presented frames and reports the rate once per interval.
// Times are monotonic durations as returned by hrtime.Now.
type frameStats struct {
	interval time.Duration
	start    time.Duration
	frames   int
}

func newFrameStats(interval, now time.Duration) frameStats {
	return frameStats{interval: interval, start: now}
}

// tick records one frame. When a whole interval has passed it returns the
// frames per second over that interval and starts a new one.
func (s *frameStats) tick(now time.Duration) (fps float64, report bool) {
	if s.interval <= 0 {
		return 0, false
	}

	s.frames++

	elapsed := now - s.start
	if elapsed < s.interval {
		return 0, false
	}

	fps = float64(s.frames) / elapsed.Seconds()
	s.start = now
	s.frames = 0
	return fps, true
}
