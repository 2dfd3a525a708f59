package gpu

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// recordedSteps logs every frame step it is asked to run.
type recordedSteps struct {
	calls []string

	imageIndex  uint32
	acquire     vk.Result
	present     vk.Result
	resized     bool
	recreateErr error
	recordErr   error
	submitErr   error
}

func (s *recordedSteps) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *recordedSteps) waitForFrame(frame uint32) error {
	s.record("wait %d", frame)
	return nil
}

func (s *recordedSteps) acquireImage(frame uint32) (uint32, vk.Result) {
	s.record("acquire %d", frame)
	return s.imageIndex, s.acquire
}

func (s *recordedSteps) resetFrame(frame uint32) error {
	s.record("reset %d", frame)
	return nil
}

func (s *recordedSteps) recordFrame(frame, imageIndex uint32) error {
	s.record("record %d %d", frame, imageIndex)
	return s.recordErr
}

func (s *recordedSteps) submitFrame(frame, imageIndex uint32) error {
	s.record("submit %d %d", frame, imageIndex)
	return s.submitErr
}

func (s *recordedSteps) presentFrame(imageIndex uint32) vk.Result {
	s.record("present %d", imageIndex)
	return s.present
}

func (s *recordedSteps) windowResized() bool {
	return s.resized
}

func (s *recordedSteps) recreateSwapchain() error {
	s.record("recreate")
	return s.recreateErr
}

func TestDrawFrameOrder(t *testing.T) {
	frames := newFrameRing(2)
	frames.Advance()
	steps := &recordedSteps{imageIndex: 2}

	presented, err := drawFrame(steps, &frames)
	require.NoError(t, err)
	assert.True(t, presented)

	assert.Equal(t, []string{
		"wait 1",
		"acquire 1",
		"reset 1",
		"record 1 2",
		"submit 1 2",
		"present 2",
	}, steps.calls)
	assert.Equal(t, uint32(0), frames.Current(), "the ring wraps after the frame")
}

func TestDrawFrameAcquireOutOfDate(t *testing.T) {
	frames := newFrameRing(2)
	steps := &recordedSteps{acquire: vk.ErrorOutOfDate}

	presented, err := drawFrame(steps, &frames)
	require.NoError(t, err)
	assert.False(t, presented)

	assert.Equal(t, []string{"wait 0", "acquire 0", "recreate"}, steps.calls,
		"the fence is not reset and nothing is submitted")
	assert.Equal(t, uint32(0), frames.Current(), "the same slot is used again")

	steps.calls = nil
	steps.acquire = vk.Success

	presented, err = drawFrame(steps, &frames)
	require.NoError(t, err)
	assert.True(t, presented)
	assert.Equal(t, "wait 0", steps.calls[0], "the signalled fence is waited on again")
	assert.Equal(t, uint32(1), frames.Current())
}

func TestDrawFrameAcquireSuboptimal(t *testing.T) {
	frames := newFrameRing(2)
	steps := &recordedSteps{acquire: vk.Suboptimal}

	presented, err := drawFrame(steps, &frames)
	require.NoError(t, err)
	assert.True(t, presented)
	assert.NotContains(t, steps.calls, "recreate")
	assert.Equal(t, uint32(1), frames.Current())
}

func TestDrawFrameAcquireFailure(t *testing.T) {
	frames := newFrameRing(2)
	steps := &recordedSteps{acquire: vk.ErrorDeviceLost}

	presented, err := drawFrame(steps, &frames)
	require.Error(t, err)
	assert.False(t, presented)

	var resErr ResultError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, vk.ErrorDeviceLost, resErr.Result)

	assert.Equal(t, []string{"wait 0", "acquire 0"}, steps.calls)
	assert.Equal(t, uint32(0), frames.Current())
}

func TestDrawFramePresentRecreates(t *testing.T) {
	tests := []struct {
		name    string
		present vk.Result
		resized bool
	}{
		{"out of date", vk.ErrorOutOfDate, false},
		{"suboptimal", vk.Suboptimal, false},
		{"resized", vk.Success, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			frames := newFrameRing(2)
			steps := &recordedSteps{present: test.present, resized: test.resized}

			presented, err := drawFrame(steps, &frames)
			require.NoError(t, err)
			assert.True(t, presented)

			assert.Equal(t, []string{
				"wait 0",
				"acquire 0",
				"reset 0",
				"record 0 0",
				"submit 0 0",
				"present 0",
				"recreate",
			}, steps.calls)
			assert.Equal(t, uint32(1), frames.Current(), "the submitted frame still advances")
		})
	}
}

func TestDrawFrameErrorsDoNotAdvance(t *testing.T) {
	tests := []struct {
		name  string
		steps *recordedSteps
	}{
		{"record", &recordedSteps{recordErr: VkError(vk.ErrorOutOfDeviceMemory)}},
		{"submit", &recordedSteps{submitErr: errors.New("submit failed")}},
		{"present", &recordedSteps{present: vk.ErrorSurfaceLost}},
		{"recreate", &recordedSteps{present: vk.Suboptimal, recreateErr: errors.New("no swapchain")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			frames := newFrameRing(2)

			presented, err := drawFrame(test.steps, &frames)
			assert.Error(t, err)
			assert.False(t, presented)
			assert.Equal(t, uint32(0), frames.Current())
		})
	}
}

// sizedWindow reports a scripted sequence of framebuffer sizes. Every
// WaitEvents call moves to the next size.
type sizedWindow struct {
	sizes      [][2]int
	closeAfter int
	waits      int
}

func (w *sizedWindow) FramebufferSize() (int, int) {
	size := w.sizes[min(w.waits, len(w.sizes)-1)]
	return size[0], size[1]
}

func (w *sizedWindow) RequiredInstanceExtensions() []string { return nil }
func (w *sizedWindow) InstanceProcAddr() unsafe.Pointer     { return nil }

func (w *sizedWindow) CreateSurface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, errors.New("no surface")
}

func (w *sizedWindow) PollEvents()       {}
func (w *sizedWindow) WaitEvents()       { w.waits++ }
func (w *sizedWindow) ShouldClose() bool { return w.closeAfter >= 0 && w.waits >= w.closeAfter }
func (w *sizedWindow) Minimized() bool   { return false }
func (w *sizedWindow) TakeResized() bool { return false }
func (w *sizedWindow) Destroy()          {}

func TestWaitForFramebuffer(t *testing.T) {
	win := &sizedWindow{sizes: [][2]int{{800, 600}}, closeAfter: -1}
	assert.True(t, waitForFramebuffer(win))
	assert.Zero(t, win.waits, "a visible window does not wait")

	win = &sizedWindow{sizes: [][2]int{{0, 0}, {0, 600}, {800, 600}}, closeAfter: -1}
	assert.True(t, waitForFramebuffer(win))
	assert.Equal(t, 2, win.waits)
}

func TestWaitForFramebufferClosed(t *testing.T) {
	win := &sizedWindow{sizes: [][2]int{{0, 0}}, closeAfter: 3}
	assert.False(t, waitForFramebuffer(win))
	assert.Equal(t, 3, win.waits)
}

func TestRecreateSwapchainClosedWhileMinimized(t *testing.T) {
	win := &sizedWindow{sizes: [][2]int{{0, 0}}, closeAfter: 1}

	// The device is never touched: the window closes before it grows.
	program := &Program{window: win}
	require.NoError(t, program.recreateSwapchain())
	assert.Equal(t, 1, win.waits)
}
