package gpu

import (
	"log/slog"
	"math"

	"hello-vulkan/config"
	"hello-vulkan/shaders"
	"hello-vulkan/unsafer"
	"hello-vulkan/window"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"
)

// Program draws the coloured quad. It owns a Resource, the TriangleShader and
// everything needed to keep several frames in flight.
type Program struct {
	log    *slog.Logger
	cfg    config.Config
	window window.Window

	resource *Resource
	shader   *TriangleShader

	framebuffers   []vk.Framebuffer
	commandPool    vk.CommandPool
	commandBuffers []vk.CommandBuffer

	vertexBuffer Buffer
	indexBuffer  Buffer
	indexCount   uint32

	sync   syncObjects
	frames frameRing
	stats  frameStats
}

// NewProgram returns a program drawing into win. Init must be called before
// DrawFrame.
func NewProgram(win window.Window, cfg config.Config, logger *slog.Logger) *Program {
	return &Program{
		log:          logger,
		cfg:          cfg,
		window:       win,
		resource:     NewResource(win, cfg.Vulkan, cfg.Window.Title, logger),
		commandPool:  vk.CommandPool(vk.NullHandle),
		vertexBuffer: Buffer{Handle: vk.NullBuffer, Memory: vk.NullDeviceMemory},
		indexBuffer:  Buffer{Handle: vk.NullBuffer, Memory: vk.NullDeviceMemory},
		frames:       newFrameRing(cfg.Vulkan.MaxFramesInFlight),
	}
}

// Init creates every Vulkan object the program needs. On failure the objects
// created so far are released by Uninit.
func (p *Program) Init() error {
	program, err := shaders.LoadProgram(shaders.Dir(p.cfg.Render.ShaderDir))
	if err != nil {
		return errors.Wrap(err, "loading shaders")
	}

	if err := p.resource.Init(); err != nil {
		return errors.Wrap(err, "initVulkan")
	}

	p.shader = NewTriangleShader(p.resource)
	if err := p.shader.Init(program); err != nil {
		return errors.Wrap(err, "triangle shader")
	}

	if err := p.createFramebuffers(); err != nil {
		return errors.Wrap(err, "createFramebuffers")
	}

	pool, err := p.resource.createCommandPool()
	if err != nil {
		return errors.Wrap(err, "createCommandPool")
	}
	p.commandPool = pool

	if err := p.createGeometry(); err != nil {
		return errors.Wrap(err, "createGeometry")
	}

	commandBuffers, err := p.resource.allocateCommandBuffers(p.commandPool, p.frames.Len())
	if err != nil {
		return errors.Wrap(err, "createCommandBuffers")
	}
	p.commandBuffers = commandBuffers

	sync, err := createSyncObjects(
		p.resource.Device,
		p.frames.Len(),
		len(p.resource.Swapchain.Images),
	)
	p.sync = sync
	if err != nil {
		return errors.Wrap(err, "createSyncObjects")
	}

	p.stats = newFrameStats(p.cfg.Render.FPSInterval.Duration(), hrtime.Now())

	p.log.Info("vulkan initialised",
		"frames_in_flight", p.frames.Len(),
		"swapchain_images", len(p.resource.Swapchain.Images),
	)
	return nil
}

// Uninit waits for the device to become idle and releases everything in the
// reverse order of creation.
func (p *Program) Uninit() {
	device := p.resource.Device

	if device != vk.Device(vk.NullHandle) {
		if err := p.resource.WaitIdle(); err != nil {
			p.log.Error("waiting for the device before cleanup", "error", err)
		}

		p.sync.destroy(device)

		if p.commandPool != vk.CommandPool(vk.NullHandle) {
			vk.DestroyCommandPool(device, p.commandPool, nil)
			p.commandPool = vk.CommandPool(vk.NullHandle)
			p.commandBuffers = nil
		}

		p.resource.DestroyBuffer(&p.indexBuffer)
		p.resource.DestroyBuffer(&p.vertexBuffer)

		p.destroyFramebuffers()

		if p.shader != nil {
			p.shader.Destroy()
		}
	}

	p.resource.Destroy()
}

// WaitIdle blocks until the GPU has finished all submitted frames.
func (p *Program) WaitIdle() error {
	return p.resource.WaitIdle()
}

func (p *Program) createGeometry() error {
	vertexBuffer, err := p.resource.UploadBuffer(
		p.commandPool,
		unsafer.SliceToBytes(QuadVertices),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
	)
	if err != nil {
		return errors.Wrap(err, "creating the vertex buffer")
	}
	p.vertexBuffer = vertexBuffer

	indexBuffer, err := p.resource.UploadBuffer(
		p.commandPool,
		unsafer.SliceToBytes(QuadIndices),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
	)
	if err != nil {
		return errors.Wrap(err, "creating the index buffer")
	}
	p.indexBuffer = indexBuffer
	p.indexCount = uint32(len(QuadIndices))

	return nil
}

func (p *Program) createFramebuffers() error {
	swapchain := p.resource.Swapchain
	p.framebuffers = make([]vk.Framebuffer, 0, len(swapchain.Views))

	for i, view := range swapchain.Views {
		framebufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      p.shader.RenderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           swapchain.Extent.Width,
			Height:          swapchain.Extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		res := vk.CreateFramebuffer(p.resource.Device, &framebufferInfo, nil, &framebuffer)
		if err := VkError(res); err != nil {
			return errors.Wrapf(err, "failed to create frame buffer %d", i)
		}

		p.framebuffers = append(p.framebuffers, framebuffer)
	}

	return nil
}

func (p *Program) destroyFramebuffers() {
	for _, framebuffer := range p.framebuffers {
		vk.DestroyFramebuffer(p.resource.Device, framebuffer, nil)
	}
	p.framebuffers = nil
}

// recreateSwapchain rebuilds the swapchain and its framebuffers for the new
// window size. While the window is minimized its framebuffer is 0x0 and there
// is nothing to build, so it blocks on window events until that changes.
func (p *Program) recreateSwapchain() error {
	if !waitForFramebuffer(p.window) {
		return nil
	}

	if err := p.resource.WaitIdle(); err != nil {
		return err
	}

	p.destroyFramebuffers()
	p.resource.DestroySwapchain()

	if err := p.resource.CreateSwapchain(); err != nil {
		return errors.Wrap(err, "createSwapChain")
	}

	if err := p.createFramebuffers(); err != nil {
		return errors.Wrap(err, "createFramebuffers")
	}

	images := len(p.resource.Swapchain.Images)
	if err := p.sync.createRenderFinished(p.resource.Device, images); err != nil {
		return errors.Wrap(err, "createSyncObjects")
	}

	p.log.Debug("swapchain recreated",
		"width", p.resource.Swapchain.Extent.Width,
		"height", p.resource.Swapchain.Extent.Height,
		"images", images,
	)
	return nil
}

// DrawFrame renders and presents a single frame.
//
// It waits until the current frame slot is free again, acquires a swapchain
// image, records and submits the draw and queues the image for presentation.
// When the swapchain no longer matches the window it is recreated.
func (p *Program) DrawFrame() error {
	presented, err := drawFrame(p, &p.frames)
	if err != nil || !presented {
		return err
	}

	if fps, report := p.stats.tick(hrtime.Now()); report {
		p.log.Info("frame rate", "fps", fps)
	}

	return nil
}

func (p *Program) waitForFrame(frame uint32) error {
	fences := []vk.Fence{p.sync.inFlight[frame]}
	res := vk.WaitForFences(p.resource.Device, 1, fences, vk.True, math.MaxUint64)
	return errors.Wrap(VkError(res), "waiting for in flight fence")
}

func (p *Program) acquireImage(frame uint32) (uint32, vk.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(
		p.resource.Device,
		p.resource.Swapchain.Handle,
		math.MaxUint64,
		p.sync.imageAvailable[frame],
		vk.NullFence,
		&imageIndex,
	)
	return imageIndex, res
}

func (p *Program) resetFrame(frame uint32) error {
	fences := []vk.Fence{p.sync.inFlight[frame]}
	res := vk.ResetFences(p.resource.Device, 1, fences)
	return errors.Wrap(VkError(res), "resetting in flight fence")
}

func (p *Program) recordFrame(frame, imageIndex uint32) error {
	commandBuffer := p.commandBuffers[frame]

	if err := VkError(vk.ResetCommandBuffer(commandBuffer, 0)); err != nil {
		return errors.Wrap(err, "resetting command buffer")
	}

	return errors.Wrap(
		p.recordCommandBuffer(commandBuffer, imageIndex),
		"recording command buffer",
	)
}

func (p *Program) submitFrame(frame, imageIndex uint32) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{p.sync.imageAvailable[frame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{p.commandBuffers[frame]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{p.sync.renderFinished[imageIndex]},
	}

	res := vk.QueueSubmit(
		p.resource.GraphicsQueue,
		1,
		[]vk.SubmitInfo{submitInfo},
		p.sync.inFlight[frame],
	)
	return errors.Wrap(VkError(res), "queue submit error")
}

func (p *Program) presentFrame(imageIndex uint32) vk.Result {
	swapchains := []vk.Swapchain{
		p.resource.Swapchain.Handle,
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{p.sync.renderFinished[imageIndex]},
		SwapchainCount:     uint32(len(swapchains)),
		PSwapchains:        swapchains,
		PImageIndices:      []uint32{imageIndex},
	}

	return vk.QueuePresent(p.resource.PresentQueue, &presentInfo)
}

func (p *Program) windowResized() bool {
	return p.window.TakeResized()
}

func (p *Program) recordCommandBuffer(
	commandBuffer vk.CommandBuffer,
	imageIndex uint32,
) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}

	res := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "cannot add begin command to the buffer")
	}

	extent := p.resource.Swapchain.Extent
	clearColor := vk.NewClearValue(p.cfg.Render.ClearColor[:])

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  p.shader.RenderPass,
		Framebuffer: p.framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clearColor},
	}

	vk.CmdBeginRenderPass(commandBuffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, p.shader.Pipeline)

	vertexBuffers := []vk.Buffer{p.vertexBuffer.Handle}
	offsets := []vk.DeviceSize{0}
	vk.CmdBindVertexBuffers(commandBuffer, 0, 1, vertexBuffers, offsets)

	vk.CmdBindIndexBuffer(commandBuffer, p.indexBuffer.Handle, 0, vk.IndexTypeUint16)

	viewport := vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{scissor})

	vk.CmdDrawIndexed(commandBuffer, p.indexCount, 1, 0, 0, 0)
	vk.CmdEndRenderPass(commandBuffer)

	if err := VkError(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return errors.Wrap(err, "recording commands to buffer failed")
	}
	return nil
}
