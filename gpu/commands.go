package gpu

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (r *Resource) createCommandPool() (vk.CommandPool, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateResetCommandBufferBit,
		),
		QueueFamilyIndex: r.Families.Graphics.Get(),
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(r.Device, &poolInfo, nil, &commandPool)
	if err := VkError(res); err != nil {
		return commandPool, errors.Wrap(err, "failed to create command pool")
	}

	return commandPool, nil
}

func (r *Resource) allocateCommandBuffers(
	pool vk.CommandPool,
	count int,
) ([]vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	res := vk.AllocateCommandBuffers(r.Device, &allocInfo, commandBuffers)
	if err := VkError(res); err != nil {
		return nil, errors.Wrap(err, "failed to allocate command buffers")
	}

	return commandBuffers, nil
}

// runSingleTimeCommands records the commands added by record into a temporary
// command buffer, submits it to the graphics queue and waits for it to finish.
func (r *Resource) runSingleTimeCommands(
	pool vk.CommandPool,
	record func(commandBuffer vk.CommandBuffer),
) error {
	commandBuffers, err := r.allocateCommandBuffers(pool, 1)
	if err != nil {
		return err
	}
	defer vk.FreeCommandBuffers(r.Device, pool, 1, commandBuffers)

	commandBuffer := commandBuffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	if err := VkError(vk.BeginCommandBuffer(commandBuffer, &beginInfo)); err != nil {
		return errors.Wrap(err, "failed to begin command buffer")
	}

	record(commandBuffer)

	if err := VkError(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return errors.Wrap(err, "failed to end command buffer")
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}

	res := vk.QueueSubmit(r.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "failed to submit to graphics queue")
	}

	if err := VkError(vk.QueueWaitIdle(r.GraphicsQueue)); err != nil {
		return errors.Wrap(err, "failed to wait on graphics queue idle")
	}

	return nil
}

// CopyBuffer copies size bytes from the start of src to the start of dst and
// waits until the copy is done.
func (r *Resource) CopyBuffer(pool vk.CommandPool, src, dst vk.Buffer, size vk.DeviceSize) error {
	return r.runSingleTimeCommands(pool, func(commandBuffer vk.CommandBuffer) {
		copyRegion := vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}
		vk.CmdCopyBuffer(commandBuffer, src, dst, 1, []vk.BufferCopy{copyRegion})
	})
}

// UploadBuffer creates a device local buffer with the given usage and fills it
// with data through a host visible staging buffer.
func (r *Resource) UploadBuffer(
	pool vk.CommandPool,
	data []byte,
	usage vk.BufferUsageFlags,
) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{Handle: vk.NullBuffer, Memory: vk.NullDeviceMemory},
			errors.New("cannot upload an empty buffer")
	}
	size := vk.DeviceSize(len(data))

	staging, err := r.CreateBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return staging, errors.Wrap(err, "creating the staging buffer")
	}
	defer r.DestroyBuffer(&staging)

	if err := r.Fill(staging, data); err != nil {
		return Buffer{Handle: vk.NullBuffer, Memory: vk.NullDeviceMemory},
			errors.Wrap(err, "filling the staging buffer")
	}

	buf, err := r.CreateBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return buf, errors.Wrap(err, "creating the device local buffer")
	}

	if err := r.CopyBuffer(pool, staging.Handle, buf.Handle, size); err != nil {
		r.DestroyBuffer(&buf)
		return buf, errors.Wrap(err, "failed to copy the staging buffer")
	}

	return buf, nil
}
