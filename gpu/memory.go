package gpu

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a Vulkan buffer bound to its own memory allocation.
type Buffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

// CreateBuffer creates a buffer of the given size and binds it to freshly
// allocated memory with the requested properties.
func (r *Resource) CreateBuffer(
	size vk.DeviceSize,
	usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags,
) (Buffer, error) {
	buf := Buffer{
		Handle: vk.NullBuffer,
		Memory: vk.NullDeviceMemory,
		Size:   size,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	res := vk.CreateBuffer(r.Device, &bufferInfo, nil, &buf.Handle)
	if err := VkError(res); err != nil {
		return buf, errors.Wrap(err, "failed to create buffer")
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(r.Device, buf.Handle, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		r.DestroyBuffer(&buf)
		return buf, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(r.Device, &allocInfo, nil, &buf.Memory)
	if err := VkError(res); err != nil {
		r.DestroyBuffer(&buf)
		return buf, errors.Wrap(err, "failed to allocate buffer memory")
	}

	res = vk.BindBufferMemory(r.Device, buf.Handle, buf.Memory, 0)
	if err := VkError(res); err != nil {
		r.DestroyBuffer(&buf)
		return buf, errors.Wrap(err, "failed to bind buffer memory")
	}

	return buf, nil
}

// Fill copies data into the start of a host visible buffer.
func (r *Resource) Fill(buf Buffer, data []byte) error {
	if vk.DeviceSize(len(data)) > buf.Size {
		return errors.Newf("%d bytes do not fit in a buffer of %d", len(data), buf.Size)
	}

	var pData unsafe.Pointer
	res := vk.MapMemory(r.Device, buf.Memory, 0, buf.Size, 0, &pData)
	if err := VkError(res); err != nil {
		return errors.Wrap(err, "failed to map buffer memory")
	}

	vk.Memcopy(pData, data)
	vk.UnmapMemory(r.Device, buf.Memory)

	return nil
}

// DestroyBuffer destroys the buffer and frees its memory. Null parts are
// skipped so it can clean up after a partially created buffer.
func (r *Resource) DestroyBuffer(buf *Buffer) {
	if buf.Handle != vk.NullBuffer {
		vk.DestroyBuffer(r.Device, buf.Handle, nil)
		buf.Handle = vk.NullBuffer
	}
	if buf.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(r.Device, buf.Memory, nil)
		buf.Memory = vk.NullDeviceMemory
	}
}

func (r *Resource) findMemoryType(
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(r.PhysicalDevice, &memProperties)
	memProperties.Deref()

	flags := make([]vk.MemoryPropertyFlags, 0, memProperties.MemoryTypeCount)
	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memType := memProperties.MemoryTypes[i]
		memType.Deref()
		flags = append(flags, memType.PropertyFlags)
	}

	return pickMemoryType(typeFilter, flags, properties)
}

// pickMemoryType returns the first memory type allowed by typeFilter whose
// flags contain all of properties. typeFilter has bit i set when memory type i
// may be used.
func pickMemoryType(
	typeFilter uint32,
	typeFlags []vk.MemoryPropertyFlags,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	for i, flags := range typeFlags {
		if i >= 32 {
			break
		}

		if typeFilter&(1<<uint(i)) == 0 {
			continue
		}

		if flags&properties != properties {
			continue
		}

		return uint32(i), nil
	}

	return 0, ErrNoMemoryType
}
