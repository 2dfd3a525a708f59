package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestPickMemoryType(t *testing.T) {
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	hostCoherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)

	types := []vk.MemoryPropertyFlags{
		deviceLocal,
		hostVisible,
		hostVisible | hostCoherent,
		deviceLocal | hostVisible | hostCoherent,
	}

	tests := []struct {
		name       string
		filter     uint32
		properties vk.MemoryPropertyFlags
		expected   uint32
	}{
		{name: "device local", filter: 0b1111, properties: deviceLocal, expected: 0},
		{name: "staging", filter: 0b1111, properties: hostVisible | hostCoherent, expected: 2},
		{name: "filtered out", filter: 0b1010, properties: deviceLocal, expected: 3},
		{name: "no requirements", filter: 0b0100, properties: 0, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, err := pickMemoryType(tt.filter, types, tt.properties)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, index)
		})
	}
}

func TestPickMemoryTypeNone(t *testing.T) {
	types := []vk.MemoryPropertyFlags{
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	}

	_, err := pickMemoryType(0b1, types,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	assert.ErrorIs(t, err, ErrNoMemoryType)

	_, err = pickMemoryType(0, types,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	assert.ErrorIs(t, err, ErrNoMemoryType)

	_, err = pickMemoryType(0b1, nil, 0)
	assert.ErrorIs(t, err, ErrNoMemoryType)
}
