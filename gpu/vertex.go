package gpu

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

// Vertex is a single vertex of the triangle geometry as laid out in the vertex
// buffer.
type Vertex struct {
	Pos   linmath.Vec2
	Color linmath.Vec3
}

// QuadVertices are the corners of the drawn quad in normalized device
// coordinates, each with its own colour.
var QuadVertices = []Vertex{
	{Pos: linmath.Vec2{-0.5, -0.5}, Color: linmath.Vec3{1, 0, 0}},
	{Pos: linmath.Vec2{0.5, -0.5}, Color: linmath.Vec3{0, 1, 0}},
	{Pos: linmath.Vec2{0.5, 0.5}, Color: linmath.Vec3{0, 0, 1}},
	{Pos: linmath.Vec2{-0.5, 0.5}, Color: linmath.Vec3{1, 1, 1}},
}

// QuadIndices split QuadVertices into two clockwise triangles.
var QuadIndices = []uint16{
	0, 1, 2, 2, 3, 0,
}

// VertexSize is the stride of Vertex in the vertex buffer.
func VertexSize() uint32 {
	return uint32(unsafe.Sizeof(Vertex{}))
}

// VertexBindingDescription describes how vertices are read from binding 0.
func VertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    VertexSize(),
		InputRate: vk.VertexInputRateVertex,
	}
}

// VertexAttributeDescriptions maps the Vertex fields to shader locations.
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}
