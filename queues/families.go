package queues

import (
	"hello-vulkan/optional"
)

// FamilyIndices holds the indexes of Vulkan queue families needed by the programs.
type FamilyIndices struct {

	// Graphics is the index of the graphics queue family.
	Graphics optional.Optional[uint32]

	// Present is the index of the queue family used for presenting to the drawing
	// surface.
	Present optional.Optional[uint32]
}

// IsComplete returns true if all families have been set.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// Unique returns the distinct family indexes. Graphics comes first. Only families
// which have been set are returned.
func (f *FamilyIndices) Unique() []uint32 {
	var out []uint32
	if f.Graphics.HasValue() {
		out = append(out, f.Graphics.Get())
	}
	if f.Present.HasValue() && (len(out) == 0 || out[0] != f.Present.Get()) {
		out = append(out, f.Present.Get())
	}
	return out
}

// Shared reports whether graphics and present work go to the same family.
func (f *FamilyIndices) Shared() bool {
	return f.IsComplete() && f.Graphics.Get() == f.Present.Get()
}

// Family describes what a single queue family of a physical device can do.
type Family struct {
	Graphics bool
	Present  bool
}

// Select walks the families in order and picks the first one with graphics
// support and the first one able to present. It stops as soon as both are found.
func Select(families []Family) FamilyIndices {
	indices := FamilyIndices{}

	for i, family := range families {
		if family.Graphics && !indices.Graphics.HasValue() {
			indices.Graphics.Set(uint32(i))
		}

		if family.Present && !indices.Present.HasValue() {
			indices.Present.Set(uint32(i))
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices
}
