package optional

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionalZeroValue(t *testing.T) {
	var o Optional[uint32]

	assert.False(t, o.HasValue())
	assert.Equal(t, uint32(0), o.Get())
}

func TestOptionalSetZero(t *testing.T) {
	var o Optional[uint32]
	o.Set(0)

	assert.True(t, o.HasValue(), "setting the zero value still counts as set")
	assert.Equal(t, uint32(0), o.Get())
}

func TestOptionalSetOverwrites(t *testing.T) {
	var o Optional[string]
	o.Set("graphics")
	o.Set("present")

	assert.True(t, o.HasValue())
	assert.Equal(t, "present", o.Get())
}
