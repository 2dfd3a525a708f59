// Package optional implements a value which may or may not be set.
package optional

// Optional holds a value of type T and remembers whether it was ever set.
type Optional[T any] struct {
	value T
	set   bool
}

// Set stores v and marks the optional as having a value.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// HasValue returns true when Set has been called.
func (o *Optional[T]) HasValue() bool {
	return o.set
}

// Get returns the stored value. It returns the zero value of T when nothing was
// set, so callers should check HasValue first.
func (o *Optional[T]) Get() T {
	return o.value
}
