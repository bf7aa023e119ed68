// Package memo provides an explicit compute-once value holder.
//
// A Value replaces hidden lazy-field machinery: the owning struct
// declares the holder, the factory closure is visible at the
// construction site, and the computed result is stored in the holder
// itself rather than in a global table.
package memo

// A Value holds the result of a computation performed at most once.
// The zero Value is not usable; construct one with New.
type Value[T any] struct {
	fn   func() (T, error)
	done bool
	v    T
	err  error
}

// New returns a Value that will compute its result with fn on the
// first call to Get.
func New[T any](fn func() (T, error)) *Value[T] {
	return &Value[T]{fn: fn}
}

// Get returns the computed value, invoking the factory on first use.
// Both the value and the error are sticky: the factory runs at most
// once. Get is not safe for concurrent use; callers that share a
// Value across goroutines must serialize access themselves.
func (val *Value[T]) Get() (T, error) {
	if !val.done {
		val.v, val.err = val.fn()
		val.done = true
		val.fn = nil
	}
	return val.v, val.err
}
