package variable

import (
	"sync"
	"time"
)

// Fake is a settable variable of any mode, for tests. Unlike Async it never
// signals on its own; tests call NotifyValueChanged explicitly, which lets
// them exercise notification ordering precisely.
type Fake[T any] struct {
	Meta

	mu  sync.Mutex
	val T
	ok  bool
}

// NewFake builds a fake variable with no value yet.
func NewFake[T any](name string, mode Mode, interval time.Duration) *Fake[T] {
	return &Fake[T]{Meta: NewMeta(name, mode, interval)}
}

// Value implements Typed.
func (f *Fake[T]) Value() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.ok
}

// SetValue stores a value without signalling observers.
func (f *Fake[T]) SetValue(v T) {
	f.mu.Lock()
	f.val = v
	f.ok = true
	f.mu.Unlock()
}

// ClearValue makes the variable report no value again.
func (f *Fake[T]) ClearValue() {
	var zero T
	f.mu.Lock()
	f.val = zero
	f.ok = false
	f.mu.Unlock()
}

// Signal notifies observers that the value changed. Must be called on the
// event loop, like any notification.
func (f *Fake[T]) Signal() {
	f.NotifyValueChanged(f)
}
