package variable

import (
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/loop"
)

// Const is a variable whose value is fixed at construction.
type Const[T any] struct {
	Meta
	val T
}

// NewConst builds a const-mode variable holding value.
func NewConst[T any](name string, value T) *Const[T] {
	return &Const[T]{Meta: NewMeta(name, ModeConst, 0), val: value}
}

// Value implements Typed.
func (c *Const[T]) Value() (T, bool) { return c.val, true }

// PollFunc is a poll-mode variable backed by a fetch function. Every read
// invokes fn; the interval bounds how soon a re-query could yield something
// new.
type PollFunc[T any] struct {
	Meta
	fn func() (T, bool)
}

// NewPollFunc builds a poll-mode variable. fn must be synchronous and
// non-blocking; it returns false while no value is available.
func NewPollFunc[T any](name string, interval time.Duration, fn func() (T, bool)) *PollFunc[T] {
	return &PollFunc[T]{Meta: NewMeta(name, ModePoll, interval), fn: fn}
}

// Value implements Typed.
func (p *PollFunc[T]) Value() (T, bool) { return p.fn() }

// Async is an async-mode variable holding the latest pushed value. Set may
// be called from any goroutine; the store and the observer notification are
// posted onto the loop so observers only ever run there.
type Async[T any] struct {
	Meta
	lp *loop.Loop

	mu  sync.Mutex
	val T
	ok  bool
}

// NewAsync builds an async-mode variable with no value yet.
func NewAsync[T any](name string, lp *loop.Loop) *Async[T] {
	return &Async[T]{Meta: NewMeta(name, ModeAsync, 0), lp: lp}
}

// Value implements Typed. It returns the latest pushed value without
// blocking.
func (a *Async[T]) Value() (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.val, a.ok
}

// Set pushes a new value and signals observers on a subsequent loop turn.
func (a *Async[T]) Set(v T) {
	a.lp.Post(func() {
		a.mu.Lock()
		a.val = v
		a.ok = true
		a.mu.Unlock()
		a.NotifyValueChanged(a)
	})
}
