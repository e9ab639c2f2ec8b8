package variable

import (
	"sync"
	"time"
)

// Mode describes how a variable's value can change over time.
type Mode int

const (
	// ModeConst marks a value that is fixed after the first successful read.
	ModeConst Mode = iota

	// ModePoll marks a value that may change only when re-queried.
	ModePoll

	// ModeAsync marks a value whose changes are pushed to observers.
	ModeAsync
)

// String returns the mode name used in logs and decision records.
func (m Mode) String() string {
	switch m {
	case ModeConst:
		return "const"
	case ModePoll:
		return "poll"
	case ModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Observer receives change signals from async variables. The signal carries
// no payload; observers re-read the variable if they need the new value.
type Observer interface {
	ValueChanged(v Variable)
}

// Variable is the untyped capability surface every variable exposes. The
// evaluation context keys its cache and wait set by Variable identity.
type Variable interface {
	// Name is the stable identity used in logs and records.
	Name() string

	// Mode reports how the value can change.
	Mode() Mode

	// PollInterval is the minimum re-query interval. Meaningful only for
	// ModePoll variables; others return zero.
	PollInterval() time.Duration

	// AddObserver registers for change signals. Only meaningful for
	// ModeAsync variables; other modes never signal.
	AddObserver(o Observer)

	// RemoveObserver deregisters a previously added observer. Removing an
	// observer that is not registered is a no-op.
	RemoveObserver(o Observer)
}

// Typed is a Variable carrying values of a concrete type. Value is a
// synchronous, non-blocking snapshot fetch; the second return is false when
// no value is currently available. Absence is not an error and is never a
// stable snapshot: a later fetch may succeed.
type Typed[T any] interface {
	Variable
	Value() (T, bool)
}

// Meta implements the identity, mode, and observer bookkeeping shared by
// every variable implementation. Embed it and call NotifyValueChanged from
// the event loop when the value changes.
type Meta struct {
	name     string
	mode     Mode
	interval time.Duration

	mu        sync.Mutex
	observers []Observer
}

// NewMeta builds the shared variable state. interval is ignored unless mode
// is ModePoll.
func NewMeta(name string, mode Mode, interval time.Duration) Meta {
	if mode != ModePoll {
		interval = 0
	}
	return Meta{name: name, mode: mode, interval: interval}
}

// Name implements Variable.
func (m *Meta) Name() string { return m.name }

// Mode implements Variable.
func (m *Meta) Mode() Mode { return m.mode }

// PollInterval implements Variable.
func (m *Meta) PollInterval() time.Duration { return m.interval }

// AddObserver implements Variable.
func (m *Meta) AddObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// RemoveObserver implements Variable. It removes one registration of o.
func (m *Meta) RemoveObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, reg := range m.observers {
		if reg == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// ObserverCount reports the number of registered observers. The evaluation
// context guarantees this returns to zero after teardown; tests rely on it.
func (m *Meta) ObserverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}

// NotifyValueChanged signals every registered observer, synchronously, in
// registration order. Callers must invoke it on the event loop; observers
// that need deferral arrange it themselves.
func (m *Meta) NotifyValueChanged(v Variable) {
	m.mu.Lock()
	snapshot := make([]Observer, len(m.observers))
	copy(snapshot, m.observers)
	m.mu.Unlock()
	for _, o := range snapshot {
		o.ValueChanged(v)
	}
}
