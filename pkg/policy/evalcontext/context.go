package evalcontext

import (
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/loop"
	"mercator-hq/ganymede/pkg/policy/variable"
)

// State is the context lifecycle position.
type State int

const (
	// StateIdle: constructed or reset, no wait scheduled.
	StateIdle State = iota

	// StateWaiting: a deferred resumption is scheduled and unresolved.
	StateWaiting

	// StateFired: the wait resolved and the callback was dispatched.
	StateFired

	// StateCancelled: the context was closed; terminal.
	StateCancelled
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Trigger identifies what resolved a wait.
type Trigger int

const (
	// TriggerNone: no resolution has occurred on this context.
	TriggerNone Trigger = iota

	// TriggerChange: an observed async variable signalled a change.
	TriggerChange

	// TriggerTimeout: the poll deadline elapsed.
	TriggerTimeout
)

// String returns the trigger name used in logs and decision records.
func (t Trigger) String() string {
	switch t {
	case TriggerChange:
		return "change"
	case TriggerTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// Context is a single-pass memoizing view over a set of variables, plus the
// machinery to suspend a decision until one of them could have changed.
//
// All methods must be called on the event loop goroutine; the context holds
// no locks of its own.
type Context struct {
	lp     *loop.Loop
	logger *slog.Logger

	cache     map[variable.Variable]any
	consulted map[variable.Variable]struct{}

	state    State
	trigger  Trigger
	callback func()
	observed []variable.Variable
	timer    loop.TimerID
}

// New creates an idle context bound to the given loop.
func New(lp *loop.Loop) *Context {
	return &Context{
		lp:        lp,
		logger:    slog.Default().With("component", "policy.evalcontext"),
		cache:     make(map[variable.Variable]any),
		consulted: make(map[variable.Variable]struct{}),
	}
}

// State reports the lifecycle position.
func (ec *Context) State() State { return ec.state }

// Trigger reports what resolved the last wait, or TriggerNone.
func (ec *Context) Trigger() Trigger { return ec.trigger }

// Value reads a variable through the context.
//
// The first successful read of v caches its snapshot; every later read in
// this pass returns that snapshot even if the source has moved on. A read
// that finds no value is not cached and may succeed later in the same pass.
// Either way the consultation is recorded, so v participates in the wait
// set computed by RunOnValueChangeOrTimeout.
//
// A nil variable or nil context yields (zero, false) without fault.
func Value[T any](ec *Context, v variable.Typed[T]) (T, bool) {
	var zero T
	if ec == nil || v == nil {
		return zero, false
	}
	ec.consulted[v] = struct{}{}
	if cached, ok := ec.cache[v]; ok {
		return cached.(T), true
	}
	val, ok := v.Value()
	if !ok {
		return zero, false
	}
	ec.cache[v] = val
	return val, true
}

// RunOnValueChangeOrTimeout schedules cb to run when any consulted async
// variable signals a change, or when the minimum poll interval among the
// consulted poll variables elapses, whichever happens first.
//
// It returns false without scheduling anything when there is nothing to
// wait on (only const variables, or nothing, was consulted) or when the
// context has already left StateIdle; an outstanding wait is left intact.
//
// On resolution the context detaches from every observed variable and
// cancels the timer before cb is dispatched, and cb runs on a later loop
// turn, exactly once.
func (ec *Context) RunOnValueChangeOrTimeout(cb func()) bool {
	if ec.state != StateIdle {
		return false
	}

	var waitAsync []variable.Variable
	var minPoll time.Duration
	havePoll := false
	for v := range ec.consulted {
		switch v.Mode() {
		case variable.ModeAsync:
			waitAsync = append(waitAsync, v)
		case variable.ModePoll:
			if iv := v.PollInterval(); !havePoll || iv < minPoll {
				minPoll = iv
				havePoll = true
			}
		}
	}
	if len(waitAsync) == 0 && !havePoll {
		return false
	}

	ec.callback = cb
	for _, v := range waitAsync {
		v.AddObserver(ec)
		ec.observed = append(ec.observed, v)
	}
	if havePoll {
		ec.timer = ec.lp.PostDelayed(minPoll, ec.onTimeout)
	}
	ec.state = StateWaiting

	ec.logger.Debug("wait scheduled",
		"observed", len(waitAsync),
		"poll_deadline", havePoll,
		"poll_interval", minPoll,
	)
	return true
}

// ValueChanged implements variable.Observer. It runs on the loop when an
// observed variable signals.
func (ec *Context) ValueChanged(v variable.Variable) {
	ec.logger.Debug("variable changed", "variable", v.Name())
	ec.resolve(TriggerChange)
}

func (ec *Context) onTimeout() {
	ec.timer = loop.NoTimer
	ec.resolve(TriggerTimeout)
}

// resolve ends a wait. The detach runs in full before the callback is
// re-armed, so the losing trigger finds nothing to fire and cb observes a
// quiesced context.
func (ec *Context) resolve(trigger Trigger) {
	if ec.state != StateWaiting {
		return
	}
	ec.detach()
	ec.state = StateFired
	ec.trigger = trigger

	cb := ec.callback
	ec.callback = nil
	ec.lp.Post(cb)
}

// detach removes every observer registration and cancels the pending
// timer. It is the single teardown routine; both resolution and Close go
// through it.
func (ec *Context) detach() {
	for _, v := range ec.observed {
		v.RemoveObserver(ec)
	}
	ec.observed = nil
	if ec.timer != loop.NoTimer {
		ec.lp.Cancel(ec.timer)
		ec.timer = loop.NoTimer
	}
}

// Close releases the context. If a wait is outstanding it is torn down and
// the callback will never run. Close is idempotent; a fired context stays
// fired.
func (ec *Context) Close() {
	switch ec.state {
	case StateWaiting:
		ec.detach()
		ec.callback = nil
		ec.state = StateCancelled
	case StateIdle:
		ec.state = StateCancelled
	}
}

// Reset returns a fired or idle context to StateIdle with an empty cache,
// ready for a fresh pass. It reports whether the reset happened; a waiting
// or cancelled context is left untouched.
func (ec *Context) Reset() bool {
	if ec.state != StateIdle && ec.state != StateFired {
		return false
	}
	ec.cache = make(map[variable.Variable]any)
	ec.consulted = make(map[variable.Variable]struct{})
	ec.trigger = TriggerNone
	ec.state = StateIdle
	return true
}
