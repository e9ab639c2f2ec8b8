package evalcontext

import (
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/loop"
	"mercator-hq/ganymede/pkg/policy/variable"
)

// fixture bundles the loop, context, and one fake variable per mode, and
// verifies on cleanup that the context released every observer.
type fixture struct {
	lp *loop.Loop
	ec *Context

	intPoll  *variable.Fake[int]
	asyncVar *variable.Fake[string]
	constVar *variable.Fake[string]
	pollVar  *variable.Fake[string]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lp := loop.New()
	f := &fixture{
		lp:       lp,
		ec:       New(lp),
		intPoll:  variable.NewFake[int]("fake_int", variable.ModePoll, 5*time.Second),
		asyncVar: variable.NewFake[string]("fake_async", variable.ModeAsync, 0),
		constVar: variable.NewFake[string]("fake_const", variable.ModeConst, 0),
		pollVar:  variable.NewFake[string]("fake_poll", variable.ModePoll, 50*time.Millisecond),
	}
	t.Cleanup(func() {
		f.ec.Close()
		for _, v := range []interface{ ObserverCount() int }{
			f.intPoll, f.asyncVar, f.constVar, f.pollVar,
		} {
			if n := v.ObserverCount(); n != 0 {
				t.Errorf("Variable still has %d observers after context close", n)
			}
		}
	})
	return f
}

func TestValue_NoValue(t *testing.T) {
	f := newFixture(t)

	if _, ok := Value(f.ec, f.intPoll); ok {
		t.Error("Expected no value from an empty variable")
	}
}

func TestValue_NilVariable(t *testing.T) {
	f := newFixture(t)

	if _, ok := Value[int](f.ec, nil); ok {
		t.Error("Expected no value for a nil variable")
	}
}

func TestValue_NilContext(t *testing.T) {
	v := variable.NewFake[int]("v", variable.ModePoll, time.Second)
	v.SetValue(1)
	if _, ok := Value(nil, v); ok {
		t.Error("Expected no value for a nil context")
	}
}

func TestValue_Returns(t *testing.T) {
	f := newFixture(t)

	f.intPoll.SetValue(42)
	got, ok := Value(f.ec, f.intPoll)
	if !ok {
		t.Fatal("Expected a value")
	}
	if got != 42 {
		t.Errorf("Value = %d, want 42", got)
	}
}

func TestValue_Memoized(t *testing.T) {
	f := newFixture(t)

	f.intPoll.SetValue(42)
	Value(f.ec, f.intPoll)

	// The context keeps returning the cached snapshot after the source
	// moves on.
	f.intPoll.SetValue(5)
	got, ok := Value(f.ec, f.intPoll)
	if !ok || got != 42 {
		t.Errorf("Value = (%d, %v), want (42, true)", got, ok)
	}
}

func TestValue_AbsenceNotCached(t *testing.T) {
	f := newFixture(t)

	if _, ok := Value(f.ec, f.intPoll); ok {
		t.Fatal("Expected no value")
	}

	// A second attempt on the same context succeeds once the source has a
	// value.
	f.intPoll.SetValue(42)
	got, ok := Value(f.ec, f.intPoll)
	if !ok || got != 42 {
		t.Errorf("Value = (%d, %v), want (42, true)", got, ok)
	}
}

func TestValue_MixedTypes(t *testing.T) {
	f := newFixture(t)

	f.intPoll.SetValue(42)
	f.pollVar.SetValue("Hello world!")

	gotInt, ok := Value(f.ec, f.intPoll)
	if !ok || gotInt != 42 {
		t.Errorf("int Value = (%d, %v), want (42, true)", gotInt, ok)
	}
	gotStr, ok := Value(f.ec, f.pollVar)
	if !ok || gotStr != "Hello world!" {
		t.Errorf("string Value = (%q, %v), want (Hello world!, true)", gotStr, ok)
	}
}

func TestRunOnValueChangeOrTimeout_NoWaitSet(t *testing.T) {
	f := newFixture(t)

	f.constVar.SetValue("Hello world!")
	if got, ok := Value(f.ec, f.constVar); !ok || got != "Hello world!" {
		t.Fatalf("const Value = (%q, %v)", got, ok)
	}

	if f.ec.RunOnValueChangeOrTimeout(func() {}) {
		t.Error("Expected false with only const variables consulted")
	}
	if f.ec.State() != StateIdle {
		t.Errorf("State = %v, want idle", f.ec.State())
	}
	if f.lp.PendingTimers() != 0 {
		t.Error("No-wait-set scheduling registered a timer")
	}
	if f.constVar.ObserverCount() != 0 {
		t.Error("No-wait-set scheduling registered an observer")
	}
}

func TestRunOnValueChangeOrTimeout_NothingConsulted(t *testing.T) {
	f := newFixture(t)

	if f.ec.RunOnValueChangeOrTimeout(func() {}) {
		t.Error("Expected false with nothing consulted")
	}
}

func TestRunOnValueChangeOrTimeout_ChangeFiresOnce(t *testing.T) {
	f := newFixture(t)

	f.asyncVar.SetValue("Async value")
	Value(f.ec, f.asyncVar)

	fired := 0
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired++ }) {
		t.Fatal("Expected wait to be scheduled")
	}
	if f.ec.State() != StateWaiting {
		t.Fatalf("State = %v, want waiting", f.ec.State())
	}

	// Unrelated loop turns must not fire the callback.
	f.lp.Post(func() {})
	f.lp.RunMaxIterations(100)
	if fired != 0 {
		t.Fatal("Callback fired without a trigger")
	}

	// The signal resolves the wait, but the callback is deferred to a later
	// loop turn, never run inline with the notification.
	f.asyncVar.Signal()
	if fired != 0 {
		t.Fatal("Callback ran inline with the change notification")
	}
	f.lp.RunMaxIterations(100)
	if fired != 1 {
		t.Fatalf("Callback fired %d times, want 1", fired)
	}
	if f.ec.State() != StateFired {
		t.Errorf("State = %v, want fired", f.ec.State())
	}
	if f.ec.Trigger() != TriggerChange {
		t.Errorf("Trigger = %v, want change", f.ec.Trigger())
	}

	// A second signal after resolution is unobservable.
	f.asyncVar.Signal()
	f.lp.RunMaxIterations(100)
	if fired != 1 {
		t.Errorf("Callback fired %d times after late signal, want 1", fired)
	}
}

func TestRunOnValueChangeOrTimeout_CalledTwice(t *testing.T) {
	f := newFixture(t)

	f.asyncVar.SetValue("Async value")
	Value(f.ec, f.asyncVar)

	fired := 0
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired++ }) {
		t.Fatal("Expected first schedule to succeed")
	}
	if f.ec.RunOnValueChangeOrTimeout(func() { fired += 100 }) {
		t.Fatal("Expected second schedule to be rejected")
	}

	// The original wait still resolves normally.
	f.asyncVar.Signal()
	f.lp.RunMaxIterations(100)
	if fired != 1 {
		t.Errorf("Callback fired %d times, want 1 from the original wait", fired)
	}
}

func TestClose_RemovesObserversAndTimeout(t *testing.T) {
	f := newFixture(t)

	f.asyncVar.SetValue("Async value")
	Value(f.ec, f.asyncVar)
	f.pollVar.SetValue("Polled value")
	Value(f.ec, f.pollVar)

	fired := false
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired = true }) {
		t.Fatal("Expected wait to be scheduled")
	}
	f.ec.Close()

	if f.ec.State() != StateCancelled {
		t.Errorf("State = %v, want cancelled", f.ec.State())
	}
	if f.asyncVar.ObserverCount() != 0 {
		t.Error("Observer survived Close")
	}
	if f.lp.PendingTimers() != 0 {
		t.Error("Timer survived Close")
	}

	// A signal on the formerly observed variable must not reach the gone
	// context.
	f.asyncVar.Signal()
	f.lp.RunMaxIterations(100)
	if fired {
		t.Error("Callback fired after Close")
	}
}

func TestClose_Idempotent(t *testing.T) {
	f := newFixture(t)

	f.asyncVar.SetValue("x")
	Value(f.ec, f.asyncVar)
	f.ec.RunOnValueChangeOrTimeout(func() {})

	f.ec.Close()
	f.ec.Close()
	if f.ec.State() != StateCancelled {
		t.Errorf("State = %v, want cancelled", f.ec.State())
	}
}

func TestRunOnValueChangeOrTimeout_TimeoutPath(t *testing.T) {
	f := newFixture(t)

	f.pollVar.SetValue("Polled value")
	Value(f.ec, f.pollVar)

	fired := false
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired = true }) {
		t.Fatal("Expected wait to be scheduled")
	}

	// Nothing fires before the poll interval elapses.
	f.lp.RunMaxIterations(10)
	if fired {
		t.Fatal("Callback fired before the poll deadline")
	}

	if !f.lp.RunUntil(10*time.Second, func() bool { return fired }) {
		t.Fatal("Callback never fired from the poll deadline")
	}
	if f.ec.Trigger() != TriggerTimeout {
		t.Errorf("Trigger = %v, want timeout", f.ec.Trigger())
	}
	if f.pollVar.ObserverCount() != 0 {
		t.Error("Poll variable gained an observer")
	}
}

func TestRunOnValueChangeOrTimeout_MinimumPollInterval(t *testing.T) {
	f := newFixture(t)

	// Two poll variables: the shorter interval wins.
	f.intPoll.SetValue(1) // 5s interval
	Value(f.ec, f.intPoll)
	f.pollVar.SetValue("fast") // 50ms interval
	Value(f.ec, f.pollVar)

	fired := false
	start := time.Now()
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired = true }) {
		t.Fatal("Expected wait to be scheduled")
	}
	if !f.lp.RunUntil(2*time.Second, func() bool { return fired }) {
		t.Fatal("Callback never fired")
	}
	if elapsed := time.Since(start); elapsed >= 5*time.Second {
		t.Errorf("Deadline took %v; the minimum interval should have won", elapsed)
	}
}

func TestRunOnValueChangeOrTimeout_ChangeBeatsTimeout(t *testing.T) {
	f := newFixture(t)

	f.asyncVar.SetValue("Async value")
	Value(f.ec, f.asyncVar)
	f.pollVar.SetValue("Polled value")
	Value(f.ec, f.pollVar)

	fired := 0
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired++ }) {
		t.Fatal("Expected wait to be scheduled")
	}

	f.asyncVar.Signal()
	f.lp.RunMaxIterations(100)
	if fired != 1 {
		t.Fatalf("Callback fired %d times, want 1", fired)
	}
	if f.ec.Trigger() != TriggerChange {
		t.Errorf("Trigger = %v, want change", f.ec.Trigger())
	}
	// The poll timer was cancelled on resolution; waiting out its deadline
	// must not fire anything further.
	if f.lp.PendingTimers() != 0 {
		t.Error("Poll timer survived resolution")
	}
	f.lp.RunUntil(100*time.Millisecond, func() bool { return false })
	if fired != 1 {
		t.Errorf("Callback fired %d times after timer deadline, want 1", fired)
	}
}

func TestRunOnValueChangeOrTimeout_UnreadAsyncStillObserved(t *testing.T) {
	f := newFixture(t)

	// The async variable has no value, but the consultation alone puts it
	// in the wait set: it may later emit a change.
	if _, ok := Value(f.ec, f.asyncVar); ok {
		t.Fatal("Expected no value")
	}

	fired := false
	if !f.ec.RunOnValueChangeOrTimeout(func() { fired = true }) {
		t.Fatal("Expected wait to be scheduled for a consulted async variable")
	}

	f.asyncVar.SetValue("now present")
	f.asyncVar.Signal()
	f.lp.RunMaxIterations(100)
	if !fired {
		t.Error("Callback never fired")
	}
}

func TestReset_ClearsCacheAndReturnsToIdle(t *testing.T) {
	f := newFixture(t)

	f.intPoll.SetValue(42)
	Value(f.ec, f.intPoll)
	f.asyncVar.SetValue("x")
	Value(f.ec, f.asyncVar)

	if !f.ec.RunOnValueChangeOrTimeout(func() {}) {
		t.Fatal("Expected wait to be scheduled")
	}
	if f.ec.Reset() {
		t.Fatal("Reset must be rejected while waiting")
	}

	f.asyncVar.Signal()
	f.lp.RunMaxIterations(100)
	if f.ec.State() != StateFired {
		t.Fatalf("State = %v, want fired", f.ec.State())
	}

	if !f.ec.Reset() {
		t.Fatal("Reset from fired must succeed")
	}
	if f.ec.State() != StateIdle {
		t.Errorf("State = %v, want idle", f.ec.State())
	}
	if f.ec.Trigger() != TriggerNone {
		t.Errorf("Trigger = %v, want none", f.ec.Trigger())
	}

	// The fresh pass sees the current value, not last pass's snapshot.
	f.intPoll.SetValue(7)
	got, ok := Value(f.ec, f.intPoll)
	if !ok || got != 7 {
		t.Errorf("Value after reset = (%d, %v), want (7, true)", got, ok)
	}
}

func TestReset_RejectedAfterClose(t *testing.T) {
	f := newFixture(t)

	f.ec.Close()
	if f.ec.Reset() {
		t.Error("Reset must be rejected on a cancelled context")
	}
}

func TestStateAndTriggerStrings(t *testing.T) {
	if StateWaiting.String() != "waiting" || StateCancelled.String() != "cancelled" {
		t.Error("Unexpected state names")
	}
	if TriggerChange.String() != "change" || TriggerNone.String() != "none" {
		t.Error("Unexpected trigger names")
	}
}
