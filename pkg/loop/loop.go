package loop

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// TimerID identifies a pending one-shot timer. The zero value is never a
// valid timer and may be used as a "no timer" sentinel.
type TimerID uint64

// NoTimer is the zero TimerID.
const NoTimer TimerID = 0

// Loop is a single-threaded cooperative scheduler. Queued callbacks run in
// FIFO order; delayed callbacks run once their deadline has passed. A Loop
// must be pumped from exactly one goroutine at a time.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	timers timerHeap
	byID   map[TimerID]*timerEntry
	nextID TimerID
	wake   chan struct{}
}

type timerEntry struct {
	id       TimerID
	when     time.Time
	fn       func()
	canceled bool
	index    int
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{
		byID: make(map[TimerID]*timerEntry),
		wake: make(chan struct{}, 1),
	}
}

// Post enqueues fn to run on a subsequent loop turn. It never runs fn
// inline.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.wakeUp()
}

// PostDelayed schedules fn to run once, no earlier than d from now. It
// returns a handle usable with Cancel. A non-positive delay behaves like a
// zero delay: the timer is immediately due but still dispatched on a loop
// turn, never inline.
func (l *Loop) PostDelayed(d time.Duration, fn func()) TimerID {
	l.mu.Lock()
	l.nextID++
	e := &timerEntry{
		id:   l.nextID,
		when: time.Now().Add(d),
		fn:   fn,
	}
	l.byID[e.id] = e
	heap.Push(&l.timers, e)
	l.mu.Unlock()
	l.wakeUp()
	return e.id
}

// Cancel drops a pending timer. Cancelling an already-fired, already-
// cancelled, or unknown handle is a no-op.
func (l *Loop) Cancel(id TimerID) {
	l.mu.Lock()
	if e, ok := l.byID[id]; ok {
		e.canceled = true
		delete(l.byID, id)
	}
	l.mu.Unlock()
}

// PendingTimers reports how many timers are scheduled and not yet fired or
// cancelled.
func (l *Loop) PendingTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}

// runOne dispatches a single ready item. Queued callbacks take precedence
// over due timers. Returns false when nothing is ready.
func (l *Loop) runOne(now time.Time) bool {
	l.mu.Lock()
	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
		return true
	}
	for l.timers.Len() > 0 {
		e := l.timers[0]
		if e.canceled {
			heap.Pop(&l.timers)
			continue
		}
		if e.when.After(now) {
			break
		}
		heap.Pop(&l.timers)
		delete(l.byID, e.id)
		l.mu.Unlock()
		e.fn()
		return true
	}
	l.mu.Unlock()
	return false
}

// RunMaxIterations dispatches up to n ready items without blocking and
// returns how many ran. It is the test pump: calling it repeatedly never
// waits for future timers.
func (l *Loop) RunMaxIterations(n int) int {
	ran := 0
	for ran < n && l.runOne(time.Now()) {
		ran++
	}
	return ran
}

// RunUntil pumps the loop until pred returns true or timeout elapses,
// sleeping between turns when nothing is ready. It returns the final value
// of pred.
func (l *Loop) RunUntil(timeout time.Duration, pred func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if pred() {
			return true
		}
		if !l.runOne(time.Now()) {
			if time.Now().After(deadline) {
				return pred()
			}
			time.Sleep(l.idleWait(deadline))
		}
	}
}

// idleWait picks how long to sleep when the loop has nothing ready: until
// the nearest timer, the deadline, or a short tick, whichever is soonest.
func (l *Loop) idleWait(deadline time.Time) time.Duration {
	const tick = time.Millisecond
	wait := time.Until(deadline)
	if wait > tick {
		wait = tick
	}
	l.mu.Lock()
	if l.timers.Len() > 0 {
		if d := time.Until(l.timers[0].when); d < wait {
			wait = d
		}
	}
	l.mu.Unlock()
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Run pumps the loop until ctx is done, blocking while no work is ready.
// This is the production driver; it must be the only goroutine pumping.
func (l *Loop) Run(ctx context.Context) {
	for {
		if l.runOne(time.Now()) {
			continue
		}
		var timer *time.Timer
		var due <-chan time.Time
		l.mu.Lock()
		if l.timers.Len() > 0 {
			timer = time.NewTimer(time.Until(l.timers[0].when))
			due = timer.C
		}
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-l.wake:
		case <-due:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (l *Loop) wakeUp() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// timerHeap orders timers by deadline, earliest first.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) { e := x.(*timerEntry); e.index = len(*h); *h = append(*h, e) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
