package sources

import (
	"time"

	"mercator-hq/ganymede/pkg/policy/variable"
)

// NewClock returns a poll-mode variable exposing the wall clock at the
// given granularity. The poll interval equals the granularity: re-querying
// sooner cannot observe a different value.
func NewClock(name string, granularity time.Duration) *variable.PollFunc[time.Time] {
	return variable.NewPollFunc(name, granularity, func() (time.Time, bool) {
		return time.Now().Truncate(granularity), true
	})
}

// Static returns a const-mode variable holding a fixed engine input.
func Static[T any](name string, value T) *variable.Const[T] {
	return variable.NewConst(name, value)
}
