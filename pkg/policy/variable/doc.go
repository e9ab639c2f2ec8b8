// Package variable defines the data-source capability consumed by the
// evaluation context.
//
// A variable is a named, typed, possibly time-varying input to policy
// decisions. Its mode tells the evaluation context how the value can
// change:
//
//   - ModeConst: the value never changes after the first successful read.
//   - ModePoll: the value may change only when re-queried; PollInterval is
//     the minimum time before a re-query could yield something new.
//   - ModeAsync: changes are pushed; observers registered with AddObserver
//     are signalled whenever the underlying value changes.
//
// Variables outlive any single evaluation context; a context only
// references them for the duration of one decision pass.
package variable
