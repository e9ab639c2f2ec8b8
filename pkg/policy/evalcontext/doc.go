// Package evalcontext implements the per-pass evaluation context at the
// heart of the decision engine.
//
// A Context serves exactly one decision pass. Policy logic reads variables
// through Value, which memoizes: every read of a variable within the pass
// returns the same snapshot, even if the underlying source changes
// mid-pass. Absence ("no value yet") is never memoized; a later read in the
// same pass may succeed.
//
// When policy logic concludes "not yet", it calls RunOnValueChangeOrTimeout
// to suspend the decision until the earliest moment new information could
// change the outcome: a change signal from any async variable it consulted,
// or the minimum poll interval among the poll variables it consulted,
// whichever comes first. Exactly one of the two triggers fires the stored
// callback, always on a later loop turn, never inline with the trigger.
//
// Teardown is deterministic: Close (or the first resolution) detaches the
// context from every observed variable and cancels the pending timer before
// anything else happens, so no notification can arrive afterwards.
package evalcontext
