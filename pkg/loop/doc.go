// Package loop provides the single-threaded cooperative event loop that
// drives policy evaluation.
//
// All variable reads, change notifications, and timer callbacks execute on
// one loop goroutine, never concurrently with each other. Work enters the
// loop through Post (next turn) and PostDelayed (one-shot timer); Post and
// PostDelayed are safe to call from any goroutine, while dispatch always
// happens on the goroutine pumping the loop.
//
// Production code drives the loop with Run. Tests pump it deterministically
// with RunMaxIterations and RunUntil.
package loop
