// Package decision defines the records the engine emits for every
// completed decision pass, and the storage contract they are persisted
// through. Records are an audit trail: what was decided, by which policy,
// what woke the pass up, and how long it took.
package decision
