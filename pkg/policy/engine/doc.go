// Package engine drives policy decision passes.
//
// A Policy reads variables through an evaluation context and returns a
// Verdict. When the verdict is StatusAskAgainLater the Evaluator suspends
// the decision through the context's wait machinery and re-runs the policy,
// with a fresh context, when one of the consulted inputs could have
// changed. Terminal verdicts are recorded, counted, and handed to the
// configured decision callback.
package engine
