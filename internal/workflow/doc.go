// Package workflow implements the cart-to-fulfillment step engine.
//
// The engine holds one immutable state value (active step, per-step status,
// per-step form data) and changes it only through named, guarded commands
// resolved against a transition table. That structure makes illegal
// combinations, such as two active steps, unrepresentable rather than merely
// unlikely.
//
// External collaborators plug in through small interfaces: Cart for the
// persisted asset selection, Fulfiller for archive packaging. Clearance runs
// through a rights.Checker, which owns the at-most-once and single-flight
// guarantees. Back-navigation never discards user input; in-progress form
// values are written into the step data store before a transition and read
// back when the step is re-entered.
package workflow
