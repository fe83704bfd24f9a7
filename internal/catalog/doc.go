// Package catalog defines the media-asset domain model shared by the cart
// store, the rights-clearance components, and the workflow engine.
//
// The workflow never creates or destroys assets; it annotates them with
// clearance verdicts and filters them into authorized and restricted sets.
// Snapshot is the ordered, copy-on-write view of cart contents that all
// asynchronous completions write through, so no caller ever observes a
// partially updated cart.
package catalog
