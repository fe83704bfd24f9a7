// Package main hosts the clearcart CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into cart
// maintenance, clearance runs against the rights authority, archive
// fulfillment, and configuration scaffolding. It centralizes configuration
// resolution, store access, and logging setup so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
