// Package services defines the shared error taxonomy for components that talk
// to external systems. Sentinel errors tag failures by class so the workflow
// engine can decide whether a step failed outright or merely needs corrected
// user input.
package services
