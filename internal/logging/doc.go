// Package logging constructs the application slog logger and provides typed
// attribute helpers plus the standard field names used across components.
//
// Components receive a *slog.Logger scoped with NewComponentLogger; code that
// runs without a logger (tests, library consumers) uses NewNop so call sites
// never nil-check.
package logging
