// Package logging assembles structured slog loggers and formatting helpers used
// across vpxmerge.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so audit code can tag log lines with the batch
// run identifier, the table being processed, and the current step. The console
// handler renders a compact header per line and collapses repeated fields per
// table so batch runs stay readable.
//
// Use NewFromConfig from commands and NewNop in tests and wiring code that
// cannot fail.
package logging
