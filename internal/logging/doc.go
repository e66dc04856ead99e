// Package logging builds the slog loggers used across the daemon and CLI.
//
// Output format (console or json) and level come from configuration. The
// console handler renders a compact single-line format with the component
// attribute promoted into the message prefix; the json handler emits
// machine-readable records for log shippers. Both write to stdout and, when a
// log directory is configured, to a file under it.
//
// Pipeline code should obtain per-component loggers through
// NewComponentLogger so records stay attributable after hand-off to detached
// recognition and delivery tasks.
package logging
