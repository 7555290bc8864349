// Package logs tails the daemon log file for the CLI.
//
// Reads are bounded in memory, a negative offset means "last N lines", and
// follow mode polls until new lines arrive or the context ends. When the
// rotating writer swaps the file for a shorter one, reading restarts from the
// top of the new file. Filter narrows output by level, component, show or
// event type for both the console and JSON line formats.
package logs
