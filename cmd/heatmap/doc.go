// Package main hosts the heatmap CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into HTTP calls against
// the heatmap daemon: show lookups, refreshes, discovery listings, debug
// scrapes and maintenance sweeps. It also starts and stops the daemon
// process and scaffolds configuration. Heavy lifting belongs in the internal
// packages; commands here only resolve configuration and render results.
package main
