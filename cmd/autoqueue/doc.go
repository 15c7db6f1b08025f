// Package main hosts the autoqueue CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the autoqueued daemon: triggering analysis, inspecting
// acoustic neighbours, querying cached provider similarity, invalidating
// records, and configuration scaffolding. It centralizes configuration
// resolution and daemon address discovery so subcommands can focus on
// output formatting.
package main
