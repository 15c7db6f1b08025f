// Package catalog defines the read-only song view and the player
// adapter contract the orchestrator consumes, plus an in-memory
// implementation used by tests and the demo player.
package catalog
