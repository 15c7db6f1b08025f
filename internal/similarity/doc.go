// Package similarity persists acoustic fingerprints and cached
// provider similarity edges in an embedded SQLite database. Every
// statement flows through a single worker goroutine so interactive
// reads can overtake batched writes by priority.
package similarity
