// Package workflow drives automatic queueing. The Manager reacts to
// player events and, when the queue runs short, walks a cascade of
// similarity sources — pending requests, acoustic neighbours, similar
// tracks, similar artists, shared tags — enqueueing the best allowed
// candidate each round.
package workflow
