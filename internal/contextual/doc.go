// Package contextual scores candidate songs against the listening
// moment. A Snapshot freezes the clock, location, and recent-play
// details once per decision; predicates reward songs that fit the
// moment and penalize songs tied to a moment that isn't now.
package contextual
