// Package daemon hosts the similarity cache service behind a local
// HTTP API. A file lock enforces a single instance per data directory;
// the Client type gives player integrations a bounded-timeout view of
// the same operations.
package daemon
