// Package logging centralizes slog construction and shared attribute
// helpers. It provides a console handler for interactive use, a JSON
// handler for files, and component loggers so every subsystem tags its
// records consistently.
package logging
