package similarity

import "errors"

var (
	// ErrAnalysisFailed marks malformed or unreadable audio. The track's
	// analysis is abandoned; nothing is retried.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrExternalLookup marks a network or response failure from the
	// similarity provider. Callers degrade to an empty result.
	ErrExternalLookup = errors.New("external lookup failed")

	// ErrProviderDisabled is returned once a malformed provider response
	// has permanently disabled external calls for this process.
	ErrProviderDisabled = errors.New("similarity provider disabled")

	// ErrStoreTimeout is returned when a store submission is abandoned
	// because its context expired before the worker replied.
	ErrStoreTimeout = errors.New("store query timed out")

	// ErrStoreClosed is returned for submissions after Close.
	ErrStoreClosed = errors.New("store closed")

	// ErrNotFound is returned when an identity record does not exist.
	ErrNotFound = errors.New("not found")
)
