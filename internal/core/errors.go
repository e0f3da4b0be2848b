package core

import "errors"

// Error taxonomy for the ingestion and search paths. Handlers map these to
// response codes; everything else is reported as an internal failure.
var (
	// ErrNoSource: the request named neither a storage key nor a URL.
	ErrNoSource = errors.New("no document source provided")

	// ErrSourceNotFound: the referenced source does not exist. Terminal.
	ErrSourceNotFound = errors.New("source not found")

	// ErrRetrievalUnavailable: storage or the network is down; the caller
	// may retry the whole request.
	ErrRetrievalUnavailable = errors.New("source retrieval unavailable")

	// ErrNoExtractableContent: the document is corrupt, unparseable, or the
	// partitioner produced zero elements. Terminal for the request.
	ErrNoExtractableContent = errors.New("no content could be extracted")

	// ErrInfrastructure: a network dependency (embedding provider, vector
	// store) failed beyond the local retry budget. Retryable by the caller.
	ErrInfrastructure = errors.New("infrastructure unavailable")

	// ErrDimensionMismatch: an embedding does not match the collection's
	// declared dimension. Fatal, never retried.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
