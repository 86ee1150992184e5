package chat

import "errors"

// Failure kinds surfaced by the core. Callers classify with errors.Is;
// nothing below is retried internally.
var (
	// ErrEmbeddingFailure means the embedding endpoint was unreachable,
	// rate-limited, or returned malformed output.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrSchemaMismatch means a vector's dimensionality or a field shape
	// does not match the store's configured schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidArgument means a caller-supplied value violates a stated
	// precondition (non-positive k, empty text, unknown provider tag).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout means a call to an external collaborator exceeded its bound.
	ErrTimeout = errors.New("timeout")

	// ErrStoreUnavailable means the backing store is unreachable or rejected
	// the operation for a reason other than schema.
	ErrStoreUnavailable = errors.New("store unavailable")
)
