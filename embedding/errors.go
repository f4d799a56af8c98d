package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbedFailed indicates the external embedding capability failed for
	// a batch. The orchestrator never retries; the whole call aborts.
	ErrEmbedFailed = errors.New("embedding failed")

	// ErrCountMismatch indicates the provider returned a different number of
	// vectors than texts sent.
	ErrCountMismatch = errors.New("embedding result mismatch")
)
