package ingestion

import "errors"

var (
	// ErrContentRepositoryRequired is returned when a content repository is not provided.
	ErrContentRepositoryRequired = errors.New("content repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrChunkIndexRequired is returned when a chunk index is not provided.
	ErrChunkIndexRequired = errors.New("chunk index required")

	// ErrExtractorsRequired is returned when an extractor registry is not provided.
	ErrExtractorsRequired = errors.New("extractor registry required")

	// ErrOrchestratorRequired is returned when an embedding orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("embedding orchestrator required")

	// ErrRequestRequired is returned when an ingestion request is nil.
	ErrRequestRequired = errors.New("ingestion request required")

	// ErrNotRetryable is returned when retrying an item that is not failed
	// or has no source URL to re-extract from.
	ErrNotRetryable = errors.New("item not retryable")
)
