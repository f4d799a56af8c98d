// Package ingestion provides pipeline orchestration for processing content items.
//
// The Pipeline type manages the ingestion workflow for content items, including:
//   - Creating the item record in processing state
//   - Extracting indexable text via the type's extractor
//   - Chunking the text, structure-aware for long documents
//   - Embedding all chunks in batches
//   - Persisting chunks with their vectors in one write
//
// Items are processed concurrently using a worker pool. Errors during async
// processing are recorded on the item and logged, never returned to the caller.
package ingestion
