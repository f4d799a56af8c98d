// Package reindex regenerates chunk embeddings for all completed content
// items, typically after an embedding model change. Chunks keep their text
// and offsets; only vectors are replaced, in the database and the index.
package reindex
