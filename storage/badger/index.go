package badger

import (
	"context"

	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
)

// ChunkIndex implements storage.ChunkIndex over the BadgerDB backend.
// Chunk records already carry their vectors, so indexing and removal are
// implicit in the chunk repository writes; queries scan the records.
type ChunkIndex struct {
	backend *Backend
}

var _ storage.ChunkIndex = (*ChunkIndex)(nil)

// NewChunkIndex creates a ChunkIndex backed by the given backend.
func NewChunkIndex(backend *Backend) *ChunkIndex {
	return &ChunkIndex{backend: backend}
}

// IndexChunks is a no-op: vectors live in the primary chunk records.
func (x *ChunkIndex) IndexChunks(ctx context.Context, chunks ...*core.Chunk) error {
	return nil
}

// RemoveContent is a no-op: deleting the chunk records removes them from
// the scan.
func (x *ChunkIndex) RemoveContent(ctx context.Context, contentID core.ID) error {
	return nil
}

// FindBestMatches delegates to the backend's brute-force scan.
func (x *ChunkIndex) FindBestMatches(ctx context.Context, vector []float32, minSimilarity float32) ([]*core.ChunkMatch, error) {
	return x.backend.FindBestMatches(ctx, vector, minSimilarity)
}

// Close is a no-op; the backend owns the database handle.
func (x *ChunkIndex) Close() error {
	return nil
}
