package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/hoardhq/hoard/ai"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
)

// ChunkBatchProcessor handles embedding regeneration for one item's chunks.
type ChunkBatchProcessor struct {
	chunkRepo      storage.ChunkRepository
	index          storage.ChunkIndex
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewChunkBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewChunkBatchProcessor(chunkRepo storage.ChunkRepository, index storage.ChunkIndex, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *ChunkBatchProcessor {
	return &ChunkBatchProcessor{
		chunkRepo:      chunkRepo,
		index:          index,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process regenerates embeddings for a batch of chunks and updates them in
// the database and the index. Vectors are normalized after embedding to
// ensure compatibility with cosine similarity.
func (bp *ChunkBatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	// Normalize vectors and assign to chunks
	for i := range chunks {
		chunks[i].Vector = NormalizeVector(embeddings[i])
	}

	// Update chunks in database
	if _, err := bp.chunkRepo.UpdateChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	// Refresh the index
	if err := bp.index.IndexChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to reindex chunks: %w", err)
	}

	return nil
}
