package storage

import (
	"context"

	"github.com/hoardhq/hoard/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ContentRepository provides operations for managing content items.
type ContentRepository interface {
	Repository
	// AddContentItems adds one or more content items to storage.
	// Items with a source URL get a content-based ID derived from it;
	// items without one get a new ID from the sequence.
	// Sets CreatedAt and UpdatedAt timestamps and defaults Status to pending.
	// Returns the items with generated IDs and timestamps populated.
	AddContentItems(ctx context.Context, items ...*core.ContentItem) ([]*core.ContentItem, error)

	// UpdateContentItems updates existing content items.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any item doesn't exist.
	UpdateContentItems(ctx context.Context, items ...*core.ContentItem) ([]*core.ContentItem, error)

	// DeleteContentItems removes content items by their IDs.
	// Also removes associated indices. Chunks are not touched; callers
	// delete them through the ChunkRepository.
	// Returns ErrNotFound if any item doesn't exist.
	DeleteContentItems(ctx context.Context, ids ...core.ID) error

	// GetContentItem retrieves a single content item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetContentItem(ctx context.Context, id core.ID) (*core.ContentItem, error)

	// GetContentItems retrieves multiple content items by their IDs.
	// Returns only the items that exist (no error for missing items).
	GetContentItems(ctx context.Context, ids ...core.ID) ([]*core.ContentItem, error)

	// GetContentItemsByStatus retrieves all content items with the given status.
	GetContentItemsByStatus(ctx context.Context, status core.Status) ([]*core.ContentItem, error)

	// GetRecentContentItems retrieves the N most recently created completed items,
	// ordered by creation time descending.
	GetRecentContentItems(ctx context.Context, limit int) ([]*core.ContentItem, error)
}

// ChunkRepository provides operations for managing chunks.
type ChunkRepository interface {
	Repository
	// AddChunks adds one or more chunks to storage.
	// Generates new IDs from the sequence and maintains the content index.
	// Returns the chunks with generated IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks, typically to replace vectors.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByContent retrieves all chunks of a content item,
	// ordered by chunk index.
	GetChunksByContent(ctx context.Context, contentID core.ID) ([]*core.Chunk, error)

	// DeleteChunksByContent removes all chunks of a content item.
	// Removing chunks of an unknown item is not an error.
	DeleteChunksByContent(ctx context.Context, contentID core.ID) error
}

// ChunkIndex answers nearest-neighbor queries over chunk vectors.
// Implementations may keep vectors in the primary store or mirror them
// into a dedicated vector database.
type ChunkIndex interface {
	// IndexChunks makes the given chunks (with vectors) searchable.
	IndexChunks(ctx context.Context, chunks ...*core.Chunk) error

	// RemoveContent drops all indexed chunks of a content item.
	RemoveContent(ctx context.Context, contentID core.ID) error

	// FindBestMatches returns, for every content item with at least one
	// chunk scoring above minSimilarity, that item's single best-scoring
	// chunk. Results are ordered by score descending.
	FindBestMatches(ctx context.Context, vector []float32, minSimilarity float32) ([]*core.ChunkMatch, error)

	// Close releases index resources.
	Close() error
}
