package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/hoardhq/hoard/chunking"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/embedding"
	"github.com/hoardhq/hoard/extract"
	"github.com/hoardhq/hoard/storage"
	"github.com/panjf2000/ants/v2"
)

// maxErrorMessageBytes bounds the error text persisted on a failed item.
const maxErrorMessageBytes = 500

// Pipeline orchestrates the ingestion of content items: extract, chunk,
// embed, persist. Each item is one unit of work; independent items run
// concurrently on the worker pool with no shared state beyond storage.
type Pipeline struct {
	contentRepo  storage.ContentRepository
	chunkRepo    storage.ChunkRepository
	index        storage.ChunkIndex
	extractors   *extract.Registry
	orchestrator *embedding.Orchestrator
	pool         *ants.Pool
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	contentRepo storage.ContentRepository,
	chunkRepo storage.ChunkRepository,
	index storage.ChunkIndex,
	extractors *extract.Registry,
	orchestrator *embedding.Orchestrator,
	opts ...Option,
) (*Pipeline, error) {
	if contentRepo == nil {
		return nil, ErrContentRepositoryRequired
	}
	if chunkRepo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if index == nil {
		return nil, ErrChunkIndexRequired
	}
	if extractors == nil {
		return nil, ErrExtractorsRequired
	}
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		contentRepo:  contentRepo,
		chunkRepo:    chunkRepo,
		index:        index,
		extractors:   extractors,
		orchestrator: orchestrator,
		pool:         pool,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Request describes one content item to ingest.
type Request struct {
	Type        core.ContentType
	SourceURL   string
	Title       string
	Description string
	Metadata    core.ItemMetadata // optional typed payload, validated here
}

// Ingest creates the content item and processes it asynchronously.
// The returned item is in processing state; its final state lands in
// storage when the pipeline finishes. Processing errors are recorded on
// the item, never returned here.
func (p *Pipeline) Ingest(ctx context.Context, req *Request) (*core.ContentItem, error) {
	item, err := p.createItem(ctx, req)
	if err != nil {
		return nil, err
	}

	id := item.Id
	err = p.pool.Submit(func() {
		if err := p.process(context.Background(), id); err != nil {
			p.logger.Error("error ingesting content", "id", id, "err", err)
		}
	})
	if err != nil {
		// The worker never ran; fail the item instead of leaving it
		// stuck in processing.
		p.logger.Error("error scheduling ingestion", "id", id, "err", err)
		p.markFailed(ctx, item, fmt.Errorf("scheduling ingestion: %w", err))
	}

	return item, nil
}

// IngestAndWait creates the content item and processes it synchronously.
// Returns the item in its final state. Like Ingest, processing failures
// are recorded on the item; the error return covers creation and lookup.
func (p *Pipeline) IngestAndWait(ctx context.Context, req *Request) (*core.ContentItem, error) {
	item, err := p.createItem(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := p.process(ctx, item.Id); err != nil {
		p.logger.Error("error ingesting content", "id", item.Id, "err", err)
	}

	return p.contentRepo.GetContentItem(ctx, item.Id)
}

// Retry re-runs ingestion for a failed item that still has a source URL.
// Existing chunks are deleted and rebuilt from fresh extraction. Items
// without a source (uploads) are not retryable and must be re-uploaded.
// Concurrent retries of the same item are not guarded; serialize per item.
func (p *Pipeline) Retry(ctx context.Context, id core.ID) (*core.ContentItem, error) {
	item, err := p.contentRepo.GetContentItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Retryable() {
		return nil, fmt.Errorf("%w: item %d has status %s", ErrNotRetryable, id, item.Status)
	}

	item.Status = core.StatusProcessing
	item.ErrorMessage = ""
	if _, err := p.contentRepo.UpdateContentItems(ctx, item); err != nil {
		return nil, err
	}

	if err := p.process(ctx, id); err != nil {
		p.logger.Error("error retrying content", "id", id, "err", err)
	}

	return p.contentRepo.GetContentItem(ctx, id)
}

// createItem validates the request and persists the item in processing
// state with no chunks.
func (p *Pipeline) createItem(ctx context.Context, req *Request) (*core.ContentItem, error) {
	if req == nil {
		return nil, ErrRequestRequired
	}
	if err := core.ValidateContentType(req.Type); err != nil {
		return nil, err
	}
	if err := core.ValidateMetadataFor(req.Type, req.Metadata); err != nil {
		return nil, err
	}

	var metadata map[string]string
	if req.Metadata != nil {
		metadata = req.Metadata.Flatten()
	}

	item := &core.ContentItem{
		Type:        req.Type,
		SourceURL:   req.SourceURL,
		Title:       req.Title,
		Description: req.Description,
		Status:      core.StatusProcessing,
		Metadata:    metadata,
	}

	added, err := p.contentRepo.AddContentItems(ctx, item)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// process runs one item through extract, chunk, embed and persist.
// Any stage error marks the item failed; the returned error mirrors what
// was recorded.
func (p *Pipeline) process(ctx context.Context, id core.ID) error {
	item, err := p.contentRepo.GetContentItem(ctx, id)
	if err != nil {
		return err
	}

	extractor, err := p.extractors.For(item.Type)
	if err != nil {
		return p.markFailed(ctx, item, fmt.Errorf("extraction: %w", err))
	}

	result, err := extractor.Extract(ctx, item)
	if err != nil {
		return p.markFailed(ctx, item, fmt.Errorf("extraction: %w", err))
	}

	if err := core.ValidateMetadataFor(item.Type, result.Metadata); err != nil {
		return p.markFailed(ctx, item, err)
	}
	p.applyExtraction(item, result)

	pieces := splitText(result.FullText)
	if len(pieces) == 0 {
		return p.markFailed(ctx, item, fmt.Errorf("extraction: %w", extract.ErrEmptyContent))
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Content
	}

	vectors, err := p.orchestrator.EmbedAll(ctx, texts)
	if err != nil {
		return p.markFailed(ctx, item, fmt.Errorf("embedding: %w", err))
	}

	// Retries rebuild the chunk set from scratch; delete-then-insert keeps
	// the set consistent with this extraction only.
	if err := p.chunkRepo.DeleteChunksByContent(ctx, item.Id); err != nil {
		return p.markFailed(ctx, item, err)
	}
	if err := p.index.RemoveContent(ctx, item.Id); err != nil {
		return p.markFailed(ctx, item, err)
	}

	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &core.Chunk{
			ContentId:   item.Id,
			Index:       piece.Index,
			Text:        piece.Content,
			Vector:      vectors[i],
			StartOffset: piece.StartOffset,
			EndOffset:   piece.EndOffset,
			Section:     piece.Section,
		}
	}

	if _, err := p.chunkRepo.AddChunks(ctx, chunks...); err != nil {
		return p.markFailed(ctx, item, err)
	}
	if err := p.index.IndexChunks(ctx, chunks...); err != nil {
		return p.markFailed(ctx, item, err)
	}

	item.Status = core.StatusCompleted
	item.ErrorMessage = ""
	item.CompletedAt = time.Now().UTC()
	if _, err := p.contentRepo.UpdateContentItems(ctx, item); err != nil {
		return err
	}

	p.logger.Info("content ingested", "id", item.Id, "type", item.Type, "chunks", len(chunks))
	return nil
}

// applyExtraction copies extracted fields onto the item without clobbering
// anything the caller supplied explicitly.
func (p *Pipeline) applyExtraction(item *core.ContentItem, result *extract.Result) {
	if item.Title == "" {
		item.Title = result.Title
	}
	if item.Description == "" {
		item.Description = result.Description
	}
	if result.ThumbnailURL != "" {
		if item.Metadata == nil {
			item.Metadata = make(map[string]string)
		}
		item.Metadata["thumbnail_url"] = result.ThumbnailURL
	}
	if result.Metadata != nil {
		flat := result.Metadata.Flatten()
		if item.Metadata == nil {
			item.Metadata = make(map[string]string, len(flat))
		}
		for k, v := range flat {
			if _, exists := item.Metadata[k]; !exists {
				item.Metadata[k] = v
			}
		}
	}
}

// splitText picks the chunking strategy by text length: short texts get a
// flat split, long ones the structure-aware document split.
func splitText(text string) []chunking.Chunk {
	if len(text) > chunking.LongDocumentThreshold {
		return chunking.SplitDocument(text, chunking.DefaultChunkSize, chunking.DefaultOverlap, true)
	}
	return chunking.Split(text, chunking.DefaultChunkSize, chunking.DefaultOverlap)
}

// markFailed records the failure on the item. The secondary write is best
// effort: its own failure is logged, never propagated, so the error path
// cannot crash on error recording.
func (p *Pipeline) markFailed(ctx context.Context, item *core.ContentItem, cause error) error {
	item.Status = core.StatusFailed
	item.ErrorMessage = truncateError(cause.Error())
	item.Attempts++

	if _, err := p.contentRepo.UpdateContentItems(ctx, item); err != nil {
		p.logger.Error("error recording ingestion failure", "id", item.Id, "err", err)
	}

	return cause
}

// truncateError bounds the persisted error text.
func truncateError(msg string) string {
	if len(msg) <= maxErrorMessageBytes {
		return msg
	}
	return msg[:maxErrorMessageBytes]
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
