package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/ai/mock"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/embedding"
	"github.com/hoardhq/hoard/extract"
	"github.com/hoardhq/hoard/storage"
	"github.com/hoardhq/hoard/storage/badger"
)

// stubExtractor serves canned extraction results for one content type.
type stubExtractor struct {
	contentType core.ContentType
	result      *extract.Result
	err         error
	calls       int
}

func (s *stubExtractor) Type() core.ContentType { return s.contentType }

func (s *stubExtractor) Extract(_ context.Context, _ *core.ContentItem) (*extract.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type testEnv struct {
	pipeline    *Pipeline
	contentRepo storage.ContentRepository
	chunkRepo   storage.ChunkRepository
	extractor   *stubExtractor
}

func setupPipeline(t *testing.T, extractor *stubExtractor) *testEnv {
	t.Helper()

	contentRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		contentRepo.Close()
		backend.Close()
	})

	orchestrator, err := embedding.NewOrchestrator(mock.NewMockEmbedder(), embedding.WithBatchPause(0))
	require.NoError(t, err)
	t.Cleanup(orchestrator.Release)

	pipeline, err := NewPipeline(contentRepo, chunkRepo, badger.NewChunkIndex(backend), extract.NewRegistry(extractor), orchestrator)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &testEnv{
		pipeline:    pipeline,
		contentRepo: contentRepo,
		chunkRepo:   chunkRepo,
		extractor:   extractor,
	}
}

func webpageStub(text string) *stubExtractor {
	return &stubExtractor{
		contentType: core.TypeWebpage,
		result: &extract.Result{
			Title:       "Extracted Title",
			Description: "Extracted description",
			FullText:    text,
			Metadata:    core.WebpageMetadata{Domain: "example.com"},
		},
	}
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	_, err := NewPipeline(nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrContentRepositoryRequired)
}

func TestIngestAndWaitCompletes(t *testing.T) {
	env := setupPipeline(t, webpageStub("Some page text that is long enough to matter. It has two sentences."))
	ctx := context.Background()

	item, err := env.pipeline.IngestAndWait(ctx, &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/post",
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, item.Status)
	assert.Equal(t, "Extracted Title", item.Title)
	assert.Equal(t, "Extracted description", item.Description)
	assert.Empty(t, item.ErrorMessage)
	assert.False(t, item.CompletedAt.IsZero())
	assert.Equal(t, "example.com", item.Metadata["domain"])

	chunks, err := env.chunkRepo.GetChunksByContent(ctx, item.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Text)
		assert.NotEmpty(t, c.Vector, "chunk %d has no vector", c.Index)
		assert.Equal(t, item.Id, c.ContentId)
	}
}

func TestIngestAndWaitKeepsCallerFields(t *testing.T) {
	env := setupPipeline(t, webpageStub("body text"))

	item, err := env.pipeline.IngestAndWait(context.Background(), &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/post",
		Title:     "Caller Title",
	})
	require.NoError(t, err)

	// Extracted title must not clobber the caller's
	assert.Equal(t, "Caller Title", item.Title)
	assert.Equal(t, "Extracted description", item.Description)
}

func TestIngestRejectsInvalidType(t *testing.T) {
	env := setupPipeline(t, webpageStub("text"))

	_, err := env.pipeline.IngestAndWait(context.Background(), &Request{Type: "podcast"})
	assert.ErrorIs(t, err, core.ErrInvalidContentType)
}

func TestIngestRejectsMismatchedMetadata(t *testing.T) {
	env := setupPipeline(t, webpageStub("text"))

	_, err := env.pipeline.IngestAndWait(context.Background(), &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com",
		Metadata:  core.ImageMetadata{Format: "png"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidMetadata)
}

func TestIngestSchedulingFailureMarksFailed(t *testing.T) {
	env := setupPipeline(t, webpageStub("text"))
	ctx := context.Background()

	// A released pool rejects new work; the item must not be left
	// sitting in processing.
	env.pipeline.Release()

	item, err := env.pipeline.Ingest(ctx, &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/late",
	})
	require.NoError(t, err)

	stored, err := env.contentRepo.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "scheduling")
	assert.Equal(t, 1, stored.Attempts)
}

func TestIngestExtractionFailureMarksFailed(t *testing.T) {
	env := setupPipeline(t, &stubExtractor{
		contentType: core.TypeWebpage,
		err:         errors.New("connection refused"),
	})

	item, err := env.pipeline.IngestAndWait(context.Background(), &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/down",
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, item.Status)
	assert.Contains(t, item.ErrorMessage, "extraction")
	assert.Contains(t, item.ErrorMessage, "connection refused")
	assert.Equal(t, 1, item.Attempts)
}

func TestIngestUnsupportedTypeMarksFailed(t *testing.T) {
	// Registry only knows webpages; a video item cannot be processed.
	env := setupPipeline(t, webpageStub("text"))

	item, err := env.pipeline.IngestAndWait(context.Background(), &Request{
		Type:      core.TypeVideo,
		SourceURL: "https://example.com/watch?v=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, item.Status)
	assert.Contains(t, item.ErrorMessage, extract.ErrUnsupportedType.Error())
}

func TestIngestEmptyExtractionMarksFailed(t *testing.T) {
	env := setupPipeline(t, &stubExtractor{
		contentType: core.TypeWebpage,
		result:      &extract.Result{FullText: "   "},
	})

	item, err := env.pipeline.IngestAndWait(context.Background(), &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/blank",
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, item.Status)
	assert.Contains(t, item.ErrorMessage, extract.ErrEmptyContent.Error())
}

func TestIngestErrorMessageTruncated(t *testing.T) {
	env := setupPipeline(t, &stubExtractor{
		contentType: core.TypeWebpage,
		err:         errors.New(strings.Repeat("x", 2000)),
	})

	item, err := env.pipeline.IngestAndWait(context.Background(), &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/verbose",
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, item.Status)
	assert.LessOrEqual(t, len(item.ErrorMessage), maxErrorMessageBytes)
}

func TestRetryRebuildsChunks(t *testing.T) {
	extractor := &stubExtractor{
		contentType: core.TypeWebpage,
		err:         errors.New("transient outage"),
	}
	env := setupPipeline(t, extractor)
	ctx := context.Background()

	item, err := env.pipeline.IngestAndWait(ctx, &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/flaky",
	})
	require.NoError(t, err)
	require.Equal(t, core.StatusFailed, item.Status)

	// The source recovers
	extractor.err = nil
	extractor.result = &extract.Result{Title: "Recovered", FullText: "now there is text to index"}

	retried, err := env.pipeline.Retry(ctx, item.Id)
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, retried.Status)
	assert.Empty(t, retried.ErrorMessage)

	chunks, err := env.chunkRepo.GetChunksByContent(ctx, item.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestRetryReplacesOldChunks(t *testing.T) {
	extractor := webpageStub("original body text for the first pass")
	env := setupPipeline(t, extractor)
	ctx := context.Background()

	item, err := env.pipeline.IngestAndWait(ctx, &Request{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/page",
	})
	require.NoError(t, err)
	require.Equal(t, core.StatusCompleted, item.Status)

	// Force a failure so the item becomes retryable, then recover with new text
	extractor.err = errors.New("outage")
	_, err = env.pipeline.Retry(ctx, item.Id)
	assert.ErrorIs(t, err, ErrNotRetryable) // completed items cannot be retried

	stored, err := env.contentRepo.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	stored.Status = core.StatusFailed
	stored.ErrorMessage = "outage"
	_, err = env.contentRepo.UpdateContentItems(ctx, stored)
	require.NoError(t, err)

	extractor.err = nil
	extractor.result.FullText = "replacement body text for the second pass"

	_, err = env.pipeline.Retry(ctx, item.Id)
	require.NoError(t, err)

	chunks, err := env.chunkRepo.GetChunksByContent(ctx, item.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "replacement body text for the second pass", chunks[0].Text)
}

func TestRetryRejectsUploads(t *testing.T) {
	env := setupPipeline(t, webpageStub("text"))
	ctx := context.Background()

	// An upload with no source URL, manually failed
	item := &core.ContentItem{
		Type:         core.TypeImage,
		Title:        "broken upload",
		Status:       core.StatusFailed,
		ErrorMessage: "no caption",
	}
	_, err := env.contentRepo.AddContentItems(ctx, item)
	require.NoError(t, err)

	_, err = env.pipeline.Retry(ctx, item.Id)
	assert.ErrorIs(t, err, ErrNotRetryable)
}
