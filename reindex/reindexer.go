// Copyright 2025 Hoard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hoardhq/hoard/ai"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds every completed content item's chunks, e.g. after
// switching embedding models. Items are processed one at a time; a failure
// on one item aborts the run so a partial reindex is visible immediately.
type Reindexer struct {
	contentRepo storage.ContentRepository
	chunkRepo   storage.ChunkRepository
	index       storage.ChunkIndex
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *ChunkBatchProcessor
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(
	contentRepo storage.ContentRepository,
	chunkRepo storage.ChunkRepository,
	index storage.ChunkIndex,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewChunkBatchProcessor(chunkRepo, index, embedder, config.MaxRetries, config.RetryDelay)

	return &Reindexer{
		contentRepo: contentRepo,
		chunkRepo:   chunkRepo,
		index:       index,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		processor:   processor,
	}
}

// Run executes the reindexing operation over all completed items.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	items, err := r.contentRepo.GetContentItemsByStatus(ctx, core.StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to query items: %w", err)
	}

	totalItems := len(items)
	if totalItems == 0 {
		fmt.Fprintf(r.progress, "No completed items found in database (0 items)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d items\n", totalItems)

	tracker := NewProgressTracker(r.progress, totalItems, r.config.ReportInterval)
	tracker.Start()

	totalChunks := 0
	for i, item := range items {
		chunks, err := r.chunkRepo.GetChunksByContent(ctx, item.Id)
		if err != nil {
			return fmt.Errorf("failed to load chunks for item %d: %w", item.Id, err)
		}

		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to reindex item %d: %w", item.Id, err)
		}

		totalChunks += len(chunks)
		tracker.Update(i + 1)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d items (%d chunks) in %v (%.1f items/sec)\n",
		totalItems, totalChunks, elapsed.Round(time.Second), float64(totalItems)/elapsed.Seconds())

	return nil
}
