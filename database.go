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


package hoard

import (
	"io"
	"log/slog"
	"os"

	"github.com/hoardhq/hoard/ai"
	"github.com/hoardhq/hoard/ai/openai"
	"github.com/hoardhq/hoard/embedding"
	"github.com/hoardhq/hoard/extract"
	"github.com/hoardhq/hoard/ingestion"
	"github.com/hoardhq/hoard/reindex"
	"github.com/hoardhq/hoard/search"
	"github.com/hoardhq/hoard/storage"
	"github.com/hoardhq/hoard/storage/badger"
)

// Database bundles the storage backend, repositories, vector index and AI
// provider behind one handle.
type Database struct {
	backend     *badger.Backend
	contentRepo storage.ContentRepository
	chunkRepo   storage.ChunkRepository
	index       storage.ChunkIndex
	provider    ai.Provider
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	index    storage.ChunkIndex
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithChunkIndex installs an external vector index (e.g. Qdrant) instead
// of the built-in BadgerDB scan.
func WithChunkIndex(index storage.ChunkIndex) DatabaseOption {
	return func(o *databaseOptions) {
		if index != nil {
			o.index = index
		}
	}
}

// NewDatabase opens (or creates) a hoard database at the given path.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create content repository
	contentRepo, err := badger.NewContentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		contentRepo.Close()
		backend.Close()
		return nil, err
	}

	// Default to the built-in index unless one was supplied
	index := options.index
	if index == nil {
		index = badger.NewChunkIndex(backend)
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		chunkRepo.Close()
		contentRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:     backend,
		contentRepo: contentRepo,
		chunkRepo:   chunkRepo,
		index:       index,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close the index; the built-in one is a no-op
	if err := db.index.Close(); err != nil {
		db.logger.Error("error closing chunk index", "err", err)
	}

	// Close repositories
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.contentRepo.Close(); err != nil {
		db.logger.Error("error closing content repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ContentRepository() storage.ContentRepository {
	return db.contentRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) ChunkIndex() storage.ChunkIndex {
	return db.index
}

// NewIngestionPipeline builds a pipeline with the default extractor set
// (webpage, document, image) and a default-tuned embedding orchestrator.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	extractors := extract.NewRegistry(
		extract.NewWebpageExtractor(nil),
		extract.NewDocumentExtractor(nil),
		extract.NewImageExtractor(),
	)

	orchestrator, err := embedding.NewOrchestrator(db.provider.Embedder())
	if err != nil {
		return nil, err
	}

	return ingestion.NewPipeline(db.contentRepo, db.chunkRepo, db.index, extractors, orchestrator, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.contentRepo, db.index, db.provider, opts...)
}

// NewReindexer builds a reindexer writing progress to the given writer
// (os.Stderr if nil).
func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	if progress == nil {
		progress = os.Stderr
	}
	return reindex.NewReindexer(db.contentRepo, db.chunkRepo, db.index, db.provider.Embedder(), config, progress)
}
