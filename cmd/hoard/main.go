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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hoardhq/hoard"
	"github.com/hoardhq/hoard/ai"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/ingestion"
	"github.com/hoardhq/hoard/reindex"
	"github.com/hoardhq/hoard/search"
	"github.com/hoardhq/hoard/storage"
	"github.com/hoardhq/hoard/storage/qdrant"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "hoard",
		Usage: "Content ingestion and semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest a content item and wait for completion",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "Content type (image, webpage, video, document)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "Source URL to fetch content from",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title for the item (uploads; extracted otherwise)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Description for the item",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search ingested content",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Restrict results to one content type",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
						Value: search.DefaultThreshold,
					},
				),
			},
			{
				Name:   "recent",
				Usage:  "List the most recently added items",
				Action: recentCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items",
						Value: search.DefaultLimit,
					},
				),
			},
			{
				Name:      "retry",
				Usage:     "Retry a failed item that has a source URL",
				ArgsUsage: "<id>",
				Action:    retryCommand,
				Flags:     commonFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Regenerate embeddings for all completed items",
				Action: reindexCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags are shared by every command: database location, embedding
// provider and the optional external vector index.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"HOARD_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"HOARD_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"HOARD_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "qdrant-host",
			Usage:   "Qdrant host; when set, vectors are indexed in Qdrant instead of BadgerDB",
			EnvVars: []string{"HOARD_QDRANT_HOST"},
		},
		&cli.IntFlag{
			Name:    "qdrant-port",
			Usage:   "Qdrant gRPC port",
			Value:   6334,
			EnvVars: []string{"HOARD_QDRANT_PORT"},
		},
		&cli.StringFlag{
			Name:  "qdrant-collection",
			Usage: "Qdrant collection name",
			Value: "hoard_chunks",
		},
		&cli.Uint64Flag{
			Name:  "vector-size",
			Usage: "Embedding dimension, used when creating the Qdrant collection",
			Value: 768,
		},
	}
}

// openDatabase builds the Database from command flags, wiring in the
// Qdrant index when requested.
func openDatabase(c *cli.Context) (*hoard.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	var index storage.ChunkIndex
	if host := c.String("qdrant-host"); host != "" {
		var err error
		index, err = qdrant.NewChunkIndex(c.Context, host, c.Int("qdrant-port"),
			c.String("qdrant-collection"), c.Uint64("vector-size"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
	}

	db, err := hoard.NewDatabase(c.String("db"),
		hoard.WithAIConfig(aiConfig),
		hoard.WithChunkIndex(index),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func ingestCommand(c *cli.Context) error {
	contentType, err := core.ParseContentType(c.String("type"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	item, err := pipeline.IngestAndWait(context.Background(), &ingestion.Request{
		Type:        contentType,
		SourceURL:   c.String("url"),
		Title:       c.String("title"),
		Description: c.String("description"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("id=%d status=%s title=%q\n", item.Id, item.Status, item.Title)
	if item.Status == core.StatusFailed {
		fmt.Printf("error: %s\n", item.ErrorMessage)
		os.Exit(1)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("query text is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(context.Background(), &search.Query{
		Text:      queryText,
		Type:      core.ContentType(c.String("type")),
		Limit:     c.Int("limit"),
		Threshold: float32(c.Float64("threshold")),
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%2d. [%.3f] (%s) %s\n", i+1, result.Score, result.Item.Type, result.Item.Title)
		if result.MatchedSection != "" {
			fmt.Printf("    section: %s\n", result.MatchedSection)
		}
		fmt.Printf("    %s\n", snippet(result.MatchedChunk, 160))
	}
	return nil
}

func recentCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	items, err := searcher.Recent(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	for _, item := range items {
		fmt.Printf("%d\t%s\t%s\t%s\n", item.Id, item.Type, item.Status, item.Title)
	}
	return nil
}

func retryCommand(c *cli.Context) error {
	var id uint64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return fmt.Errorf("item id is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	item, err := pipeline.Retry(context.Background(), core.ID(id))
	if err != nil {
		return err
	}

	fmt.Printf("id=%d status=%s\n", item.Id, item.Status)
	if item.Status == core.StatusFailed {
		fmt.Printf("error: %s\n", item.ErrorMessage)
		os.Exit(1)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	reindexer := db.NewReindexer(config, os.Stderr)
	if err := reindexer.Run(context.Background()); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

// snippet trims text to one display line.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func setup(c *cli.Context) error {
	// Load .env if present; flags and real env still win
	_ = godotenv.Load()

	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
