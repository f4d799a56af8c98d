package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hoardhq/hoard/ai"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
)

const (
	// DefaultLimit is the result count used when a query asks for none.
	DefaultLimit = 20

	// MaxLimit bounds how many results one query may request.
	MaxLimit = 100

	// DefaultThreshold is the minimum cosine similarity for a chunk to
	// count as a match.
	DefaultThreshold = 0.3
)

// Query describes one retrieval request.
type Query struct {
	// Text is the free-text query. Required.
	Text string

	// Type filters results to one content type. Empty or TypeAll matches
	// everything.
	Type core.ContentType

	// Limit caps the result count. Zero means DefaultLimit; values above
	// MaxLimit are rejected.
	Limit int

	// Threshold overrides the minimum similarity. Zero means
	// DefaultThreshold.
	Threshold float32
}

// Searcher ranks stored content items against free-text queries.
// Per item, only its single best-matching chunk contributes to the score.
type Searcher struct {
	contentRepo storage.ContentRepository
	index       storage.ChunkIndex
	embedder    ai.Embedder
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	contentRepo storage.ContentRepository,
	index storage.ChunkIndex,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if contentRepo == nil {
		return nil, ErrContentRepositoryRequired
	}
	if index == nil {
		return nil, ErrChunkIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Searcher{
		contentRepo: contentRepo,
		index:       index,
		embedder:    provider.Embedder(),
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search ranks completed content items against the query.
// Returns up to Limit results, ordered by best-chunk similarity descending.
func (s *Searcher) Search(ctx context.Context, query *Query) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor is Search with observation hooks; the monitor receives
// callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query *Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	limit, threshold, typeFilter, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	monitor.Start(query.Text)

	// 1. Embed the query text
	vector, err := s.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: embedding query", ErrSearchUnavailable)
	}

	// 2. Best chunk per content item above the threshold
	matches, err := s.index.FindBestMatches(ctx, vector, threshold)
	if err != nil {
		s.logger.Error("error querying chunk index", "err", err)
		return nil, fmt.Errorf("%w: querying index", ErrSearchUnavailable)
	}
	monitor.AfterVectorSearch(matches)

	if len(matches) == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	// 3. Join matches with their items
	ids := make([]core.ID, len(matches))
	matchByID := make(map[core.ID]*core.ChunkMatch, len(matches))
	for i, match := range matches {
		ids[i] = match.ContentId
		matchByID[match.ContentId] = match
	}

	items, err := s.contentRepo.GetContentItems(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving content items", "count", len(ids), "err", err)
		return nil, fmt.Errorf("%w: loading items", ErrSearchUnavailable)
	}
	monitor.AfterItemRetrieval(items)

	// 4. Filter and rank. Matches are already sorted by score, but items
	// come back in lookup order, so sort again after filtering.
	results := make([]*core.SearchResult, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.Status != core.StatusCompleted {
			monitor.ItemSkipped(item, "not completed")
			continue
		}
		if typeFilter != core.TypeAll && item.Type != typeFilter {
			monitor.ItemSkipped(item, "type filtered")
			continue
		}

		match := matchByID[item.Id]
		results = append(results, &core.SearchResult{
			Item:           item,
			Score:          match.Score,
			MatchedChunk:   match.Text,
			MatchedSection: match.Section,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	monitor.Finish(results)

	return results, nil
}

// Recent returns the most recently created completed items regardless of query.
func (s *Searcher) Recent(ctx context.Context, limit int) ([]*core.ContentItem, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit %d exceeds %d", ErrInvalidQuery, limit, MaxLimit)
	}

	items, err := s.contentRepo.GetRecentContentItems(ctx, limit)
	if err != nil {
		s.logger.Error("error retrieving recent items", "err", err)
		return nil, fmt.Errorf("%w: loading items", ErrSearchUnavailable)
	}
	return items, nil
}

// normalizeQuery validates the query and applies defaults.
func normalizeQuery(query *Query) (limit int, threshold float32, typeFilter core.ContentType, err error) {
	if query == nil || query.Text == "" {
		return 0, 0, "", fmt.Errorf("%w: query text required", ErrInvalidQuery)
	}

	limit = query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return 0, 0, "", fmt.Errorf("%w: limit %d exceeds %d", ErrInvalidQuery, query.Limit, MaxLimit)
	}

	threshold = query.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	typeFilter, err = core.ParseContentType(string(query.Type))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	return limit, threshold, typeFilter, nil
}
