package extract

import (
	"context"

	"github.com/hoardhq/hoard/core"
)

// Result holds everything an extractor learned about a content item.
// FullText is what gets chunked and embedded; the rest updates the item.
type Result struct {
	Title        string
	Description  string
	FullText     string
	ThumbnailURL string
	Metadata     core.ItemMetadata
}

// Extractor turns one kind of content item into indexable text.
type Extractor interface {
	// Type returns the content type this extractor handles.
	Type() core.ContentType

	// Extract fetches and extracts the item's text and metadata.
	Extract(ctx context.Context, item *core.ContentItem) (*Result, error)
}

// Registry dispatches extraction by content type.
type Registry struct {
	extractors map[core.ContentType]Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[core.ContentType]Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the extractor for its content type.
func (r *Registry) Register(e Extractor) {
	r.extractors[e.Type()] = e
}

// For returns the extractor for a content type.
// Returns ErrUnsupportedType if none is registered.
func (r *Registry) For(t core.ContentType) (Extractor, error) {
	e, ok := r.extractors[t]
	if !ok {
		return nil, ErrUnsupportedType
	}
	return e, nil
}
