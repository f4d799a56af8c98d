package extract

import (
	"context"
	"strings"

	"github.com/hoardhq/hoard/core"
)

// ImageExtractor builds indexable text for uploaded images from the
// caption, title and description supplied at upload time. It never
// fetches anything, so image items without a source URL still ingest.
type ImageExtractor struct{}

var _ Extractor = (*ImageExtractor)(nil)

// NewImageExtractor creates an image extractor.
func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{}
}

// Type returns core.TypeImage.
func (e *ImageExtractor) Type() core.ContentType {
	return core.TypeImage
}

// Extract assembles the item's textual fields into one searchable blob.
func (e *ImageExtractor) Extract(ctx context.Context, item *core.ContentItem) (*Result, error) {
	var parts []string
	if item.Title != "" {
		parts = append(parts, item.Title)
	}
	if item.Description != "" {
		parts = append(parts, item.Description)
	}
	if caption := item.Metadata["caption"]; caption != "" && caption != item.Description {
		parts = append(parts, caption)
	}

	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return nil, ErrEmptyContent
	}

	return &Result{
		Title:       item.Title,
		Description: item.Description,
		FullText:    text,
	}, nil
}
