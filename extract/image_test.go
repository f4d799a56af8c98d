package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/core"
)

func TestImageExtract(t *testing.T) {
	e := NewImageExtractor()

	result, err := e.Extract(context.Background(), &core.ContentItem{
		Type:        core.TypeImage,
		Title:       "Sunset over the bay",
		Description: "Taken from the pier",
		Metadata:    map[string]string{"caption": "Golden hour, looking west"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Sunset over the bay", result.Title)
	assert.Equal(t, "Sunset over the bay\n\nTaken from the pier\n\nGolden hour, looking west", result.FullText)
}

func TestImageExtractSkipsDuplicateCaption(t *testing.T) {
	e := NewImageExtractor()

	result, err := e.Extract(context.Background(), &core.ContentItem{
		Type:        core.TypeImage,
		Title:       "Photo",
		Description: "same text",
		Metadata:    map[string]string{"caption": "same text"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Photo\n\nsame text", result.FullText)
}

func TestImageExtractNoText(t *testing.T) {
	e := NewImageExtractor()

	_, err := e.Extract(context.Background(), &core.ContentItem{Type: core.TypeImage})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry(NewImageExtractor(), NewWebpageExtractor(nil))

	e, err := registry.For(core.TypeImage)
	require.NoError(t, err)
	assert.Equal(t, core.TypeImage, e.Type())

	_, err = registry.For(core.TypeVideo)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
