package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContentItem(t *testing.T) {
	valid := func() *ContentItem {
		return &ContentItem{
			Id:        1,
			Type:      TypeWebpage,
			SourceURL: "https://example.com/post",
			Title:     "Example",
			Status:    StatusPending,
		}
	}

	t.Run("valid item", func(t *testing.T) {
		assert.NoError(t, ValidateContentItem(valid()))
	})

	t.Run("nil item", func(t *testing.T) {
		err := ValidateContentItem(nil)
		assert.ErrorIs(t, err, ErrInvalidContentItem)
	})

	t.Run("wildcard type rejected", func(t *testing.T) {
		item := valid()
		item.Type = TypeAll
		err := ValidateContentItem(item)
		assert.ErrorIs(t, err, ErrInvalidContentType)
	})

	t.Run("unknown status", func(t *testing.T) {
		item := valid()
		item.Status = "queued"
		err := ValidateContentItem(item)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("failed without message", func(t *testing.T) {
		item := valid()
		item.Status = StatusFailed
		err := ValidateContentItem(item)
		assert.ErrorIs(t, err, ErrMissingErrorMessage)
	})

	t.Run("failed with message", func(t *testing.T) {
		item := valid()
		item.Status = StatusFailed
		item.ErrorMessage = "extraction: connection refused"
		assert.NoError(t, ValidateContentItem(item))
	})
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			Id:          1,
			ContentId:   2,
			Index:       0,
			Text:        "some chunk text",
			StartOffset: 0,
			EndOffset:   15,
		}
	}

	t.Run("valid chunk", func(t *testing.T) {
		assert.NoError(t, ValidateChunk(valid()))
	})

	t.Run("nil chunk", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
	})

	t.Run("empty text", func(t *testing.T) {
		chunk := valid()
		chunk.Text = ""
		assert.ErrorIs(t, ValidateChunk(chunk), ErrEmptyText)
	})

	t.Run("inverted offsets", func(t *testing.T) {
		chunk := valid()
		chunk.StartOffset = 15
		chunk.EndOffset = 15
		assert.ErrorIs(t, ValidateChunk(chunk), ErrInvalidOffsets)
	})

	t.Run("negative index", func(t *testing.T) {
		chunk := valid()
		chunk.Index = -1
		assert.ErrorIs(t, ValidateChunk(chunk), ErrInvalidChunk)
	})

	t.Run("empty vector allowed", func(t *testing.T) {
		chunk := valid()
		chunk.Vector = nil
		assert.NoError(t, ValidateChunk(chunk))
	})
}

func TestParseContentType(t *testing.T) {
	t.Run("empty defaults to all", func(t *testing.T) {
		parsed, err := ParseContentType("")
		require.NoError(t, err)
		assert.Equal(t, TypeAll, parsed)
	})

	t.Run("explicit all", func(t *testing.T) {
		parsed, err := ParseContentType("all")
		require.NoError(t, err)
		assert.Equal(t, TypeAll, parsed)
	})

	t.Run("stored types", func(t *testing.T) {
		for _, s := range []string{"image", "webpage", "video", "document"} {
			parsed, err := ParseContentType(s)
			require.NoError(t, err)
			assert.Equal(t, ContentType(s), parsed)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ParseContentType("podcast")
		assert.ErrorIs(t, err, ErrInvalidContentType)
	})
}

func TestRetryable(t *testing.T) {
	item := &ContentItem{Type: TypeWebpage, SourceURL: "https://example.com", Status: StatusFailed}
	assert.True(t, item.Retryable())

	item.Status = StatusCompleted
	assert.False(t, item.Retryable())

	upload := &ContentItem{Type: TypeImage, Status: StatusFailed}
	assert.False(t, upload.Retryable())
}

func TestValidateMetadataFor(t *testing.T) {
	t.Run("nil payload allowed", func(t *testing.T) {
		assert.NoError(t, ValidateMetadataFor(TypeWebpage, nil))
	})

	t.Run("matching payload", func(t *testing.T) {
		meta := WebpageMetadata{Domain: "example.com"}
		assert.NoError(t, ValidateMetadataFor(TypeWebpage, meta))
	})

	t.Run("type mismatch", func(t *testing.T) {
		meta := ImageMetadata{Format: "png"}
		err := ValidateMetadataFor(TypeWebpage, meta)
		assert.ErrorIs(t, err, ErrInvalidMetadata)
	})

	t.Run("invalid payload", func(t *testing.T) {
		meta := WebpageMetadata{} // missing domain
		err := ValidateMetadataFor(TypeWebpage, meta)
		assert.ErrorIs(t, err, ErrInvalidMetadata)
	})
}

func TestMetadataFlatten(t *testing.T) {
	meta := ImageMetadata{Format: "png", Width: 640, Height: 480, Caption: "a cat", FileSize: 2048}
	flat := meta.Flatten()

	assert.Equal(t, "png", flat["format"])
	assert.Equal(t, "640", flat["width"])
	assert.Equal(t, "480", flat["height"])
	assert.Equal(t, "a cat", flat["caption"])
	assert.Equal(t, "2048", flat["file_size"])
}

func TestIDFromContentIsDeterministic(t *testing.T) {
	a := IDFromContent("webpage:https://example.com/post")
	b := IDFromContent("webpage:https://example.com/post")
	c := IDFromContent("webpage:https://example.com/other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotZero(t, a)
}
