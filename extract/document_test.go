package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/core"
)

func serveText(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDocumentExtract(t *testing.T) {
	body := "# Design Notes\n\nSome markdown body.\n\n## Details\n\nMore text.\n"
	server := serveText(t, "text/markdown", body)
	e := NewDocumentExtractor(server.Client())

	result, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeDocument,
		SourceURL: server.URL + "/notes.md",
	})
	require.NoError(t, err)

	assert.Equal(t, "Design Notes", result.Title)
	assert.Contains(t, result.FullText, "## Details")

	meta, ok := result.Metadata.(core.DocumentMetadata)
	require.True(t, ok)
	assert.Equal(t, "markdown", meta.Format)
}

func TestDocumentExtractKeepsCallerTitle(t *testing.T) {
	server := serveText(t, "text/plain", "# Heading In File\n\nbody")
	e := NewDocumentExtractor(server.Client())

	result, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeDocument,
		SourceURL: server.URL + "/file.txt",
		Title:     "Explicit Title",
	})
	require.NoError(t, err)
	assert.Equal(t, "Explicit Title", result.Title)
}

func TestDocumentExtractMissingSource(t *testing.T) {
	e := NewDocumentExtractor(nil)

	_, err := e.Extract(context.Background(), &core.ContentItem{Type: core.TypeDocument})
	assert.ErrorIs(t, err, ErrMissingSource)
}

func TestDocumentExtractEmptyBody(t *testing.T) {
	server := serveText(t, "text/plain", "   \n\t\n")
	e := NewDocumentExtractor(server.Client())

	_, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeDocument,
		SourceURL: server.URL + "/empty.txt",
	})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "From Heading", documentTitle("intro line\n# From Heading\nbody", "https://x/doc.md"))
	assert.Equal(t, "doc.md", documentTitle("no headings here", "https://x/doc.md"))
}

func TestDocumentFormat(t *testing.T) {
	assert.Equal(t, "markdown", documentFormat("https://x/a.md", ""))
	assert.Equal(t, "markdown", documentFormat("https://x/a.MARKDOWN", ""))
	assert.Equal(t, "text", documentFormat("https://x/a.txt", ""))
	assert.Equal(t, "markdown", documentFormat("https://x/a", "text/markdown; charset=utf-8"))
	assert.Equal(t, "text", documentFormat("https://x/a", "text/plain"))
}
