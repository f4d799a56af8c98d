package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hoardhq/hoard/core"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
  <title>Test Page Title</title>
  <meta name="description" content="A page used in tests">
  <meta property="og:image" content="https://example.com/thumb.png">
  <meta property="og:site_name" content="Example Site">
  <link rel="canonical" href="https://example.com/canonical">
</head>
<body>
  <nav><a href="/">Home</a><a href="/about">About</a></nav>
  <h1>Main Heading</h1>
  <p>First paragraph of body text.</p>
  <h2>Sub Heading</h2>
  <p>Second paragraph with
     a line break inside.</p>
  <ul><li>point one</li><li>point two</li></ul>
  <script>console.log("never indexed")</script>
  <footer>copyright notice</footer>
</body>
</html>`

func serveHTML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebpageExtract(t *testing.T) {
	server := serveHTML(t, http.StatusOK, testPage)
	e := NewWebpageExtractor(server.Client())

	result, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeWebpage,
		SourceURL: server.URL + "/post",
	})
	require.NoError(t, err)

	assert.Equal(t, "Test Page Title", result.Title)
	assert.Equal(t, "A page used in tests", result.Description)
	assert.Equal(t, "https://example.com/thumb.png", result.ThumbnailURL)

	meta, ok := result.Metadata.(core.WebpageMetadata)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", meta.Domain)
	assert.Equal(t, "https://example.com/canonical", meta.CanonicalURL)
	assert.Equal(t, "Example Site", meta.SiteName)
	assert.Equal(t, defaultUserAgent, meta.FetchedWith)

	// Headings become markdown so the section detector sees structure
	assert.Contains(t, result.FullText, "# Main Heading")
	assert.Contains(t, result.FullText, "## Sub Heading")
	assert.Contains(t, result.FullText, "First paragraph of body text.")
	assert.Contains(t, result.FullText, "Second paragraph with a line break inside.")
	assert.Contains(t, result.FullText, "- point one")

	// Chrome and scripts never leak into the text
	assert.NotContains(t, result.FullText, "never indexed")
	assert.NotContains(t, result.FullText, "About")
	assert.NotContains(t, result.FullText, "copyright notice")
}

func TestWebpageExtractMissingSource(t *testing.T) {
	e := NewWebpageExtractor(nil)

	_, err := e.Extract(context.Background(), &core.ContentItem{Type: core.TypeWebpage})
	assert.ErrorIs(t, err, ErrMissingSource)
}

func TestWebpageExtractHTTPError(t *testing.T) {
	server := serveHTML(t, http.StatusNotFound, "not found")
	e := NewWebpageExtractor(server.Client())

	_, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeWebpage,
		SourceURL: server.URL,
	})
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestWebpageExtractEmptyPage(t *testing.T) {
	server := serveHTML(t, http.StatusOK, "<html><body><nav>only chrome</nav></body></html>")
	e := NewWebpageExtractor(server.Client())

	_, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeWebpage,
		SourceURL: server.URL,
	})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestWebpageExtractFallbackTitle(t *testing.T) {
	server := serveHTML(t, http.StatusOK, "<html><body><p>text but no title</p></body></html>")
	e := NewWebpageExtractor(server.Client())

	result, err := e.Extract(context.Background(), &core.ContentItem{
		Type:      core.TypeWebpage,
		SourceURL: server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.Title)
}

func TestParsePageBlocks(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(testPage))
	require.NoError(t, err)

	page := parsePage(doc)
	assert.Equal(t, "Test Page Title", page.title)
	assert.Equal(t, "https://example.com/canonical", page.canonical)

	// Blocks are joined with blank lines, in document order
	blocks := strings.Split(page.text, "\n\n")
	require.GreaterOrEqual(t, len(blocks), 5)
	assert.Equal(t, "# Main Heading", blocks[0])
	assert.Equal(t, "First paragraph of body text.", blocks[1])
}
