package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hoardhq/hoard/core"
)

// DocumentExtractor fetches plain text or markdown documents.
type DocumentExtractor struct {
	client *http.Client
}

var _ Extractor = (*DocumentExtractor)(nil)

// NewDocumentExtractor creates a document extractor. Pass nil to use a
// default client with a 30s timeout.
func NewDocumentExtractor(client *http.Client) *DocumentExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DocumentExtractor{client: client}
}

// Type returns core.TypeDocument.
func (e *DocumentExtractor) Type() core.ContentType {
	return core.TypeDocument
}

// Extract fetches the document body as-is. Markdown structure is left
// intact for the section detector.
func (e *DocumentExtractor) Extract(ctx context.Context, item *core.ContentItem) (*Result, error) {
	if item.SourceURL == "" {
		return nil, ErrMissingSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.SourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrEmptyContent
	}

	title := item.Title
	if title == "" {
		title = documentTitle(text, item.SourceURL)
	}

	return &Result{
		Title:    title,
		FullText: text,
		Metadata: core.DocumentMetadata{
			Format: documentFormat(item.SourceURL, resp.Header.Get("Content-Type")),
		},
	}, nil
}

// documentTitle derives a title from the first markdown heading, falling
// back to the file name.
func documentTitle(text, sourceURL string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if trimmed, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(trimmed)
		}
	}
	return path.Base(sourceURL)
}

// documentFormat guesses the format from the URL extension, then the
// response content type.
func documentFormat(sourceURL, contentType string) string {
	switch strings.ToLower(path.Ext(sourceURL)) {
	case ".md", ".markdown":
		return "markdown"
	case ".txt":
		return "text"
	}
	if strings.Contains(contentType, "markdown") {
		return "markdown"
	}
	return "text"
}
