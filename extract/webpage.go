package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoardhq/hoard/core"
	"golang.org/x/net/html"
)

const (
	defaultUserAgent = "hoard/1.0"
	maxBodyBytes     = 10 << 20
)

// WebpageExtractor fetches a page and extracts its readable text.
// Headings come out as markdown-style lines so the section detector can
// pick up the page structure downstream.
type WebpageExtractor struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ Extractor = (*WebpageExtractor)(nil)

// NewWebpageExtractor creates a webpage extractor. Pass nil to use a
// default client with a 30s timeout.
func NewWebpageExtractor(client *http.Client) *WebpageExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebpageExtractor{
		client:    client,
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
}

// Type returns core.TypeWebpage.
func (e *WebpageExtractor) Type() core.ContentType {
	return core.TypeWebpage
}

// Extract fetches the page and pulls out title, description and body text.
func (e *WebpageExtractor) Extract(ctx context.Context, item *core.ContentItem) (*Result, error) {
	if item.SourceURL == "" {
		return nil, ErrMissingSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.SourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	page := parsePage(doc)
	if page.text == "" {
		return nil, ErrEmptyContent
	}

	title := page.title
	if title == "" {
		title = item.SourceURL
	}

	domain := ""
	if u, err := url.Parse(item.SourceURL); err == nil {
		domain = u.Hostname()
	}

	e.logger.Debug("extracted webpage", "url", item.SourceURL, "textLen", len(page.text))

	return &Result{
		Title:        title,
		Description:  page.meta["description"],
		FullText:     page.text,
		ThumbnailURL: page.meta["og:image"],
		Metadata: core.WebpageMetadata{
			Domain:       domain,
			CanonicalURL: page.canonical,
			SiteName:     page.meta["og:site_name"],
			FetchedWith:  e.userAgent,
		},
	}, nil
}

// parsedPage accumulates what the DOM walk finds.
type parsedPage struct {
	title     string
	canonical string
	meta      map[string]string
	blocks    []string
	text      string
}

// parsePage walks the document once for head metadata and once for body
// text, then joins the body blocks with blank lines.
func parsePage(doc *html.Node) *parsedPage {
	p := &parsedPage{meta: make(map[string]string)}
	p.extractHead(doc)

	body := findElement(doc, "body")
	if body == nil {
		body = doc
	}
	p.collectBlocks(body)
	p.text = strings.Join(p.blocks, "\n\n")
	return p
}

// extractHead extracts title, meta tags and the canonical link.
func (p *parsedPage) extractHead(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "head" {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "title":
				p.title = textContent(c)
			case "meta":
				name, content := "", ""
				for _, attr := range c.Attr {
					switch attr.Key {
					case "name", "property":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if name != "" && content != "" {
					p.meta[name] = content
				}
			case "link":
				rel, href := "", ""
				for _, attr := range c.Attr {
					switch attr.Key {
					case "rel":
						rel = attr.Val
					case "href":
						href = attr.Val
					}
				}
				if rel == "canonical" {
					p.canonical = href
				}
			}
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.extractHead(c)
	}
}

// collectBlocks walks the body and emits one block per heading, paragraph,
// list item, blockquote or preformatted region. Navigation chrome and
// non-content elements are dropped.
func (p *parsedPage) collectBlocks(n *html.Node) {
	if n.Type == html.ElementNode {
		if shouldSkipElement(n.Data) {
			return
		}

		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			text := textContent(n)
			if text != "" {
				p.blocks = append(p.blocks, strings.Repeat("#", level)+" "+text)
			}
			return
		case "p", "blockquote", "pre":
			text := textContent(n)
			if text != "" {
				p.blocks = append(p.blocks, text)
			}
			return
		case "li":
			text := textContent(n)
			if text != "" {
				p.blocks = append(p.blocks, "- "+text)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.collectBlocks(c)
	}
}

// shouldSkipElement returns true for elements that never contribute
// indexable text.
func shouldSkipElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg", "math",
		"iframe", "object", "embed", "nav", "header", "footer", "aside":
		return true
	}
	return false
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

// textContent extracts the text of a node and its descendants, collapsing
// runs of whitespace.
func textContent(n *html.Node) string {
	var b strings.Builder
	textContentRecursive(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func textContentRecursive(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode {
		if shouldSkipElement(n.Data) {
			return
		}
		if n.Data == "br" {
			b.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		textContentRecursive(c, b)
	}
}
