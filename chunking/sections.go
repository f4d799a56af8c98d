package chunking

import (
	"regexp"
	"strings"
)

// Section is a transient structural span produced by DetectSections and
// consumed by the document chunker. Sections are never persisted.
type Section struct {
	Title       string
	Content     string
	StartOffset int
	EndOffset   int
}

// DefaultSectionTitle is used when no heading-like line is found, and for
// leading text before the first heading.
const DefaultSectionTitle = "Document"

// headingPattern pairs a line pattern with its title extractor.
// Patterns are evaluated in order; the first match per line wins, so new
// heading styles are additive.
type headingPattern struct {
	re    *regexp.Regexp
	title func(match []string, line string) string
}

var headingPatterns = []headingPattern{
	// Markdown heading: title is the text after the hashes.
	{
		re: regexp.MustCompile(`^#{1,6}\s+(.+)$`),
		title: func(match []string, _ string) string {
			return strings.TrimSpace(match[1])
		},
	},
	// Chapter/Part/Section with arabic, roman or spelled-out numerals.
	{
		re: regexp.MustCompile(`(?i)^(chapter|part|section)\s+(\d+(?:\.\d+)*|[ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b[:.\s]*(.*)$`),
		title: func(match []string, _ string) string {
			title := capitalize(match[1]) + " " + match[2]
			if rest := strings.TrimSpace(match[3]); rest != "" {
				title += ": " + rest
			}
			return title
		},
	},
	// Numbered outline heading, e.g. "1.2 Storage layout".
	{
		re: regexp.MustCompile(`^\d+(?:\.\d+)+\.?\s+\S.*$`),
		title: func(_ []string, line string) string {
			return line
		},
	},
	// Short all-caps line.
	{
		re: regexp.MustCompile(`^[A-Z][A-Z0-9 ,.'&-]{2,58}$`),
		title: func(_ []string, line string) string {
			return line
		},
	},
}

// DetectSections scans text line by line and returns its ordered sections.
// The result is never empty and covers the whole input without gaps: text
// with no heading-like lines yields a single "Document" section spanning
// [0, len(text)).
func DetectSections(text string) []Section {
	var sections []Section

	openStart := 0
	openTitle := DefaultSectionTitle

	offset := 0
	for offset < len(text) {
		var line string
		next := len(text)
		if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
			line = text[offset : offset+i]
			next = offset + i + 1
		} else {
			line = text[offset:]
		}

		if title, ok := matchHeading(strings.TrimSpace(line)); ok {
			// Close the open section at the heading line start.
			// Zero-length spans (heading at the very start, or two
			// consecutive headings) are dropped.
			if offset > openStart {
				sections = append(sections, Section{
					Title:       openTitle,
					Content:     text[openStart:offset],
					StartOffset: openStart,
					EndOffset:   offset,
				})
			}
			openStart = offset
			openTitle = title
		}

		offset = next
	}

	if len(text) > openStart || len(sections) == 0 {
		sections = append(sections, Section{
			Title:       openTitle,
			Content:     text[openStart:],
			StartOffset: openStart,
			EndOffset:   len(text),
		})
	}

	return sections
}

// matchHeading tests a trimmed line against the pattern list in priority
// order. A line matching several patterns is claimed by the first one only.
func matchHeading(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	for _, p := range headingPatterns {
		if match := p.re.FindStringSubmatch(line); match != nil {
			return p.title(match, line), true
		}
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
