package chunking

import "strings"

// Default window sizes. Flat chunking uses the small pair; long-document
// chunking without section detection uses the large pair.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100

	DocumentChunkSize = 2000
	DocumentOverlap   = 200

	// LongDocumentThreshold is the text length above which the ingestion
	// pipeline switches from flat to document-aware chunking.
	LongDocumentThreshold = 5000

	// boundaryLookback bounds the backward search for a sentence boundary
	// from a tentative cut point.
	boundaryLookback = 200
)

// sentence-ending separators searched for at cut points, plus newline.
var boundarySeps = []string{". ", "! ", "? ", "\n"}

// Chunk is one bounded segment of a larger text. Offsets are byte offsets
// into the text passed to the chunker; Content is the trimmed window.
type Chunk struct {
	Content     string
	Index       int
	StartOffset int
	EndOffset   int
	Section     string
}

// Split cuts text into overlapping chunks of at most maxSize bytes, ending
// each chunk on a sentence or line boundary where one falls within the last
// boundaryLookback bytes of the window. It is a pure function: identical
// inputs always produce identical output.
//
// Whitespace-only input yields nil. Input of at most maxSize bytes yields a
// single chunk covering the whole text.
func Split(text string, maxSize, overlap int) []Chunk {
	if maxSize < 1 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []Chunk
	pos := 0
	index := 0
	for pos < len(text) {
		end := pos + maxSize
		if end >= len(text) {
			end = len(text)
		} else if cut := boundaryCut(text, pos, end); cut > pos {
			end = cut
		}

		if content := strings.TrimSpace(text[pos:end]); content != "" {
			chunks = append(chunks, Chunk{
				Content:     content,
				Index:       index,
				StartOffset: pos,
				EndOffset:   end,
			})
			index++
		}

		if end >= len(text) {
			break
		}

		// Back up by the overlap, but always move forward: a degenerate
		// overlap/maxSize ratio would otherwise loop on the same window.
		// Near the end of text this guard can produce chunks slightly
		// smaller than maxSize; that is accepted behavior.
		next := end - overlap
		if next <= pos {
			next = end
		}
		pos = next
	}

	return chunks
}

// boundaryCut searches backward from the tentative cut point for the latest
// sentence-ending separator or newline within boundaryLookback bytes, and
// returns the position immediately after it. Returns start when no boundary
// is found in range.
func boundaryCut(text string, start, tentative int) int {
	from := tentative - boundaryLookback
	if from < start {
		from = start
	}
	window := text[from:tentative]

	best := -1
	for _, sep := range boundarySeps {
		if i := strings.LastIndex(window, sep); i >= 0 && from+i+len(sep) > best {
			best = from + i + len(sep)
		}
	}
	if best > start {
		return best
	}
	return start
}

// SplitDocument chunks a long document. With preserveSections set and text
// longer than maxSize, it detects sections first and chunks each section's
// content independently, re-basing offsets to the whole document, tagging
// chunks with their section title and renumbering indices contiguously
// across sections. Without preserveSections it falls back to flat chunking
// with the larger long-document window.
func SplitDocument(text string, maxSize, overlap int, preserveSections bool) []Chunk {
	if maxSize < 1 {
		maxSize = DocumentChunkSize
	}

	if !preserveSections {
		return Split(text, DocumentChunkSize, DocumentOverlap)
	}
	if len(text) <= maxSize {
		return Split(text, maxSize, overlap)
	}

	var chunks []Chunk
	index := 0
	for _, section := range DetectSections(text) {
		for _, c := range Split(section.Content, maxSize, overlap) {
			c.Index = index
			c.StartOffset += section.StartOffset
			c.EndOffset += section.StartOffset
			c.Section = section.Title
			chunks = append(chunks, c)
			index++
		}
	}
	return chunks
}
