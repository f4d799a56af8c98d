package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Items ingested from a URL use this so that re-ingesting the same source
// resolves to the same record.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentType identifies the kind of source a content item was ingested from.
type ContentType string

const (
	// TypeImage is an uploaded image. Image items carry no source URL and
	// cannot be retried; they must be re-uploaded.
	TypeImage ContentType = "image"
	// TypeWebpage is a webpage fetched from a URL.
	TypeWebpage ContentType = "webpage"
	// TypeVideo is a video whose transcript is indexed.
	TypeVideo ContentType = "video"
	// TypeDocument is a text or markdown document.
	TypeDocument ContentType = "document"

	// TypeAll is a filter wildcard, never stored on an item.
	TypeAll ContentType = "all"
)

// Status tracks a content item through the ingestion state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ContentItem represents one ingested unit of content.
// Its chunks are owned exclusively by the item and are deleted with it.
type ContentItem struct {
	Id           ID
	Type         ContentType
	SourceURL    string // empty for uploaded images
	Title        string
	Description  string
	Status       Status
	ErrorMessage string // set when Status is StatusFailed
	Attempts     int
	Metadata     map[string]string // flattened from the typed metadata variant
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  time.Time // zero until Status is StatusCompleted
}

// Retryable reports whether a failed item can be re-ingested from its source.
func (c *ContentItem) Retryable() bool {
	return c.Status == StatusFailed && c.SourceURL != ""
}

// Chunk is one searchable segment of a content item's extracted text.
// Vector is empty until the embedding processor has run.
type Chunk struct {
	Id          ID
	ContentId   ID
	Index       int // 0-based, dense within the parent, document order
	Text        string
	Vector      []float32
	StartOffset int // byte offset into the extracted text
	EndOffset   int
	Section     string // title of the detected section, if any
	Metadata    map[string]string
}

// ChunkMatch is the best-scoring chunk of one content item for a query vector.
type ChunkMatch struct {
	ContentId ID
	ChunkId   ID
	Text      string
	Section   string
	Score     float32
}

// SearchResult joins a ranked content item with the chunk that matched.
type SearchResult struct {
	Item           *ContentItem
	Score          float32
	MatchedChunk   string
	MatchedSection string
}
