package core

import (
	"fmt"
	"strconv"
)

// ItemMetadata is the typed metadata variant carried by one content type.
// Payloads are validated at the ingestion boundary and flattened into the
// string map stored on the item; chunking, embedding and ranking never look
// inside them.
type ItemMetadata interface {
	// ContentType returns the content type this payload belongs to.
	ContentType() ContentType

	// Validate checks the payload's shape.
	Validate() error

	// Flatten converts the payload into the stored string map.
	Flatten() map[string]string
}

// ImageMetadata describes an uploaded image.
type ImageMetadata struct {
	Format   string // e.g. "png", "jpeg"
	Width    int
	Height   int
	Caption  string
	FileSize int64
}

func (m ImageMetadata) ContentType() ContentType { return TypeImage }

func (m ImageMetadata) Validate() error {
	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("%w: negative image dimensions", ErrInvalidMetadata)
	}
	if m.FileSize < 0 {
		return fmt.Errorf("%w: negative file size", ErrInvalidMetadata)
	}
	return nil
}

func (m ImageMetadata) Flatten() map[string]string {
	return map[string]string{
		"format":    m.Format,
		"width":     strconv.Itoa(m.Width),
		"height":    strconv.Itoa(m.Height),
		"caption":   m.Caption,
		"file_size": strconv.FormatInt(m.FileSize, 10),
	}
}

// WebpageMetadata describes a fetched webpage.
type WebpageMetadata struct {
	Domain       string
	CanonicalURL string
	SiteName     string
	FetchedWith  string // user agent or fetcher identifier
}

func (m WebpageMetadata) ContentType() ContentType { return TypeWebpage }

func (m WebpageMetadata) Validate() error {
	if m.Domain == "" {
		return fmt.Errorf("%w: webpage metadata requires a domain", ErrInvalidMetadata)
	}
	return nil
}

func (m WebpageMetadata) Flatten() map[string]string {
	return map[string]string{
		"domain":        m.Domain,
		"canonical_url": m.CanonicalURL,
		"site_name":     m.SiteName,
		"fetched_with":  m.FetchedWith,
	}
}

// VideoMetadata describes a video whose transcript was indexed.
type VideoMetadata struct {
	Provider        string // e.g. "youtube"
	VideoID         string
	DurationSeconds int
	Channel         string
}

func (m VideoMetadata) ContentType() ContentType { return TypeVideo }

func (m VideoMetadata) Validate() error {
	if m.VideoID == "" {
		return fmt.Errorf("%w: video metadata requires a video id", ErrInvalidMetadata)
	}
	if m.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative video duration", ErrInvalidMetadata)
	}
	return nil
}

func (m VideoMetadata) Flatten() map[string]string {
	return map[string]string{
		"provider": m.Provider,
		"video_id": m.VideoID,
		"duration": strconv.Itoa(m.DurationSeconds),
		"channel":  m.Channel,
	}
}

// DocumentMetadata describes a text or markdown document.
type DocumentMetadata struct {
	Format    string // e.g. "markdown", "text"
	PageCount int
	Author    string
	Language  string
}

func (m DocumentMetadata) ContentType() ContentType { return TypeDocument }

func (m DocumentMetadata) Validate() error {
	if m.PageCount < 0 {
		return fmt.Errorf("%w: negative page count", ErrInvalidMetadata)
	}
	return nil
}

func (m DocumentMetadata) Flatten() map[string]string {
	return map[string]string{
		"format":     m.Format,
		"page_count": strconv.Itoa(m.PageCount),
		"author":     m.Author,
		"language":   m.Language,
	}
}

// ValidateMetadataFor checks a typed payload against the item type it is
// attached to. A nil payload is allowed; extractors are not required to
// produce one.
func ValidateMetadataFor(t ContentType, meta ItemMetadata) error {
	if meta == nil {
		return nil
	}
	if meta.ContentType() != t {
		return fmt.Errorf("%w: %s metadata attached to %s item", ErrInvalidMetadata, meta.ContentType(), t)
	}
	return meta.Validate()
}
