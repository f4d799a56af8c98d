package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hoardhq/hoard/core"
)

// Key prefixes for different data types
const (
	contentItemPrefix     = "conitm"
	contentItemDatePrefix = "conitmd"
	contentItemIDSeq      = "conitmseq"
	chunkRecordPrefix     = "chkrec"
	chunkContentPrefix    = "chkrecc"
	chunkIDSeq            = "chkrecseq"
)

// makeContentItemKey generates a key for a content item by ID.
func makeContentItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", contentItemPrefix, id))
}

// makeContentDateKey generates a composite key for the creation-date index.
// Format: prefix:timestamp:id
func makeContentDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := contentItemDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialContentDateKey generates a partial key for date range scans.
// Format: prefix:timestamp
func makePartialContentDateKey(timestamp time.Time) []byte {
	prefix := contentItemDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkContentKey generates a composite key for the content index.
// Format: prefix:contentID:chunkID
func makeChunkContentKey(contentID, chunkID core.ID) []byte {
	prefix := chunkContentPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for contentID + 8 bytes for chunkID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkContentKey generates a partial key for per-content scans.
// Format: prefix:contentID
func makePartialChunkContentKey(contentID core.ID) []byte {
	prefix := chunkContentPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for contentID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentID))
	return buf
}
