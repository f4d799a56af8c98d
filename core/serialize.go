package core

import (
	"errors"
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the types persisted as badger values.
// Field order is part of the on-disk format; new fields go at the end.

var (
	// IDMUS serializes an ID.
	IDMUS = idMUS{}
	// ContentItemMUS serializes a ContentItem.
	ContentItemMUS = contentItemMUS{}
	// ChunkMUS serializes a Chunk.
	ChunkMUS = chunkMUS{}
)

var errCorruptData = errors.New("corrupt serialized data")

// zero time.Time values are stored as this sentinel instead of UnixMicro,
// which is undefined for the zero value.
const zeroTimeSentinel = math.MinInt64

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type contentItemMUS struct{}

func (contentItemMUS) Marshal(item ContentItem, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(item.Id), bs)
	n += ord.String.Marshal(string(item.Type), bs[n:])
	n += ord.String.Marshal(item.SourceURL, bs[n:])
	n += ord.String.Marshal(item.Title, bs[n:])
	n += ord.String.Marshal(item.Description, bs[n:])
	n += ord.String.Marshal(string(item.Status), bs[n:])
	n += ord.String.Marshal(item.ErrorMessage, bs[n:])
	n += varint.Int.Marshal(item.Attempts, bs[n:])
	n += marshalStringMap(item.Metadata, bs[n:])
	n += marshalTime(item.CreatedAt, bs[n:])
	n += marshalTime(item.UpdatedAt, bs[n:])
	n += marshalTime(item.CompletedAt, bs[n:])
	return n
}

func (contentItemMUS) Unmarshal(bs []byte) (item ContentItem, n int, err error) {
	var (
		id uint64
		s  string
		n1 int
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	item.Id = ID(id)
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	item.Type = ContentType(s)
	if item.SourceURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	item.Status = Status(s)
	if item.ErrorMessage, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Attempts, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Metadata, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.CompletedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (contentItemMUS) Size(item ContentItem) (size int) {
	size = varint.Uint64.Size(uint64(item.Id))
	size += ord.String.Size(string(item.Type))
	size += ord.String.Size(item.SourceURL)
	size += ord.String.Size(item.Title)
	size += ord.String.Size(item.Description)
	size += ord.String.Size(string(item.Status))
	size += ord.String.Size(item.ErrorMessage)
	size += varint.Int.Size(item.Attempts)
	size += sizeStringMap(item.Metadata)
	size += sizeTime(item.CreatedAt)
	size += sizeTime(item.UpdatedAt)
	size += sizeTime(item.CompletedAt)
	return size
}

type chunkMUS struct{}

func (chunkMUS) Marshal(chunk Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(chunk.Id), bs)
	n += varint.Uint64.Marshal(uint64(chunk.ContentId), bs[n:])
	n += varint.Int.Marshal(chunk.Index, bs[n:])
	n += ord.String.Marshal(chunk.Text, bs[n:])
	n += marshalVector(chunk.Vector, bs[n:])
	n += varint.Int.Marshal(chunk.StartOffset, bs[n:])
	n += varint.Int.Marshal(chunk.EndOffset, bs[n:])
	n += ord.String.Marshal(chunk.Section, bs[n:])
	n += marshalStringMap(chunk.Metadata, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (chunk Chunk, n int, err error) {
	var (
		id uint64
		n1 int
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	chunk.Id = ID(id)
	if id, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	chunk.ContentId = ID(id)
	if chunk.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if chunk.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if chunk.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return
	}
	n += n1
	if chunk.StartOffset, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if chunk.EndOffset, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if chunk.Section, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if chunk.Metadata, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (chunkMUS) Size(chunk Chunk) (size int) {
	size = varint.Uint64.Size(uint64(chunk.Id))
	size += varint.Uint64.Size(uint64(chunk.ContentId))
	size += varint.Int.Size(chunk.Index)
	size += ord.String.Size(chunk.Text)
	size += sizeVector(chunk.Vector)
	size += varint.Int.Size(chunk.StartOffset)
	size += varint.Int.Size(chunk.EndOffset)
	size += ord.String.Size(chunk.Section)
	size += sizeStringMap(chunk.Metadata)
	return size
}

// Composite field helpers

func marshalTime(t time.Time, bs []byte) int {
	us := int64(zeroTimeSentinel)
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Marshal(us, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || us == zeroTimeSentinel {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	us := int64(zeroTimeSentinel)
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Size(us)
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if count < 0 {
		return nil, n, errCorruptData
	}
	if count == 0 {
		return nil, n, nil
	}
	v = make([]float32, count)
	for i := range v {
		bits, n1, err := varint.Uint32.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		n += n1
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func marshalStringMap(m map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(m), bs)
	for _, k := range sortedKeys(m) {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (m map[string]string, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if count < 0 {
		return nil, n, errCorruptData
	}
	if count == 0 {
		return nil, n, nil
	}
	m = make(map[string]string, count)
	for i := 0; i < count; i++ {
		k, n1, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		n += n1
		v, n1, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		n += n1
		m[k] = v
	}
	return m, n, nil
}

func sizeStringMap(m map[string]string) (size int) {
	size = varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

// sortedKeys keeps the map encoding deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
