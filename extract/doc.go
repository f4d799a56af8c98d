// Package extract turns content items into indexable text.
//
// One Extractor per content type; the Registry dispatches by type. The
// ingestion pipeline consumes extraction results and never cares how the
// text was obtained.
package extract
