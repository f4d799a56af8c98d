// Package qdrant provides a storage.ChunkIndex backed by a Qdrant
// collection, for installations whose chunk counts outgrow the built-in
// brute-force scan.
package qdrant
