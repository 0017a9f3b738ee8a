// Package cache persists similarity scores and text embeddings in SQLite,
// keyed by a content hash of the inputs so repeated runs over the same
// transcripts skip external calls.
package cache
