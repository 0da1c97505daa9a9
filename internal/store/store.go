// Package store defines the narrow contract both vector store backends
// satisfy, so ingestion and retrieval do not care whether chunks live
// in chromem or Postgres.
package store

import "context"

// Document is one chunk ready for persistence: text, its embedding and
// the flattened chunk metadata.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Result is a nearest-neighbor hit. Similarity is in [0,1], higher is
// closer; distance for the API is derived as 1 - similarity.
type Result struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float32
}

type Store interface {
	Add(ctx context.Context, docs []Document) error
	// Search returns up to limit results nearest to queryEmbedding,
	// optionally restricted to a source type ("" means all sources).
	Search(ctx context.Context, queryEmbedding []float32, limit int, sourceType string) ([]Result, error)
	Count(ctx context.Context) (int, error)
	// Reset drops all stored documents (re-ingestion replaces chunks
	// rather than mutating them in place).
	Reset(ctx context.Context) error
}
