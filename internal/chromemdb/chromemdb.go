package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"mentor-rag/internal/store"
)

const compress = false

// VectorDBManager encapsulates the chromem-go database operations. It
// implements store.Store for the retrieval and ingestion paths.
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	filePath      string
}

// NewVectorDBManager initializes a vector database manager backed by a
// persistent chromem DB (or an in-memory one for tests and dry runs).
func NewVectorDBManager(dbPath, collectionName string, inMemory bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	m := &VectorDBManager{
		db:            db,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
		filePath:      dbPath + "/" + collectionName + ".chromem",
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collection = c
	log.Debug().Str("collection", collectionName).Int("documents", c.Count()).Msg("Collection ready")

	return m, nil
}

// Add persists pre-embedded chunk documents.
func (m *VectorDBManager) Add(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        d.ID,
			Content:   d.Text,
			Metadata:  d.Metadata,
			Embedding: d.Embedding,
		}
	}
	if err := m.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Search performs a similarity query, optionally filtered by source
// type. chromem rejects nResults above the collection size, so the
// limit is clamped.
func (m *VectorDBManager) Search(ctx context.Context, queryEmbedding []float32, limit int, sourceType string) ([]store.Result, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}

	count := m.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	opts := chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       limit,
	}
	if sourceType != "" {
		opts.Where = map[string]string{"source_type": sourceType}
	}

	results, err := m.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]store.Result, len(results))
	for i, r := range results {
		out[i] = store.Result{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (m *VectorDBManager) Count(ctx context.Context) (int, error) {
	return m.collection.Count(), nil
}

// Reset drops and recreates the collection.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	name := m.collection.Name
	if err := m.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	c, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %v", err)
	}
	m.collection = c
	return nil
}

// Export writes the collection to an encrypted file, for moving an
// in-memory ingest to another machine.
func (m *VectorDBManager) Export(ctx context.Context) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	log.Debug().Str("collection", m.collection.Name).Str("file", m.filePath).Msg("Exporting collection")
	if err := m.db.ExportToFile(m.filePath, compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import loads a previously exported collection file and points the
// manager at the imported collection.
func (m *VectorDBManager) Import(ctx context.Context) error {
	name := m.collection.Name
	if err := m.db.ImportFromFile(m.filePath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	c, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to open imported collection: %v", err)
	}
	m.collection = c
	log.Debug().Str("collection", name).Int("documents", c.Count()).Msg("Imported collection")
	return nil
}
