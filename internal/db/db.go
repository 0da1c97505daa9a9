// Package db is the Postgres/pgvector store backend, for deployments
// where the corpus outgrows the embedded chromem store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"mentor-rag/internal/store"
)

// ChunkDocument is one stored chunk row. The embedding column size must
// match the embedding model's output dimension.
type ChunkDocument struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            string    `bun:"id,pk"`
	Text          string    `bun:"text,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	SourceType    string    `bun:"source_type,notnull"`
	EntryID       string    `bun:"entry_id,notnull"`
	ChunkIndex    int       `bun:"chunk_index,notnull"`
	TotalChunks   int       `bun:"total_chunks,notnull"`
	Date          string    `bun:"date"`
	Title         string    `bun:"title"`
	Tags          string    `bun:"tags"`
	Categories    string    `bun:"categories"`
	PhotoCount    int       `bun:"photo_count"`
	Tradition     string    `bun:"tradition"`
	Distance      float64   `bun:"distance,scanonly"`
}

type PgStore struct {
	db *bun.DB
}

func ConnectDB(dsn string, debug bool) (*PgStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PgStore{db: db}, nil
}

func (s *PgStore) Close() error {
	return s.db.Close()
}

// InitDB creates the chunks table and the pgvector extension.
func (s *PgStore) InitDB(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}
	_, err := s.db.NewCreateTable().Model((*ChunkDocument)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *PgStore) Add(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]ChunkDocument, len(docs))
	for i, d := range docs {
		rows[i] = fromStoreDocument(d)
	}
	_, err := s.db.NewInsert().Model(&rows).On("CONFLICT (id) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	return err
}

func (s *PgStore) Search(ctx context.Context, queryEmbedding []float32, limit int, sourceType string) ([]store.Result, error) {
	var rows []ChunkDocument
	q := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.*").
		ColumnExpr("c.embedding <-> ? AS distance", queryEmbedding).
		OrderExpr("c.embedding <-> ?", queryEmbedding).
		Limit(limit)
	if sourceType != "" {
		q = q.Where("c.source_type = ?", sourceType)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	out := make([]store.Result, len(rows))
	for i, r := range rows {
		out[i] = store.Result{
			ID:         r.ID,
			Text:       r.Text,
			Metadata:   r.metadata(),
			Similarity: float32(1 - r.Distance),
		}
	}
	return out, nil
}

func (s *PgStore) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*ChunkDocument)(nil)).Count(ctx)
}

// Reset drops all stored chunks.
func (s *PgStore) Reset(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*ChunkDocument)(nil)).IfExists().Exec(ctx)
	if err != nil {
		return err
	}
	return s.InitDB(ctx)
}

func fromStoreDocument(d store.Document) ChunkDocument {
	row := ChunkDocument{
		ID:        d.ID,
		Text:      d.Text,
		Embedding: d.Embedding,
	}
	md := d.Metadata
	row.SourceType = md["source_type"]
	row.EntryID = md["entry_id"]
	row.ChunkIndex, _ = strconv.Atoi(md["chunk_index"])
	row.TotalChunks, _ = strconv.Atoi(md["total_chunks"])
	row.Date = md["date"]
	row.Title = md["title"]
	row.Tags = md["tags"]
	row.Categories = md["categories"]
	row.PhotoCount, _ = strconv.Atoi(md["photo_count"])
	row.Tradition = md["tradition"]
	return row
}

func (r ChunkDocument) metadata() map[string]string {
	md := map[string]string{
		"source_type":  r.SourceType,
		"entry_id":     r.EntryID,
		"chunk_index":  strconv.Itoa(r.ChunkIndex),
		"total_chunks": strconv.Itoa(r.TotalChunks),
		"date":         r.Date,
	}
	if r.Title != "" {
		md["title"] = r.Title
	}
	if r.Tags != "" {
		md["tags"] = r.Tags
	}
	if r.Categories != "" {
		md["categories"] = r.Categories
	}
	if r.PhotoCount > 0 {
		md["has_photos"] = "true"
		md["photo_count"] = strconv.Itoa(r.PhotoCount)
	}
	if r.Tradition != "" {
		md["tradition"] = r.Tradition
	}
	return md
}
