package models

import (
	"strconv"
	"strings"
)

// source types stored in chunk metadata and used for retrieval filters
const (
	SourceJournal = "journal"
	SourceBlog    = "blog"
	SourceWisdom  = "wisdom"
)

// Entry is one unit of source content: a journal entry, a published blog
// post, or a section of a contemplative reference text.
type Entry struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Date       string   `json:"date"`
	Tags       []string `json:"tags"`
	SourceType string   `json:"source_type"`

	// blog posts only
	Title      string   `json:"title,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// journal entries only
	PhotoCount int `json:"photo_count,omitempty"`

	// wisdom texts only
	Tradition string `json:"tradition,omitempty"`
}

// Chunk is a contiguous slice of an Entry's text, independently
// embeddable and retrievable. All non-text entry fields are copied onto
// every chunk so each one is attributable on its own.
type Chunk struct {
	ID          string
	Text        string
	ChunkIndex  int
	TotalChunks int

	EntryID    string
	Date       string
	Tags       []string
	SourceType string
	Title      string
	Categories []string
	PhotoCount int
	Tradition  string
}

// Metadata flattens the chunk's attribution fields into the string map
// the vector store persists alongside the embedding.
func (c Chunk) Metadata() map[string]string {
	md := map[string]string{
		"source_type":  c.SourceType,
		"entry_id":     c.EntryID,
		"chunk_index":  strconv.Itoa(c.ChunkIndex),
		"total_chunks": strconv.Itoa(c.TotalChunks),
		"date":         c.Date,
	}
	if len(c.Tags) > 0 {
		md["tags"] = strings.Join(c.Tags, ",")
	}
	if c.Title != "" {
		md["title"] = c.Title
	}
	if len(c.Categories) > 0 {
		md["categories"] = strings.Join(c.Categories, ",")
	}
	if c.PhotoCount > 0 {
		md["has_photos"] = "true"
		md["photo_count"] = strconv.Itoa(c.PhotoCount)
	}
	if c.Tradition != "" {
		md["tradition"] = c.Tradition
	}
	return md
}
