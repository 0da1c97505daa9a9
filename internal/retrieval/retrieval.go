// Package retrieval turns a free-text query into ranked chunks and the
// formatted context block fed to the chat model.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"mentor-rag/internal/embedding"
	"mentor-rag/internal/models"
	"mentor-rag/internal/store"
)

// RetrievedChunk is one search hit with its attribution metadata.
type RetrievedChunk struct {
	ID             string
	Text           string
	Metadata       map[string]string
	Distance       float64
	RelevanceScore float64
	SourceType     string
}

// IsPersonal reports whether the chunk came from the user's own writing
// (journal or blog) rather than a wisdom text.
func (c RetrievedChunk) IsPersonal() bool {
	return c.SourceType == models.SourceJournal || c.SourceType == models.SourceBlog
}

func (c RetrievedChunk) IsWisdom() bool {
	return c.SourceType == models.SourceWisdom
}

// Result carries the chunks plus the context block for the prompt.
type Result struct {
	Query            string
	Chunks           []RetrievedChunk
	PersonalChunks   []RetrievedChunk
	WisdomChunks     []RetrievedChunk
	FormattedContext string
}

type Service struct {
	store    store.Store
	embedder embedding.Embedder
	topK     int
}

func NewService(st store.Store, embedder embedding.Embedder, topK int) *Service {
	return &Service{store: st, embedder: embedder, topK: topK}
}

// Retrieve embeds the query, searches the store and formats the
// context. topK <= 0 uses the service default; sourceFilter restricts
// results to one source type.
func (s *Service) Retrieve(ctx context.Context, query string, topK int, sourceFilter string) (*Result, error) {
	if topK <= 0 {
		topK = s.topK
	}

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, queryEmbedding, topK, strings.ToLower(sourceFilter))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	chunks := make([]RetrievedChunk, len(hits))
	for i, h := range hits {
		similarity := float64(h.Similarity)
		chunks[i] = RetrievedChunk{
			ID:             h.ID,
			Text:           h.Text,
			Metadata:       h.Metadata,
			Distance:       1 - similarity,
			RelevanceScore: similarity,
			SourceType:     h.Metadata["source_type"],
		}
	}

	result := &Result{Query: query, Chunks: chunks}
	for _, c := range chunks {
		switch {
		case c.IsPersonal():
			result.PersonalChunks = append(result.PersonalChunks, c)
		case c.IsWisdom():
			result.WisdomChunks = append(result.WisdomChunks, c)
		}
	}
	result.FormattedContext = formatContext(result.PersonalChunks, result.WisdomChunks)

	log.Debug().
		Int("total", len(chunks)).
		Int("personal", len(result.PersonalChunks)).
		Int("wisdom", len(result.WisdomChunks)).
		Msg("Retrieved chunks")

	return result, nil
}

func formatContext(personal, wisdom []RetrievedChunk) string {
	var sections []string
	if len(personal) > 0 {
		sections = append(sections, formatPersonalChunks(personal))
	}
	if len(wisdom) > 0 {
		sections = append(sections, formatWisdomChunks(wisdom))
	}
	if len(sections) == 0 {
		return "[No relevant context found]"
	}
	return strings.Join(sections, "\n\n")
}

func formatPersonalChunks(chunks []RetrievedChunk) string {
	lines := []string{"=== FROM THE USER'S PERSONAL HISTORY ===\n"}
	for i, c := range chunks {
		date := c.Metadata["date"]
		if date == "" {
			date = "Unknown date"
		}

		var header string
		switch c.SourceType {
		case models.SourceJournal:
			header = fmt.Sprintf("[Journal Entry - %s]", date)
		case models.SourceBlog:
			title := c.Metadata["title"]
			if title == "" {
				title = "Untitled"
			}
			header = fmt.Sprintf("[Blog Post: %q - %s]", title, date)
		default:
			header = fmt.Sprintf("[%s - %s]", c.SourceType, date)
		}

		lines = append(lines, fmt.Sprintf("--- Entry %d %s ---", i+1, header))
		lines = append(lines, strings.TrimSpace(c.Text))
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func formatWisdomChunks(chunks []RetrievedChunk) string {
	lines := []string{"=== FROM CONTEMPLATIVE TRADITIONS ===\n"}
	for i, c := range chunks {
		source := c.Metadata["title"]
		if source == "" {
			source = "Unknown source"
		}

		var header string
		if tradition := c.Metadata["tradition"]; tradition != "" {
			header = fmt.Sprintf("[%s: %s]", tradition, source)
		} else {
			header = fmt.Sprintf("[%s]", source)
		}

		lines = append(lines, fmt.Sprintf("--- Wisdom %d %s ---", i+1, header))
		lines = append(lines, strings.TrimSpace(c.Text))
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
