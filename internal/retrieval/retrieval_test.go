package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-rag/internal/models"
	"mentor-rag/internal/store"
)

type fakeEmbedder struct {
	queries []string
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeStore struct {
	results    []store.Result
	lastLimit  int
	lastSource string
}

func (f *fakeStore) Add(ctx context.Context, docs []store.Document) error { return nil }

func (f *fakeStore) Search(ctx context.Context, queryEmbedding []float32, limit int, sourceType string) ([]store.Result, error) {
	f.lastLimit = limit
	f.lastSource = sourceType
	return f.results, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.results), nil }
func (f *fakeStore) Reset(ctx context.Context) error        { return nil }

func journalResult(id string, similarity float32) store.Result {
	return store.Result{
		ID:         id,
		Text:       "Journal text for " + id,
		Similarity: similarity,
		Metadata: map[string]string{
			"source_type": models.SourceJournal,
			"date":        "2024-01-15T10:30:00Z",
		},
	}
}

func TestRetrievePartitionsSources(t *testing.T) {
	st := &fakeStore{results: []store.Result{
		journalResult("j1", 0.9),
		{
			ID:         "w1",
			Text:       "All conditioned things are impermanent.",
			Similarity: 0.8,
			Metadata: map[string]string{
				"source_type": models.SourceWisdom,
				"title":       "Dhammapada",
				"tradition":   "Buddhism",
			},
		},
		{
			ID:         "b1",
			Text:       "Blog post text.",
			Similarity: 0.7,
			Metadata: map[string]string{
				"source_type": models.SourceBlog,
				"title":       "On Letting Go",
				"date":        "2024-01-15",
			},
		},
	}}
	svc := NewService(st, &fakeEmbedder{}, 10)

	result, err := svc.Retrieve(context.Background(), "what did I write about impermanence?", 0, "")

	require.NoError(t, err)
	assert.Len(t, result.Chunks, 3)
	assert.Len(t, result.PersonalChunks, 2)
	assert.Len(t, result.WisdomChunks, 1)
	assert.Equal(t, 10, st.lastLimit, "default topK used when not overridden")

	// relevance mirrors similarity, distance is its complement
	assert.InDelta(t, 0.9, result.Chunks[0].RelevanceScore, 1e-6)
	assert.InDelta(t, 0.1, result.Chunks[0].Distance, 1e-6)
}

func TestRetrieveFormattedContext(t *testing.T) {
	st := &fakeStore{results: []store.Result{
		journalResult("j1", 0.9),
		{
			ID:         "b1",
			Text:       "Blog body.",
			Similarity: 0.7,
			Metadata: map[string]string{
				"source_type": models.SourceBlog,
				"title":       "On Letting Go",
				"date":        "2024-01-15",
			},
		},
		{
			ID:         "w1",
			Text:       "Wisdom body.",
			Similarity: 0.6,
			Metadata: map[string]string{
				"source_type": models.SourceWisdom,
				"title":       "Dhammapada",
				"tradition":   "Buddhism",
			},
		},
	}}
	svc := NewService(st, &fakeEmbedder{}, 10)

	result, err := svc.Retrieve(context.Background(), "query", 0, "")
	require.NoError(t, err)

	ctx := result.FormattedContext
	assert.Contains(t, ctx, "=== FROM THE USER'S PERSONAL HISTORY ===")
	assert.Contains(t, ctx, "[Journal Entry - 2024-01-15T10:30:00Z]")
	assert.Contains(t, ctx, `[Blog Post: "On Letting Go" - 2024-01-15]`)
	assert.Contains(t, ctx, "=== FROM CONTEMPLATIVE TRADITIONS ===")
	assert.Contains(t, ctx, "[Buddhism: Dhammapada]")
}

func TestRetrieveNoResults(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeEmbedder{}, 10)

	result, err := svc.Retrieve(context.Background(), "anything", 0, "")

	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
	assert.Equal(t, "[No relevant context found]", result.FormattedContext)
}

func TestRetrieveSourceFilterAndLimit(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st, &fakeEmbedder{}, 10)

	_, err := svc.Retrieve(context.Background(), "q", 3, "Journal")

	require.NoError(t, err)
	assert.Equal(t, 3, st.lastLimit)
	assert.Equal(t, "journal", st.lastSource, "source filter lowercased")
}

func TestRetrieveEmbedsTheQuery(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := NewService(&fakeStore{}, emb, 10)

	_, err := svc.Retrieve(context.Background(), "the exact query", 0, "")

	require.NoError(t, err)
	require.Len(t, emb.queries, 1)
	assert.Equal(t, "the exact query", emb.queries[0])
}
