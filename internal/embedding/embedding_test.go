package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmbedder struct {
	batchSizes []int
	next       float32
	err        error
}

func (r *recordingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{r.next}, nil
}

func (r *recordingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.batchSizes = append(r.batchSizes, len(texts))
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{r.next}
		r.next++
	}
	return out, nil
}

func TestEmbedChunksBatchBoundaries(t *testing.T) {
	emb := &recordingEmbedder{}
	texts := make([]string, 5)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	vectors, err := EmbedChunks(context.Background(), emb, texts, 2)

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, emb.batchSizes)

	// vector i pairs with text i across batch boundaries
	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i)}, v)
	}
}

func TestEmbedChunksSingleBatch(t *testing.T) {
	emb := &recordingEmbedder{}

	vectors, err := EmbedChunks(context.Background(), emb, []string{"a", "b", "c"}, 10)

	require.NoError(t, err)
	assert.Equal(t, []int{3}, emb.batchSizes)
	assert.Len(t, vectors, 3)
}

func TestEmbedChunksDefaultBatchSize(t *testing.T) {
	emb := &recordingEmbedder{}
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "x"
	}

	vectors, err := EmbedChunks(context.Background(), emb, texts, 0)

	require.NoError(t, err)
	assert.Equal(t, []int{32, 8}, emb.batchSizes)
	assert.Len(t, vectors, 40)
}

func TestEmbedChunksEmptyInput(t *testing.T) {
	emb := &recordingEmbedder{}

	vectors, err := EmbedChunks(context.Background(), emb, nil, 32)

	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, emb.batchSizes)
}

func TestEmbedChunksPropagatesError(t *testing.T) {
	emb := &recordingEmbedder{err: errors.New("provider down")}

	_, err := EmbedChunks(context.Background(), emb, []string{"a"}, 32)

	assert.ErrorContains(t, err, "provider down")
}
