package biz

import (
	"context"
	"time"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/llm"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// DefaultTopK bounds retrieval for the primary chat pipeline.
const DefaultTopK = 5

// Retriever embeds a query and runs a filtered similarity search against the
// chunk collection.
type Retriever struct {
	embedder llm.EmbeddingProvider
	chunks   store.VectorStore

	// minScore drops hits scoring below it at search time. Zero keeps
	// everything; scope detection applies its own threshold downstream.
	minScore float64
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder llm.EmbeddingProvider, chunks store.VectorStore, minScore float64) *Retriever {
	return &Retriever{embedder: embedder, chunks: chunks, minScore: minScore}
}

// Retrieve embeds query and returns up to topK chunks for textbookID,
// optionally narrowed to chapter, with the elapsed wall-clock time in
// milliseconds. An empty result is not an error. Embedding failures and
// dimension mismatches wrap ErrEmbedding; search failures wrap ErrRetrieval.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, textbookID, chapter string) ([]store.ScoredChunk, int64, error) {
	start := time.Now()

	vector, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, elapsedMs(start), errors.ErrEmbedding.WithCause(err)
	}
	if len(vector) != model.EmbeddingDim {
		return nil, elapsedMs(start), errors.ErrEmbedding.WithMessagef(
			"embedding has %d dimensions, expected %d", len(vector), model.EmbeddingDim)
	}

	hits, err := r.chunks.Search(ctx, &store.SearchQuery{
		Vector:     vector,
		TopK:       topK,
		TextbookID: textbookID,
		Chapter:    chapter,
		MinScore:   r.minScore,
	})
	if err != nil {
		return nil, elapsedMs(start), errors.ErrRetrieval.WithCause(err)
	}

	return hits, elapsedMs(start), nil
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
