package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/component/milvus"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// unknownPage is the stored sentinel for chunks without a page number;
// Milvus scalar fields cannot be null.
const unknownPage = int64(-1)

var chunkOutputFields = []string{
	"textbook_id", "text", "chapter", "section", "subsection",
	"heading_path", "page_number", "chunk_index",
	"previous_chunk_id", "next_chunk_id",
	"contains_equation", "contains_code", "contains_table",
}

// ChunkStore implements VectorStore on Milvus.
type ChunkStore struct {
	client     *milvus.Client
	collection string
}

var _ VectorStore = (*ChunkStore)(nil)

// NewChunkStore creates a Milvus-backed chunk store over the named
// collection.
func NewChunkStore(client *milvus.Client, collection string) *ChunkStore {
	return &ChunkStore{client: client, collection: collection}
}

func (s *ChunkStore) EnsureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "Textbook content chunks with location metadata",
		Dimension:   model.EmbeddingDim,
		MetaFields: []milvus.MetaField{
			{Name: "textbook_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "text", DataType: entity.FieldTypeVarChar, MaxLen: model.MaxChunkTextLen},
			{Name: "chapter", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "section", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "subsection", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "heading_path", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "page_number", DataType: entity.FieldTypeInt64},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "previous_chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "next_chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "contains_equation", DataType: entity.FieldTypeBool},
			{Name: "contains_code", DataType: entity.FieldTypeBool},
			{Name: "contains_table", DataType: entity.FieldTypeBool},
		},
	}
	if err := s.client.CreateCollection(ctx, schema); err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}

func (s *ChunkStore) Upsert(ctx context.Context, chunks []*model.ContentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return errors.ErrInvalidInput.WithCause(err)
		}
	}

	n := len(chunks)
	data := &milvus.InsertData{
		IDs:        make([]string, n),
		Embeddings: make([][]float32, n),
		Metadata: map[string][]any{
			"textbook_id":       make([]any, n),
			"text":              make([]any, n),
			"chapter":           make([]any, n),
			"section":           make([]any, n),
			"subsection":        make([]any, n),
			"heading_path":      make([]any, n),
			"page_number":       make([]any, n),
			"chunk_index":       make([]any, n),
			"previous_chunk_id": make([]any, n),
			"next_chunk_id":     make([]any, n),
			"contains_equation": make([]any, n),
			"contains_code":     make([]any, n),
			"contains_table":    make([]any, n),
		},
	}

	for i, c := range chunks {
		data.IDs[i] = c.ID
		data.Embeddings[i] = c.Embedding
		data.Metadata["textbook_id"][i] = c.TextbookID
		data.Metadata["text"][i] = c.Text
		data.Metadata["chapter"][i] = c.Chapter
		data.Metadata["section"][i] = c.Section
		data.Metadata["subsection"][i] = c.Subsection
		data.Metadata["heading_path"][i] = c.HeadingPath
		data.Metadata["page_number"][i] = pageValue(c.PageNumber)
		data.Metadata["chunk_index"][i] = int64(c.ChunkIndex)
		data.Metadata["previous_chunk_id"][i] = stringValue(c.PreviousChunkID)
		data.Metadata["next_chunk_id"][i] = stringValue(c.NextChunkID)
		data.Metadata["contains_equation"][i] = c.ContainsEquation
		data.Metadata["contains_code"][i] = c.ContainsCode
		data.Metadata["contains_table"][i] = c.ContainsTable
	}

	if err := s.client.Upsert(ctx, s.collection, data); err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}

func (s *ChunkStore) Search(ctx context.Context, query *SearchQuery) ([]ScoredChunk, error) {
	if query.TextbookID == "" {
		return nil, errors.ErrInvalidInput.WithMessage("textbook_id is required for chunk search")
	}
	if len(query.Vector) != model.EmbeddingDim {
		return nil, errors.ErrInvalidInput.WithMessagef(
			"query vector must have %d dimensions, got %d", model.EmbeddingDim, len(query.Vector))
	}

	filter := fmt.Sprintf("textbook_id == %s", strconv.Quote(query.TextbookID))
	if query.Chapter != "" {
		filter += fmt.Sprintf(" and chapter == %s", strconv.Quote(query.Chapter))
	}

	results, err := s.client.Search(ctx, s.collection, &milvus.SearchParams{
		Vector:       query.Vector,
		TopK:         query.TopK,
		Filter:       filter,
		OutputFields: chunkOutputFields,
	})
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}

	return scoreResults(results, query.MinScore), nil
}

// scoreResults converts raw search results to scored chunks, dropping hits
// below minScore. Zero minScore keeps everything.
func scoreResults(results []milvus.SearchResult, minScore float64) []ScoredChunk {
	scored := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		score := float64(r.Score)
		if minScore > 0 && score < minScore {
			continue
		}
		scored = append(scored, ScoredChunk{
			Chunk: chunkFromMetadata(r.ID, r.Metadata),
			Score: score,
		})
	}
	return scored
}

func (s *ChunkStore) Stats(ctx context.Context) (int64, error) {
	count, err := s.client.GetCollectionStats(ctx, s.collection)
	if err != nil {
		return 0, errors.ErrStorage.WithCause(err)
	}
	return count, nil
}

func (s *ChunkStore) Drop(ctx context.Context) error {
	if err := s.client.DropCollection(ctx, s.collection); err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}

func chunkFromMetadata(id string, meta map[string]any) model.ContentChunk {
	c := model.ContentChunk{
		ID:          id,
		TextbookID:  metaString(meta, "textbook_id"),
		Text:        metaString(meta, "text"),
		Chapter:     metaString(meta, "chapter"),
		Section:     metaString(meta, "section"),
		Subsection:  metaString(meta, "subsection"),
		HeadingPath: metaString(meta, "heading_path"),
		ChunkIndex:  int(metaInt64(meta, "chunk_index", 0)),
	}

	if page := metaInt64(meta, "page_number", unknownPage); page != unknownPage {
		p := int(page)
		c.PageNumber = &p
	}
	if prev := metaString(meta, "previous_chunk_id"); prev != "" {
		c.PreviousChunkID = &prev
	}
	if next := metaString(meta, "next_chunk_id"); next != "" {
		c.NextChunkID = &next
	}

	c.ContainsEquation = metaBool(meta, "contains_equation")
	c.ContainsCode = metaBool(meta, "contains_code")
	c.ContainsTable = metaBool(meta, "contains_table")
	return c
}

func pageValue(p *int) int64 {
	if p == nil {
		return unknownPage
	}
	return int64(*p)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaInt64(meta map[string]any, key string, fallback int64) int64 {
	if v, ok := meta[key].(int64); ok {
		return v
	}
	return fallback
}

func metaBool(meta map[string]any, key string) bool {
	if v, ok := meta[key].(bool); ok {
		return v
	}
	return false
}
