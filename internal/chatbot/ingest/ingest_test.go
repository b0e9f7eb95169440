package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	dim   int
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, f.dim)
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

type fakeChunkSink struct {
	mu       sync.Mutex
	upserted []*model.ContentChunk
	batches  int
}

func (f *fakeChunkSink) EnsureCollection(context.Context) error { return nil }

func (f *fakeChunkSink) Upsert(_ context.Context, chunks []*model.ContentChunk) error {
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return errors.ErrInvalidInput.WithCause(err)
		}
	}
	f.mu.Lock()
	f.upserted = append(f.upserted, chunks...)
	f.batches++
	f.mu.Unlock()
	return nil
}

func (f *fakeChunkSink) Search(context.Context, *store.SearchQuery) ([]store.ScoredChunk, error) {
	return nil, nil
}

func (f *fakeChunkSink) Stats(context.Context) (int64, error) { return int64(len(f.upserted)), nil }
func (f *fakeChunkSink) Drop(context.Context) error           { return nil }

func TestBuildChunksTracksHeadings(t *testing.T) {
	texts := []string{
		"# Chapter 1: Foundations\nRobots are programmable machines.",
		"## Kinematics\nThe pose is given by $x = f(q)$.",
		"### Forward Kinematics\n```go\nq := solve(pose)\n```",
		"# Chapter 2: Dynamics\n| torque | joint |\n|--------|-------|",
	}

	chunks := buildChunks(texts, "robotics-101", "chapter-01")
	require.Len(t, chunks, 4)

	assert.Equal(t, "Chapter 1: Foundations", chunks[0].Chapter)
	assert.Empty(t, chunks[0].Section)
	assert.Equal(t, "Chapter 1: Foundations > chapter-01", chunks[0].HeadingPath)

	assert.Equal(t, "Chapter 1: Foundations", chunks[1].Chapter)
	assert.Equal(t, "Kinematics", chunks[1].Section)
	assert.Equal(t, "Chapter 1: Foundations > Kinematics", chunks[1].HeadingPath)
	assert.True(t, chunks[1].ContainsEquation)
	assert.False(t, chunks[1].ContainsCode)

	assert.Equal(t, "Forward Kinematics", chunks[2].Subsection)
	assert.True(t, chunks[2].ContainsCode)

	// A new chapter resets section and subsection.
	assert.Equal(t, "Chapter 2: Dynamics", chunks[3].Chapter)
	assert.Empty(t, chunks[3].Section)
	assert.Empty(t, chunks[3].Subsection)
	assert.True(t, chunks[3].ContainsTable)

	for i, c := range chunks {
		assert.Equal(t, "robotics-101", c.TextbookID)
		assert.Equal(t, i, c.ChunkIndex)
		assert.NotEmpty(t, c.ID)
	}
}

func TestBuildChunksLinksNeighbours(t *testing.T) {
	chunks := buildChunks([]string{"# A\none", "two", "three"}, "robotics-101", "a")
	require.Len(t, chunks, 3)

	assert.Nil(t, chunks[0].PreviousChunkID)
	require.NotNil(t, chunks[0].NextChunkID)
	assert.Equal(t, chunks[1].ID, *chunks[0].NextChunkID)

	require.NotNil(t, chunks[1].PreviousChunkID)
	assert.Equal(t, chunks[0].ID, *chunks[1].PreviousChunkID)
	require.NotNil(t, chunks[1].NextChunkID)
	assert.Equal(t, chunks[2].ID, *chunks[1].NextChunkID)

	assert.Nil(t, chunks[2].NextChunkID)
}

func TestBuildChunksFallsBackToFileStem(t *testing.T) {
	chunks := buildChunks([]string{"No headings in this text."}, "robotics-101", "appendix")
	require.Len(t, chunks, 1)

	assert.Equal(t, "appendix", chunks[0].Chapter)
	assert.Equal(t, "appendix > appendix", chunks[0].HeadingPath)
}

func TestIngestFileStoresValidChunks(t *testing.T) {
	dir := t.TempDir()
	content := "# Chapter 1: Foundations\n\nRobots are programmable machines " +
		"that sense and act.\n\n## Kinematics\n\nThe pose of the end effector " +
		"follows from the joint angles."
	path := filepath.Join(dir, "chapter-01.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	embedder := &fakeEmbedder{dim: model.EmbeddingDim}
	sink := &fakeChunkSink{}

	n, err := New(embedder, sink).IngestFile(context.Background(), path, "robotics-101")
	require.NoError(t, err)
	require.Positive(t, n)
	require.Len(t, sink.upserted, n)

	// Everything fits in a single batch, so exactly one embed round trip.
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, sink.batches)

	for _, c := range sink.upserted {
		require.NoError(t, c.Validate())
		assert.Equal(t, "robotics-101", c.TextbookID)
		assert.Equal(t, "Chapter 1: Foundations", c.Chapter)
	}
}

func TestStoreChunksRunsInBatches(t *testing.T) {
	texts := make([]string, 250)
	for i := range texts {
		texts[i] = fmt.Sprintf("Paragraph %d about joint-space control.", i)
	}
	chunks := buildChunks(texts, "robotics-101", "chapter-02")

	embedder := &fakeEmbedder{dim: model.EmbeddingDim}
	sink := &fakeChunkSink{}

	n, err := New(embedder, sink).storeChunks(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Len(t, sink.upserted, 250)

	// 250 chunks split into batches of 100: two full batches plus the rest.
	assert.Equal(t, 3, embedder.calls)
	assert.Equal(t, 3, sink.batches)
}

func TestIngestDirectoryRejectsEmptyDir(t *testing.T) {
	_, err := New(&fakeEmbedder{dim: model.EmbeddingDim}, &fakeChunkSink{}).
		IngestDirectory(context.Background(), t.TempDir(), "robotics-101")
	assert.True(t, errors.Is(err, errors.ErrIngest))
}

func TestIngestFileRejectsWrongDimension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\nsome text"), 0o644))

	_, err := New(&fakeEmbedder{dim: 768}, &fakeChunkSink{}).
		IngestFile(context.Background(), path, "robotics-101")
	assert.True(t, errors.Is(err, errors.ErrEmbedding))
}
