// Package ingest chunks markdown textbook content, embeds it, and loads it
// into the vector store.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/llm"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

const (
	// ChunkSize and ChunkOverlap are in characters, tuned for textbook
	// paragraphs.
	ChunkSize    = 512
	ChunkOverlap = 50

	// batchSize bounds one embed-and-upsert round trip.
	batchSize = 100

	// embedWorkers bounds concurrent embed-and-upsert batches.
	embedWorkers = 4
)

// markdownSeparators split on heading boundaries before falling back to
// paragraphs, lines, and words.
var markdownSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", " ", ""}

// Ingestor loads markdown files into the chunk collection.
type Ingestor struct {
	embedder llm.EmbeddingProvider
	chunks   store.VectorStore
	splitter textsplitter.RecursiveCharacter
}

// New creates an Ingestor over the given embedder and chunk store.
func New(embedder llm.EmbeddingProvider, chunks store.VectorStore) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		chunks:   chunks,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(ChunkSize),
			textsplitter.WithChunkOverlap(ChunkOverlap),
			textsplitter.WithSeparators(markdownSeparators),
		),
	}
}

// IngestDirectory ingests every .md file in dir, in lexical order. Returns
// the total number of chunks stored.
func (i *Ingestor) IngestDirectory(ctx context.Context, dir, textbookID string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return 0, errors.ErrIngest.WithCause(err)
	}
	if len(paths) == 0 {
		return 0, errors.ErrIngest.WithMessagef("no markdown files found in %s", dir)
	}
	sort.Strings(paths)

	total := 0
	for _, path := range paths {
		n, err := i.IngestFile(ctx, path, textbookID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// IngestFile chunks one markdown file, embeds the chunks, and upserts them.
// Returns the number of chunks stored.
func (i *Ingestor) IngestFile(ctx context.Context, path, textbookID string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.ErrIngest.WithCause(err)
	}

	texts, err := i.splitter.SplitText(string(content))
	if err != nil {
		return 0, errors.ErrIngest.WithCause(err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	chunks := buildChunks(texts, textbookID, stem)
	logger.Infow("Chunked file", "file", filepath.Base(path), "chunks", len(chunks))

	return i.storeChunks(ctx, chunks)
}

// storeChunks embeds and upserts chunks in batches of batchSize, running
// batches concurrently on a worker pool. Returns the number of chunks stored
// and the first batch error, if any.
func (i *Ingestor) storeChunks(ctx context.Context, chunks []*model.ContentChunk) (int, error) {
	pool, err := ants.NewPool(embedWorkers)
	if err != nil {
		return 0, errors.ErrIngest.WithCause(err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		stored   int
		firstErr error
	)
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := i.embedAndStore(ctx, batch); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			stored += len(batch)
			mu.Unlock()
			logger.Infow("Uploaded chunk batch", "count", len(batch))
		}); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = errors.ErrIngest.WithCause(err)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	return stored, firstErr
}

func (i *Ingestor) embedAndStore(ctx context.Context, chunks []*model.ContentChunk) error {
	texts := make([]string, len(chunks))
	for idx, c := range chunks {
		texts[idx] = c.Text
	}

	vectors, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return errors.ErrEmbedding.WithCause(err)
	}
	if len(vectors) != len(chunks) {
		return errors.ErrEmbedding.WithMessagef(
			"embedding count mismatch: want %d, got %d", len(chunks), len(vectors))
	}

	for idx, vec := range vectors {
		if len(vec) != model.EmbeddingDim {
			return errors.ErrEmbedding.WithMessagef(
				"embedding must have %d dimensions, got %d", model.EmbeddingDim, len(vec))
		}
		chunks[idx].Embedding = vec
	}

	return i.chunks.Upsert(ctx, chunks)
}

// headings tracks the current markdown heading hierarchy while walking
// chunks in document order.
type headings struct {
	chapter    string
	section    string
	subsection string
}

func (h *headings) scan(text string) {
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			h.chapter = strings.TrimSpace(line[2:])
			h.section = ""
			h.subsection = ""
		case strings.HasPrefix(line, "## "):
			h.section = strings.TrimSpace(line[3:])
			h.subsection = ""
		case strings.HasPrefix(line, "### "):
			h.subsection = strings.TrimSpace(line[4:])
		}
	}
}

// buildChunks assembles chunk models from split texts, carrying heading
// context across chunks and linking neighbours. The file stem stands in for
// missing headings.
func buildChunks(texts []string, textbookID, stem string) []*model.ContentChunk {
	now := time.Now().UTC()
	h := &headings{}

	chunks := make([]*model.ContentChunk, 0, len(texts))
	for idx, text := range texts {
		h.scan(text)

		chapter := h.chapter
		if chapter == "" {
			chapter = stem
		}
		section := h.section
		pathLeaf := section
		if pathLeaf == "" {
			pathLeaf = stem
		}

		chunks = append(chunks, &model.ContentChunk{
			ID:               uuid.NewString(),
			TextbookID:       textbookID,
			Text:             text,
			Chapter:          chapter,
			Section:          section,
			Subsection:       h.subsection,
			HeadingPath:      chapter + " > " + pathLeaf,
			ChunkIndex:       idx,
			ContainsEquation: strings.Contains(text, "$"),
			ContainsCode:     strings.Contains(text, "```"),
			ContainsTable:    containsTable(text),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	for idx, c := range chunks {
		if idx > 0 {
			c.PreviousChunkID = &chunks[idx-1].ID
		}
		if idx < len(chunks)-1 {
			c.NextChunkID = &chunks[idx+1].ID
		}
	}
	return chunks
}

func containsTable(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			return true
		}
	}
	return false
}
