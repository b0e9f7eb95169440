package biz

import (
	"context"
	"fmt"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/llm"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		f.calls++
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

type fakeChat struct {
	result  *llm.ChatResult
	err     error
	lastReq *llm.ChatRequest
}

func (f *fakeChat) ChatCompletion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeChat) Name() string { return "fake" }

type fakeVectorStore struct {
	hits      []store.ScoredChunk
	err       error
	lastQuery *store.SearchQuery
}

func (f *fakeVectorStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeVectorStore) Upsert(context.Context, []*model.ContentChunk) error { return nil }

func (f *fakeVectorStore) Search(_ context.Context, query *store.SearchQuery) ([]store.ScoredChunk, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeVectorStore) Stats(context.Context) (int64, error) { return int64(len(f.hits)), nil }

func (f *fakeVectorStore) Drop(context.Context) error { return nil }

type fakeSessionStore struct {
	session  *model.ConversationSession
	getErr   error
	touchErr error
	touched  int
}

func (f *fakeSessionStore) Create(_ context.Context, s *model.ConversationSession) error {
	f.session = s
	return nil
}

func (f *fakeSessionStore) Get(context.Context, string) (*model.ConversationSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.session == nil {
		return nil, fmt.Errorf("no session")
	}
	return f.session, nil
}

func (f *fakeSessionStore) Deactivate(context.Context, string) error { return nil }

func (f *fakeSessionStore) TouchActivity(context.Context, string) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched++
	return nil
}

type fakeMessageStore struct {
	history   []model.Message
	recentErr error
	createErr error
	created   []*model.Message
}

func (f *fakeMessageStore) Create(_ context.Context, msg *model.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeMessageStore) List(context.Context, string, int, int) ([]model.Message, error) {
	return f.history, nil
}

func (f *fakeMessageStore) Recent(context.Context, string, int) ([]model.Message, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.history, nil
}

func testVector() []float32 {
	return make([]float32, model.EmbeddingDim)
}

func testHit(id, chapter, text string, score float64) store.ScoredChunk {
	return store.ScoredChunk{
		Chunk: model.ContentChunk{
			ID:          id,
			TextbookID:  "robotics-101",
			Text:        text,
			Chapter:     chapter,
			Section:     "Forward Kinematics",
			HeadingPath: chapter + " > Forward Kinematics",
		},
		Score: score,
	}
}
