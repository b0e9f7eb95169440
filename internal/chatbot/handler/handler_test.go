package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookchat/internal/chatbot/biz"
	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/llm"
	"github.com/bookwise/bookchat/pkg/utils/errors"
	"github.com/bookwise/bookchat/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, model.EmbeddingDim)
	}
	return vectors, nil
}

func (f fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, _ := f.Embed(ctx, []string{text})
	return vectors[0], nil
}

func (fakeEmbedder) Name() string { return "fake" }

type fakeChat struct {
	content string
	err     error
}

func (f *fakeChat) ChatCompletion(context.Context, *llm.ChatRequest) (*llm.ChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResult{Content: f.content, Model: "fake-model"}, nil
}

func (f *fakeChat) Name() string { return "fake" }

type fakeVectors struct {
	hits []store.ScoredChunk
	err  error
}

func (f *fakeVectors) EnsureCollection(context.Context) error                 { return nil }
func (f *fakeVectors) Upsert(context.Context, []*model.ContentChunk) error    { return nil }
func (f *fakeVectors) Stats(context.Context) (int64, error)                   { return 0, nil }
func (f *fakeVectors) Drop(context.Context) error                             { return nil }
func (f *fakeVectors) Search(context.Context, *store.SearchQuery) ([]store.ScoredChunk, error) {
	return f.hits, f.err
}

type fakeSessions struct {
	byID map[string]*model.ConversationSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: make(map[string]*model.ConversationSession)}
}

func (f *fakeSessions) Create(_ context.Context, s *model.ConversationSession) error {
	if s.ID == "" {
		s.ID = "sess-1"
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.LastActivityAt = now
	s.IsActive = true
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*model.ConversationSession, error) {
	s, ok := f.byID[id]
	if !ok || !s.IsActive {
		return nil, errors.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) Deactivate(ctx context.Context, id string) error {
	s, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	s.IsActive = false
	return nil
}

func (f *fakeSessions) TouchActivity(_ context.Context, id string) error { return nil }

type fakeMessages struct {
	msgs []model.Message
}

func (f *fakeMessages) Create(_ context.Context, msg *model.Message) error {
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeMessages) List(_ context.Context, sessionID string, limit, offset int) ([]model.Message, error) {
	return f.msgs, nil
}

func (f *fakeMessages) Recent(_ context.Context, sessionID string, n int) ([]model.Message, error) {
	return f.msgs, nil
}

func chunkHit(score float64) store.ScoredChunk {
	return store.ScoredChunk{
		Chunk: model.ContentChunk{
			ID:          "chunk-1",
			TextbookID:  "robotics-101",
			Text:        "Forward kinematics maps joint angles to pose.",
			Chapter:     "Chapter 3",
			Section:     "Kinematics",
			HeadingPath: "Chapter 3 > Kinematics",
		},
		Score: score,
	}
}

func newChatEngine(vectors *fakeVectors, chat *fakeChat) *gin.Engine {
	retriever := biz.NewRetriever(fakeEmbedder{}, vectors, 0)
	generator := biz.NewGenerator(chat)
	usecase := biz.NewChatUsecase(retriever, generator, nil, nil, "robotics-101")

	engine := gin.New()
	engine.POST("/api/v1/chat", NewChatHandler(usecase).Chat)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestChatRejectsModeMismatch(t *testing.T) {
	engine := newChatEngine(&fakeVectors{}, &fakeChat{content: "ok"})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/chat", gin.H{
		"session_id": "sess-1",
		"message":    "What is selected here?",
		"query_mode": "selected_text",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestChatRejectsMissingFields(t *testing.T) {
	engine := newChatEngine(&fakeVectors{}, &fakeChat{content: "ok"})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/chat", gin.H{
		"session_id": "sess-1",
		"query_mode": "general",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestChatGeneralReturnsAnswerWithSources(t *testing.T) {
	engine := newChatEngine(
		&fakeVectors{hits: []store.ScoredChunk{chunkHit(0.9)}},
		&fakeChat{content: "The pose follows from the joint angles."},
	)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/chat", gin.H{
		"session_id": "sess-1",
		"message":    "What is forward kinematics?",
		"query_mode": "general",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "sess-1", body["session_id"])
	assert.Equal(t, "The pose follows from the joint angles.", body["response"])
	assert.Equal(t, false, body["is_out_of_scope"])
	assert.NotEmpty(t, body["message_id"])

	sources, ok := body["sources"].([]any)
	require.True(t, ok)
	require.Len(t, sources, 1)

	perf, ok := body["performance"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, perf, "retrieval_time_ms")
	assert.Contains(t, perf, "generation_time_ms")
	assert.Contains(t, perf, "total_time_ms")
}

func TestChatOutOfScopeHasEmptySources(t *testing.T) {
	engine := newChatEngine(&fakeVectors{}, &fakeChat{content: "That is outside this textbook."})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/chat", gin.H{
		"session_id": "sess-1",
		"message":    "Who won the world cup?",
		"query_mode": "general",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["is_out_of_scope"])

	sources, ok := body["sources"].([]any)
	require.True(t, ok)
	assert.Empty(t, sources)
}

func TestChatUpstreamFailureMapsToRetrievalError(t *testing.T) {
	engine := newChatEngine(&fakeVectors{err: errors.ErrRetrieval}, &fakeChat{content: "ok"})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/chat", gin.H{
		"session_id": "sess-1",
		"message":    "What is forward kinematics?",
		"query_mode": "general",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "RETRIEVAL_ERROR", body["code"])
}

func newSessionEngine(sessions store.SessionStore, messages store.MessageStore) *gin.Engine {
	h := NewSessionHandler(sessions, messages)
	engine := gin.New()
	engine.POST("/api/v1/sessions", h.Create)
	engine.GET("/api/v1/sessions/:id", h.Get)
	engine.GET("/api/v1/sessions/:id/messages", h.Messages)
	engine.DELETE("/api/v1/sessions/:id", h.Delete)
	return engine
}

func TestSessionEndpointsWithoutDatabase(t *testing.T) {
	engine := newSessionEngine(nil, nil)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/sessions", gin.H{"textbook_id": "robotics-101"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/sessions/sess-1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/sessions/sess-1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	engine := newSessionEngine(newFakeSessions(), &fakeMessages{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/sessions", gin.H{"textbook_id": "robotics-101"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	sessionID, _ := created["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "robotics-101", created["textbook_id"])
	assert.Equal(t, true, created["is_active"])

	w = doJSON(t, engine, http.MethodGet, "/api/v1/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)
	assert.Equal(t, sessionID, got["session_id"])

	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Empty(t, messages)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/sessions/"+sessionID+"/messages?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/sessions/"+sessionID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Deleting again reports not found; the session is already inactive.
	w = doJSON(t, engine, http.MethodDelete, "/api/v1/sessions/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "SESSION_NOT_FOUND", body["code"])

	w = doJSON(t, engine, http.MethodGet, "/api/v1/sessions/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionCreateRejectsBadDetailLevel(t *testing.T) {
	engine := newSessionEngine(newFakeSessions(), &fakeMessages{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/sessions", gin.H{
		"textbook_id":            "robotics-101",
		"preferred_detail_level": "verbose",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newQueryEngine(vectors *fakeVectors, chat *fakeChat) *gin.Engine {
	retriever := biz.NewRetriever(fakeEmbedder{}, vectors, 0)
	usecase := biz.NewQueryUsecase(retriever, chat, "fake-model", "robotics-101")

	engine := gin.New()
	engine.POST("/api/chatbot/query", NewQueryHandler(usecase).Query)
	return engine
}

func TestQueryReturnsAnswer(t *testing.T) {
	engine := newQueryEngine(
		&fakeVectors{hits: []store.ScoredChunk{chunkHit(0.8)}},
		&fakeChat{content: "ROS 2 is a robotics middleware."},
	)

	w := doJSON(t, engine, http.MethodPost, "/api/chatbot/query", gin.H{"query": "What is ROS 2?"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ROS 2 is a robotics middleware.", body["answer"])
	assert.Equal(t, 0.85, body["confidence"])
}

func TestQueryDegradesUpstreamFailureTo200(t *testing.T) {
	engine := newQueryEngine(&fakeVectors{err: errors.ErrRetrieval}, &fakeChat{content: "unused"})

	w := doJSON(t, engine, http.MethodPost, "/api/chatbot/query", gin.H{"query": "What is ROS 2?"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 0.0, body["confidence"])
	assert.Contains(t, body["answer"], "I apologize")
}

func TestQueryRejectsMissingQuery(t *testing.T) {
	engine := newQueryEngine(&fakeVectors{}, &fakeChat{content: "unused"})

	w := doJSON(t, engine, http.MethodPost, "/api/chatbot/query", gin.H{"chapter_id": "3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthReportsDependencyStatuses(t *testing.T) {
	usecase := biz.NewHealthUsecase(nil, nil, &fakeChat{content: "ok"})

	engine := gin.New()
	engine.GET("/api/v1/health", NewHealthHandler(usecase).Check)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/health", nil)

	// Health always answers 200; degradation shows up in the body.
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "unhealthy", body["status"])

	deps, ok := body["dependencies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not_configured", deps["postgres"])
	assert.Equal(t, "error", deps["milvus"])
	assert.Equal(t, "available", deps["llm"])
}
