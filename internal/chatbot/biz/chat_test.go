package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/llm"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

func newTestChatUsecase(vectors *fakeVectorStore, chat *fakeChat, sessions store.SessionStore, messages store.MessageStore) *ChatUsecase {
	retriever := NewRetriever(&fakeEmbedder{vector: testVector()}, vectors, 0)
	return NewChatUsecase(retriever, NewGenerator(chat), sessions, messages, "robotics-101")
}

func TestChatGeneralMode(t *testing.T) {
	vectors := &fakeVectorStore{hits: []store.ScoredChunk{
		testHit("c1", "Chapter 3: Kinematics", "FK maps joint angles to pose.", 0.91),
		testHit("c2", "Chapter 3: Kinematics", "The Jacobian matrix.", 0.85),
	}}
	chat := &fakeChat{result: &llm.ChatResult{Content: "Forward kinematics is...", Model: "gpt-3.5-turbo-0125"}}
	sessions := &fakeSessionStore{session: &model.ConversationSession{ID: "s1", TextbookID: "robotics-101"}}
	messages := &fakeMessageStore{}

	out, err := newTestChatUsecase(vectors, chat, sessions, messages).Chat(context.Background(), &ChatInput{
		SessionID: "s1",
		Message:   "What is forward kinematics?",
		QueryMode: model.QueryModeGeneral,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.MessageID)
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, "Forward kinematics is...", out.Response)
	assert.False(t, out.IsOutOfScope)
	require.Len(t, out.Sources, 2)
	assert.Equal(t, "c1", out.Sources[0].ChunkID)
	require.NotNil(t, out.ConfidenceScore)
	assert.Equal(t, 0.91, *out.ConfidenceScore)
	assert.GreaterOrEqual(t, out.RetrievalTimeMs, int64(0))
	assert.GreaterOrEqual(t, out.GenerationTimeMs, int64(0))
	assert.GreaterOrEqual(t, out.TotalTimeMs, int64(0))
	assert.Equal(t, "gpt-3.5-turbo-0125", out.Model)

	// Search was scoped to the session's textbook with top_k 5.
	require.NotNil(t, vectors.lastQuery)
	assert.Equal(t, "robotics-101", vectors.lastQuery.TextbookID)
	assert.Equal(t, DefaultTopK, vectors.lastQuery.TopK)

	// Both turns persisted and session activity bumped once.
	require.Len(t, messages.created, 2)
	assert.Equal(t, model.MessageTypeUser, messages.created[0].MessageType)
	assert.Equal(t, model.MessageTypeChatbot, messages.created[1].MessageType)
	assert.Len(t, messages.created[1].RetrievedChunks, 2)
	assert.Equal(t, 1, sessions.touched)
}

func TestChatSelectedTextBypassesRetrieval(t *testing.T) {
	vectors := &fakeVectorStore{err: fmt.Errorf("search must not run")}
	chat := &fakeChat{result: &llm.ChatResult{Content: "It describes...", Model: "gpt-3.5-turbo"}}

	out, err := newTestChatUsecase(vectors, chat, nil, nil).Chat(context.Background(), &ChatInput{
		SessionID:    "s1",
		Message:      "What does this mean?",
		QueryMode:    model.QueryModeSelectedText,
		SelectedText: "The Jacobian relates joint velocities to end-effector velocities.",
	})
	require.NoError(t, err)

	assert.Nil(t, vectors.lastQuery)
	assert.Equal(t, int64(0), out.RetrievalTimeMs)
	assert.False(t, out.IsOutOfScope)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, model.SelectedTextChunkID, out.Sources[0].ChunkID)
	assert.Equal(t, 1.0, out.Sources[0].RelevanceScore)
	assert.Nil(t, out.ConfidenceScore)
}

func TestChatZeroChunksIsOutOfScope(t *testing.T) {
	vectors := &fakeVectorStore{}
	chat := &fakeChat{result: &llm.ChatResult{Content: "That's not covered here.", Model: "gpt-3.5-turbo"}}

	out, err := newTestChatUsecase(vectors, chat, nil, nil).Chat(context.Background(), &ChatInput{
		SessionID: "s1",
		Message:   "What's the weather today?",
		QueryMode: model.QueryModeGeneral,
	})
	require.NoError(t, err)

	assert.True(t, out.IsOutOfScope)
	assert.Empty(t, out.Sources)
	assert.Nil(t, out.ConfidenceScore)
}

func TestChatLowScoreIsOutOfScope(t *testing.T) {
	vectors := &fakeVectorStore{hits: []store.ScoredChunk{
		testHit("c1", "Chapter 1", "intro text", 0.25),
	}}
	chat := &fakeChat{result: &llm.ChatResult{Content: "answer", Model: "gpt-3.5-turbo"}}

	out, err := newTestChatUsecase(vectors, chat, nil, nil).Chat(context.Background(), &ChatInput{
		SessionID: "s1",
		Message:   "Something tangential",
		QueryMode: model.QueryModeGeneral,
	})
	require.NoError(t, err)

	// Score below the threshold: out of scope despite having chunks, and no
	// citations, but confidence still reports the best score.
	assert.True(t, out.IsOutOfScope)
	assert.Empty(t, out.Sources)
	require.NotNil(t, out.ConfidenceScore)
	assert.Equal(t, 0.25, *out.ConfidenceScore)
}

func TestChatPersistenceFailuresDoNotAbort(t *testing.T) {
	vectors := &fakeVectorStore{hits: []store.ScoredChunk{
		testHit("c1", "Chapter 3", "FK text", 0.9),
	}}
	chat := &fakeChat{result: &llm.ChatResult{Content: "answer", Model: "gpt-3.5-turbo"}}
	sessions := &fakeSessionStore{getErr: fmt.Errorf("db down"), touchErr: fmt.Errorf("db down")}
	messages := &fakeMessageStore{recentErr: fmt.Errorf("db down"), createErr: fmt.Errorf("db down")}

	out, err := newTestChatUsecase(vectors, chat, sessions, messages).Chat(context.Background(), &ChatInput{
		SessionID: "s1",
		Message:   "What is FK?",
		QueryMode: model.QueryModeGeneral,
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", out.Response)
	assert.False(t, out.IsOutOfScope)

	// Session lookup failed, so retrieval fell back to the default textbook.
	assert.Equal(t, "robotics-101", vectors.lastQuery.TextbookID)
}

func TestChatRetrievalFailurePropagates(t *testing.T) {
	vectors := &fakeVectorStore{err: fmt.Errorf("milvus unreachable")}
	chat := &fakeChat{result: &llm.ChatResult{Content: "answer", Model: "gpt-3.5-turbo"}}

	_, err := newTestChatUsecase(vectors, chat, nil, nil).Chat(context.Background(), &ChatInput{
		SessionID: "s1",
		Message:   "What is FK?",
		QueryMode: model.QueryModeGeneral,
	})
	assert.True(t, errors.Is(err, errors.ErrRetrieval))
}

func TestChatEmbeddingFailurePropagates(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{err: fmt.Errorf("api key invalid")}, &fakeVectorStore{}, 0)
	chat := &fakeChat{result: &llm.ChatResult{Content: "answer", Model: "gpt-3.5-turbo"}}
	uc := NewChatUsecase(retriever, NewGenerator(chat), nil, nil, "robotics-101")

	_, err := uc.Chat(context.Background(), &ChatInput{
		SessionID: "s1",
		Message:   "What is FK?",
		QueryMode: model.QueryModeGeneral,
	})
	assert.True(t, errors.Is(err, errors.ErrEmbedding))
}

func TestChatChapterFilterFromReadingContext(t *testing.T) {
	vectors := &fakeVectorStore{hits: []store.ScoredChunk{
		testHit("c1", "Chapter 3: Kinematics", "FK text", 0.9),
	}}
	chat := &fakeChat{result: &llm.ChatResult{Content: "answer", Model: "gpt-3.5-turbo"}}

	_, err := newTestChatUsecase(vectors, chat, nil, nil).Chat(context.Background(), &ChatInput{
		SessionID:      "s1",
		Message:        "What is FK?",
		QueryMode:      model.QueryModeGeneral,
		CurrentChapter: "Chapter 3: Kinematics",
	})
	require.NoError(t, err)
	assert.Equal(t, "Chapter 3: Kinematics", vectors.lastQuery.Chapter)
}

func TestRetrieverDimensionMismatch(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{vector: make([]float32, 768)}, &fakeVectorStore{}, 0)

	_, _, err := retriever.Retrieve(context.Background(), "query", DefaultTopK, "robotics-101", "")
	assert.True(t, errors.Is(err, errors.ErrEmbedding))
}

func TestRetrieverPassesMinScoreToSearch(t *testing.T) {
	vectors := &fakeVectorStore{}
	retriever := NewRetriever(&fakeEmbedder{vector: testVector()}, vectors, 0.4)

	_, _, err := retriever.Retrieve(context.Background(), "query", DefaultTopK, "robotics-101", "")
	require.NoError(t, err)
	require.NotNil(t, vectors.lastQuery)
	assert.Equal(t, 0.4, vectors.lastQuery.MinScore)
}
