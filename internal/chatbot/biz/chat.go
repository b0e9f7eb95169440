package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
)

// ChatUsecase orchestrates one chat turn: history fetch, retrieval (or
// selected-text bypass), scope detection, generation, citation building, and
// best-effort persistence.
//
// The session and message stores may be nil when no relational database is
// configured; history and persistence are then skipped without affecting the
// answer. Store failures likewise degrade to logged warnings: the user always
// gets an answer when retrieval and generation succeed, at the cost of
// potentially silent history loss.
type ChatUsecase struct {
	retriever *Retriever
	generator *Generator
	sessions  store.SessionStore
	messages  store.MessageStore

	// defaultTextbookID scopes retrieval when the session (and with it the
	// session's textbook) cannot be resolved.
	defaultTextbookID string
}

// NewChatUsecase creates the chat orchestrator. sessions and messages may be
// nil.
func NewChatUsecase(retriever *Retriever, generator *Generator, sessions store.SessionStore, messages store.MessageStore, defaultTextbookID string) *ChatUsecase {
	return &ChatUsecase{
		retriever:         retriever,
		generator:         generator,
		sessions:          sessions,
		messages:          messages,
		defaultTextbookID: defaultTextbookID,
	}
}

// ChatInput is one validated chat request.
type ChatInput struct {
	SessionID      string
	Message        string
	QueryMode      model.QueryMode
	SelectedText   string
	CurrentPage    *int
	CurrentChapter string
}

// ChatOutput is the assembled chat response.
type ChatOutput struct {
	MessageID        string
	SessionID        string
	Response         string
	Sources          []model.SourceCitation
	ConfidenceScore  *float64
	IsOutOfScope     bool
	RetrievalTimeMs  int64
	GenerationTimeMs int64
	TotalTimeMs      int64
	Timestamp        time.Time
	Model            string
}

// Chat runs one turn of the pipeline. Retrieval and generation failures
// propagate; persistence failures never do.
func (uc *ChatUsecase) Chat(ctx context.Context, in *ChatInput) (*ChatOutput, error) {
	start := time.Now()
	messageID := uuid.NewString()

	history := uc.fetchHistory(ctx, in.SessionID)
	textbookID := uc.resolveTextbook(ctx, in.SessionID)
	uc.storeUserMessage(ctx, in)

	var (
		hits            []store.ScoredChunk
		retrievalTimeMs int64
		err             error
	)
	selectedTextMode := in.QueryMode == model.QueryModeSelectedText && in.SelectedText != ""
	if selectedTextMode {
		// Selected-text mode answers about the supplied passage directly;
		// no vector search runs and retrieval time stays zero.
	} else {
		hits, retrievalTimeMs, err = uc.retriever.Retrieve(ctx, in.Message, DefaultTopK, textbookID, in.CurrentChapter)
		if err != nil {
			return nil, err
		}
	}

	maxScore := 0.0
	for _, hit := range hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	// The score threshold only applies when retrieval actually ran; a
	// question about the passage the user selected is in scope by
	// definition.
	outOfScopeByScore := !selectedTextMode && IsOutOfScope(maxScore)

	chunks := make([]model.ContentChunk, len(hits))
	for i, hit := range hits {
		chunks[i] = hit.Chunk
	}

	generated, err := uc.generator.Generate(ctx, &GenerateInput{
		Query:        in.Message,
		Chunks:       chunks,
		QueryMode:    in.QueryMode,
		SelectedText: in.SelectedText,
		History:      history,
	})
	if err != nil {
		return nil, err
	}

	outOfScope := outOfScopeByScore || generated.OutOfScope

	var sources []model.SourceCitation
	if !outOfScope {
		sources = BuildCitations(in.QueryMode, in.SelectedText, hits)
	}

	var confidence *float64
	if len(hits) > 0 {
		score := round3(maxScore)
		confidence = &score
	}

	out := &ChatOutput{
		MessageID:        messageID,
		SessionID:        in.SessionID,
		Response:         generated.Text,
		Sources:          sources,
		ConfidenceScore:  confidence,
		IsOutOfScope:     outOfScope,
		RetrievalTimeMs:  retrievalTimeMs,
		GenerationTimeMs: generated.GenerationTimeMs,
		TotalTimeMs:      elapsedMs(start),
		Timestamp:        time.Now().UTC(),
		Model:            generated.Model,
	}

	uc.storeResponse(ctx, out, hits)
	uc.touchSession(ctx, in.SessionID)

	return out, nil
}

// fetchHistory returns the most recent turns for multi-turn context. Failure
// degrades to empty history.
func (uc *ChatUsecase) fetchHistory(ctx context.Context, sessionID string) []model.Message {
	if uc.messages == nil {
		return nil
	}
	history, err := uc.messages.Recent(ctx, sessionID, HistoryWindow)
	if err != nil {
		logger.Warnw("failed to fetch conversation history", "session_id", sessionID, "error", err)
		return nil
	}
	return history
}

// resolveTextbook picks the retrieval scope from the session, falling back
// to the configured default textbook.
func (uc *ChatUsecase) resolveTextbook(ctx context.Context, sessionID string) string {
	if uc.sessions == nil {
		return uc.defaultTextbookID
	}
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return uc.defaultTextbookID
	}
	return session.TextbookID
}

func (uc *ChatUsecase) storeUserMessage(ctx context.Context, in *ChatInput) {
	if uc.messages == nil {
		return
	}

	msg := &model.Message{
		SessionID:      in.SessionID,
		MessageType:    model.MessageTypeUser,
		MessageText:    in.Message,
		QueryMode:      string(in.QueryMode),
		CurrentPage:    in.CurrentPage,
		CurrentChapter: optionalString(in.CurrentChapter),
	}
	if in.SelectedText != "" {
		msg.SelectedText = &in.SelectedText
	}

	if err := uc.messages.Create(ctx, msg); err != nil {
		logger.Warnw("failed to store user message", "session_id", in.SessionID, "error", err)
	}
}

func (uc *ChatUsecase) storeResponse(ctx context.Context, out *ChatOutput, hits []store.ScoredChunk) {
	if uc.messages == nil {
		return
	}

	retrieved := make(model.RetrievedChunks, len(hits))
	for i, hit := range hits {
		retrieved[i] = model.RetrievedChunk{ChunkID: hit.Chunk.ID, Score: hit.Score}
	}

	msg := &model.Message{
		ID:               out.MessageID,
		SessionID:        out.SessionID,
		MessageType:      model.MessageTypeChatbot,
		Timestamp:        out.Timestamp,
		ResponseText:     out.Response,
		Sources:          out.Sources,
		ConfidenceScore:  out.ConfidenceScore,
		IsOutOfScope:     out.IsOutOfScope,
		RetrievedChunks:  retrieved,
		RetrievalTimeMs:  out.RetrievalTimeMs,
		GenerationTimeMs: out.GenerationTimeMs,
		TotalTimeMs:      out.TotalTimeMs,
		ModelUsed:        out.Model,
	}

	if err := uc.messages.Create(ctx, msg); err != nil {
		logger.Warnw("failed to store chatbot response", "session_id", out.SessionID, "error", err)
	}
}

func (uc *ChatUsecase) touchSession(ctx context.Context, sessionID string) {
	if uc.sessions == nil {
		return
	}
	if err := uc.sessions.TouchActivity(ctx, sessionID); err != nil {
		logger.Warnw("failed to update session activity", "session_id", sessionID, "error", err)
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
