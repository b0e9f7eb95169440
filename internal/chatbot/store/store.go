// Package store provides the chatbot's persistence layer: conversation
// sessions and messages in PostgreSQL, textbook chunks in Milvus.
package store

import (
	"context"

	"github.com/bookwise/bookchat/internal/model"
)

// DefaultMessageLimit caps a message listing when no limit is given.
const DefaultMessageLimit = 50

// SessionStore manages conversation sessions.
type SessionStore interface {
	// Create persists a new session, filling defaults.
	Create(ctx context.Context, session *model.ConversationSession) error

	// Get returns an active session by ID. Inactive or unknown sessions
	// yield ErrSessionNotFound.
	Get(ctx context.Context, id string) (*model.ConversationSession, error)

	// Deactivate soft-deletes a session. Deactivating a session that is
	// not active yields ErrSessionNotFound.
	Deactivate(ctx context.Context, id string) error

	// TouchActivity advances last_activity_at to now and increments
	// message_count by one.
	TouchActivity(ctx context.Context, id string) error
}

// MessageStore manages conversation messages.
type MessageStore interface {
	// Create persists a message.
	Create(ctx context.Context, msg *model.Message) error

	// List returns a session's messages in chronological order. limit <= 0
	// falls back to DefaultMessageLimit; offset skips from the start.
	List(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error)

	// Recent returns the n most recent messages of a session in
	// chronological order.
	Recent(ctx context.Context, sessionID string, n int) ([]model.Message, error)
}

// Factory bundles the relational stores.
type Factory interface {
	Sessions() SessionStore
	Messages() MessageStore
}

// ScoredChunk is one retrieval hit with its similarity score.
type ScoredChunk struct {
	Chunk model.ContentChunk
	Score float64
}

// SearchQuery configures a filtered similarity search.
type SearchQuery struct {
	// Vector is the query embedding, model.EmbeddingDim long.
	Vector []float32

	// TopK bounds the number of hits.
	TopK int

	// TextbookID scopes the search to one textbook. Required.
	TextbookID string

	// Chapter optionally narrows the search to one chapter.
	Chapter string

	// MinScore drops hits scoring below it. Zero keeps everything.
	MinScore float64
}

// VectorStore manages the textbook chunk collection.
type VectorStore interface {
	// EnsureCollection creates the chunk collection and its index when
	// absent.
	EnsureCollection(ctx context.Context) error

	// Upsert writes chunks, replacing existing ones with the same IDs.
	Upsert(ctx context.Context, chunks []*model.ContentChunk) error

	// Search runs a filtered cosine-similarity search, returning hits in
	// descending score order.
	Search(ctx context.Context, query *SearchQuery) ([]ScoredChunk, error)

	// Stats returns the number of stored chunks.
	Stats(ctx context.Context) (int64, error)

	// Drop removes the collection.
	Drop(ctx context.Context) error
}
