package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// SessionHandler serves session CRUD. All endpoints require a configured
// relational store; without one they report service-unavailable rather than
// pretending history exists.
type SessionHandler struct {
	sessions store.SessionStore
	messages store.MessageStore
}

// NewSessionHandler creates a SessionHandler. sessions and messages may be
// nil when persistence is not configured.
func NewSessionHandler(sessions store.SessionStore, messages store.MessageStore) *SessionHandler {
	return &SessionHandler{sessions: sessions, messages: messages}
}

// CreateSessionRequest is the session creation body.
type CreateSessionRequest struct {
	TextbookID           string  `json:"textbook_id" binding:"required"`
	UserID               *string `json:"user_id"`
	PreferredDetailLevel string  `json:"preferred_detail_level" binding:"omitempty,oneof=concise detailed technical"`
}

// SessionResponse is the session creation response.
type SessionResponse struct {
	SessionID  string    `json:"session_id"`
	TextbookID string    `json:"textbook_id"`
	CreatedAt  time.Time `json:"created_at"`
	IsActive   bool      `json:"is_active"`
}

// SessionDetailsResponse extends SessionResponse with activity metadata and
// recent messages.
type SessionDetailsResponse struct {
	SessionResponse
	LastActivityAt      time.Time       `json:"last_activity_at"`
	MessageCount        int             `json:"message_count"`
	ConversationSummary *string         `json:"conversation_summary,omitempty"`
	Messages            []model.Message `json:"messages"`
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	if h.sessions == nil {
		writeError(c, errors.ErrServiceUnavailable.WithMessage("session persistence is not configured"))
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ErrInvalidInput.WithCause(err))
		return
	}

	session := &model.ConversationSession{
		TextbookID:           req.TextbookID,
		UserID:               req.UserID,
		PreferredDetailLevel: req.PreferredDetailLevel,
	}
	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, &SessionResponse{
		SessionID:  session.ID,
		TextbookID: session.TextbookID,
		CreatedAt:  session.CreatedAt,
		IsActive:   session.IsActive,
	})
}

// Get handles GET /api/v1/sessions/:id, returning session metadata plus up
// to 50 recent messages.
func (h *SessionHandler) Get(c *gin.Context) {
	if h.sessions == nil {
		writeError(c, errors.ErrServiceUnavailable.WithMessage("session persistence is not configured"))
		return
	}

	sessionID := c.Param("id")
	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	messages, err := h.messages.Recent(c.Request.Context(), sessionID, store.DefaultMessageLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	c.JSON(http.StatusOK, &SessionDetailsResponse{
		SessionResponse: SessionResponse{
			SessionID:  session.ID,
			TextbookID: session.TextbookID,
			CreatedAt:  session.CreatedAt,
			IsActive:   session.IsActive,
		},
		LastActivityAt:      session.LastActivityAt,
		MessageCount:        session.MessageCount,
		ConversationSummary: session.ConversationSummary,
		Messages:            messages,
	})
}

// Messages handles GET /api/v1/sessions/:id/messages with limit/offset
// pagination.
func (h *SessionHandler) Messages(c *gin.Context) {
	if h.sessions == nil {
		writeError(c, errors.ErrServiceUnavailable.WithMessage("session persistence is not configured"))
		return
	}

	sessionID := c.Param("id")
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	limit := queryInt(c, "limit", store.DefaultMessageLimit)
	offset := queryInt(c, "offset", 0)

	messages, err := h.messages.List(c.Request.Context(), sessionID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	c.JSON(http.StatusOK, messages)
}

// Delete handles DELETE /api/v1/sessions/:id, soft-deactivating the session.
// A second delete returns 404.
func (h *SessionHandler) Delete(c *gin.Context) {
	if h.sessions == nil {
		writeError(c, errors.ErrServiceUnavailable.WithMessage("session persistence is not configured"))
		return
	}

	if err := h.sessions.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
