package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwise/bookchat/internal/chatbot/biz"
	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// ChatHandler serves the primary chat endpoint.
type ChatHandler struct {
	chat *biz.ChatUsecase
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat *biz.ChatUsecase) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// UserContext carries the user's reading position.
type UserContext struct {
	CurrentChapter string   `json:"current_chapter,omitempty"`
	CurrentPage    *int     `json:"current_page,omitempty"`
	ScrollPosition *float64 `json:"scroll_position,omitempty"`
}

// ChatRequest is the primary chat request body.
type ChatRequest struct {
	SessionID    string       `json:"session_id" binding:"required"`
	Message      string       `json:"message" binding:"required,min=1,max=2000"`
	QueryMode    string       `json:"query_mode" binding:"required,oneof=general selected_text"`
	SelectedText string       `json:"selected_text" binding:"omitempty,max=5000"`
	Context      *UserContext `json:"context"`
}

// PerformanceMetrics is the per-turn timing breakdown.
type PerformanceMetrics struct {
	RetrievalTimeMs  int64 `json:"retrieval_time_ms"`
	GenerationTimeMs int64 `json:"generation_time_ms"`
	TotalTimeMs      int64 `json:"total_time_ms"`
}

// ChatResponse is the primary chat response body.
type ChatResponse struct {
	MessageID       string                 `json:"message_id"`
	SessionID       string                 `json:"session_id"`
	Response        string                 `json:"response"`
	Sources         []model.SourceCitation `json:"sources"`
	ConfidenceScore *float64               `json:"confidence_score,omitempty"`
	IsOutOfScope    bool                   `json:"is_out_of_scope"`
	Performance     PerformanceMetrics     `json:"performance"`
	Timestamp       time.Time              `json:"timestamp"`
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ErrInvalidInput.WithCause(err))
		return
	}
	if req.QueryMode == string(model.QueryModeSelectedText) && req.SelectedText == "" {
		writeError(c, errors.ErrInvalidInput.WithMessage(
			"selected_text is required when query_mode is 'selected_text'"))
		return
	}

	in := &biz.ChatInput{
		SessionID:    req.SessionID,
		Message:      req.Message,
		QueryMode:    model.QueryMode(req.QueryMode),
		SelectedText: req.SelectedText,
	}
	if req.Context != nil {
		in.CurrentChapter = req.Context.CurrentChapter
		in.CurrentPage = req.Context.CurrentPage
	}

	out, err := h.chat.Chat(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	sources := out.Sources
	if sources == nil {
		sources = []model.SourceCitation{}
	}

	c.JSON(http.StatusOK, &ChatResponse{
		MessageID:       out.MessageID,
		SessionID:       out.SessionID,
		Response:        out.Response,
		Sources:         sources,
		ConfidenceScore: out.ConfidenceScore,
		IsOutOfScope:    out.IsOutOfScope,
		Performance: PerformanceMetrics{
			RetrievalTimeMs:  out.RetrievalTimeMs,
			GenerationTimeMs: out.GenerationTimeMs,
			TotalTimeMs:      out.TotalTimeMs,
		},
		Timestamp: out.Timestamp,
	})
}
