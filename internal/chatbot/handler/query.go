package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwise/bookchat/internal/chatbot/biz"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// QueryHandler serves the legacy flat query endpoint, kept for clients of
// the older API. It never surfaces upstream failures as HTTP errors; the
// usecase degrades to an apology answer instead.
type QueryHandler struct {
	query *biz.QueryUsecase
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(query *biz.QueryUsecase) *QueryHandler {
	return &QueryHandler{query: query}
}

// QueryRequest is the legacy query body.
type QueryRequest struct {
	Query        string `json:"query" binding:"required"`
	ChapterID    string `json:"chapter_id"`
	SelectedText string `json:"selected_text"`
}

// Query handles POST /api/chatbot/query.
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ErrInvalidInput.WithCause(err))
		return
	}

	out := h.query.Query(c.Request.Context(), &biz.QueryInput{
		Query:        req.Query,
		ChapterID:    req.ChapterID,
		SelectedText: req.SelectedText,
	})

	c.JSON(http.StatusOK, out)
}
