// Package handler provides the HTTP handlers for the chatbot API.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bookwise/bookchat/pkg/utils/errors"
	"github.com/bookwise/bookchat/pkg/utils/response"
)

// writeError renders err with the shared error body contract, mapping Errno
// variants to their HTTP status and wrapping anything else as an internal
// error.
func writeError(c *gin.Context, err error) {
	e := errors.FromError(err)
	c.JSON(e.HTTPStatus(), response.NewError(e))
}
