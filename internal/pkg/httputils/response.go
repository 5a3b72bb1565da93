// Package httputils provides the standard HTTP response envelope.
package httputils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/pkg/errors"
)

// Response is the standard response envelope.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteResponse writes data or an error to the client in the standard
// envelope. Errno errors map to their registered HTTP status; anything
// else is an internal error.
func WriteResponse(c *gin.Context, err error, data any) {
	if err != nil {
		errno := errors.FromError(err)
		c.JSON(errno.HTTPStatus(), Response{
			Code:    errno.Code,
			Message: errno.Message,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "OK",
		Data:    data,
	})
}

// WriteCreated writes data with a 201 status.
func WriteCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "OK",
		Data:    data,
	})
}
