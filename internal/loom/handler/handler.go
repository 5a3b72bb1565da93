// Package handler provides the HTTP handlers for the Loom API.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/internal/loom/biz"
)

// Handler handles Loom HTTP requests.
type Handler struct {
	svc *biz.Service
}

// New creates a new Handler.
func New(svc *biz.Service) *Handler {
	return &Handler{svc: svc}
}

// pagination reads offset/limit query parameters with sane bounds.
func pagination(c *gin.Context) (int, int) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return offset, limit
}
