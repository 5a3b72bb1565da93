package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/internal/pkg/httputils"
	"github.com/loomhq/loom/pkg/errors"
)

// CreateIndexRequest is the create index request body.
type CreateIndexRequest struct {
	IndexID     string            `json:"index_id" binding:"required"`
	Description string            `json:"description"`
	IndexFields model.IndexFields `json:"index_fields" binding:"required"`
}

// CreateIndex creates an index and its record table.
func (h *Handler) CreateIndex(c *gin.Context) {
	var req CreateIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	idx := &model.Index{
		IndexID:     req.IndexID,
		Description: req.Description,
		IndexFields: req.IndexFields,
	}
	if err := h.svc.CreateIndex(c.Request.Context(), idx); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteCreated(c, idx)
}

// GetIndex retrieves an index.
func (h *Handler) GetIndex(c *gin.Context) {
	idx, err := h.svc.GetIndex(c.Request.Context(), c.Param("index_id"))
	httputils.WriteResponse(c, err, idx)
}

// ListIndexes lists indexes.
func (h *Handler) ListIndexes(c *gin.Context) {
	offset, limit := pagination(c)
	list, err := h.svc.ListIndexes(c.Request.Context(), offset, limit)
	httputils.WriteResponse(c, err, list)
}

// DeleteIndex deletes an index and drops its record table.
func (h *Handler) DeleteIndex(c *gin.Context) {
	err := h.svc.DeleteIndex(c.Request.Context(), c.Param("index_id"))
	httputils.WriteResponse(c, err, nil)
}

// ListRecords lists an index's records, optionally filtered by
// document_id and binding_id query parameters.
func (h *Handler) ListRecords(c *gin.Context) {
	offset, limit := pagination(c)
	bindingID, _ := strconv.ParseInt(c.Query("binding_id"), 10, 64)

	list, err := h.svc.ListRecords(c.Request.Context(),
		c.Param("index_id"), c.Query("document_id"), bindingID, offset, limit)
	httputils.WriteResponse(c, err, list)
}
