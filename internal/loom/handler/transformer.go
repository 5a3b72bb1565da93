package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/internal/pkg/httputils"
	"github.com/loomhq/loom/pkg/errors"
)

// CreateTransformerRequest is the create transformer request body.
type CreateTransformerRequest struct {
	TransformerID string `json:"transformer_id" binding:"required"`
	Path          string `json:"path"`
	Description   string `json:"description"`
}

// CreateTransformer registers a transformer in the catalog.
func (h *Handler) CreateTransformer(c *gin.Context) {
	var req CreateTransformerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	transformer := &model.Transformer{
		TransformerID: req.TransformerID,
		Path:          req.Path,
		Description:   req.Description,
	}
	if err := h.svc.CreateTransformer(c.Request.Context(), transformer); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteCreated(c, transformer)
}

// GetTransformer retrieves a transformer.
func (h *Handler) GetTransformer(c *gin.Context) {
	transformer, err := h.svc.GetTransformer(c.Request.Context(), c.Param("transformer_id"))
	httputils.WriteResponse(c, err, transformer)
}

// ListTransformers lists transformers.
func (h *Handler) ListTransformers(c *gin.Context) {
	offset, limit := pagination(c)
	list, err := h.svc.ListTransformers(c.Request.Context(), offset, limit)
	httputils.WriteResponse(c, err, list)
}

// DeleteTransformer deletes a transformer.
func (h *Handler) DeleteTransformer(c *gin.Context) {
	err := h.svc.DeleteTransformer(c.Request.Context(), c.Param("transformer_id"))
	httputils.WriteResponse(c, err, nil)
}

// TestTransformerRequest is the test transformer request body.
type TestTransformerRequest struct {
	Content string        `json:"content" binding:"required"`
	Meta    model.JSONMap `json:"meta"`
	Params  model.JSONMap `json:"params"`
}

// TestTransformer runs a transformer synchronously against ad-hoc
// content. Nothing is committed.
func (h *Handler) TestTransformer(c *gin.Context) {
	var req TestTransformerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	result := h.svc.TestTransformer(c.Request.Context(),
		c.Param("transformer_id"), req.Content, req.Meta, req.Params)
	httputils.WriteResponse(c, nil, result)
}
