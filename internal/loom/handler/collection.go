package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/internal/pkg/httputils"
	"github.com/loomhq/loom/pkg/errors"
)

// CreateCollectionRequest is the create collection request body.
type CreateCollectionRequest struct {
	CollectionID string        `json:"collection_id" binding:"required"`
	Description  string        `json:"description"`
	Config       model.JSONMap `json:"config"`
}

// CreateCollection creates a collection.
func (h *Handler) CreateCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	collection := &model.Collection{
		CollectionID: req.CollectionID,
		Description:  req.Description,
		Config:       req.Config,
	}
	if err := h.svc.CreateCollection(c.Request.Context(), collection); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteCreated(c, collection)
}

// GetCollection retrieves a collection.
func (h *Handler) GetCollection(c *gin.Context) {
	collection, err := h.svc.GetCollection(c.Request.Context(), c.Param("collection_id"))
	httputils.WriteResponse(c, err, collection)
}

// ListCollections lists collections.
func (h *Handler) ListCollections(c *gin.Context) {
	offset, limit := pagination(c)
	list, err := h.svc.ListCollections(c.Request.Context(), offset, limit)
	httputils.WriteResponse(c, err, list)
}

// UpdateCollectionRequest is the update collection request body.
type UpdateCollectionRequest struct {
	Description string        `json:"description"`
	Config      model.JSONMap `json:"config"`
}

// UpdateCollection updates a collection.
func (h *Handler) UpdateCollection(c *gin.Context) {
	var req UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	collection := &model.Collection{
		CollectionID: c.Param("collection_id"),
		Description:  req.Description,
		Config:       req.Config,
	}
	if err := h.svc.UpdateCollection(c.Request.Context(), collection); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, collection)
}

// DeleteCollection deletes a collection and its documents.
func (h *Handler) DeleteCollection(c *gin.Context) {
	err := h.svc.DeleteCollection(c.Request.Context(), c.Param("collection_id"))
	httputils.WriteResponse(c, err, nil)
}
