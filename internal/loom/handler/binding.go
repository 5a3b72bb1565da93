package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/internal/pkg/httputils"
	"github.com/loomhq/loom/pkg/errors"
)

// CreateBindingRequest is the create binding request body.
type CreateBindingRequest struct {
	CollectionID      string        `json:"collection_id" binding:"required"`
	TransformerID     string        `json:"transformer_id" binding:"required"`
	IndexID           string        `json:"index_id" binding:"required"`
	Description       string        `json:"description"`
	ExecutionParams   model.JSONMap `json:"execution_params"`
	TransformerParams model.JSONMap `json:"transformer_params"`
	Filter            *model.Filter `json:"filter"`
}

// CreateBindingResponse carries the stored binding and how many
// backfill runs were scheduled.
type CreateBindingResponse struct {
	Binding   *model.Binding `json:"binding"`
	Scheduled int            `json:"scheduled"`
}

// CreateBinding creates a binding and starts its backfill.
func (h *Handler) CreateBinding(c *gin.Context) {
	var req CreateBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	binding := &model.Binding{
		CollectionID:      req.CollectionID,
		TransformerID:     req.TransformerID,
		IndexID:           req.IndexID,
		Description:       req.Description,
		ExecutionParams:   req.ExecutionParams,
		TransformerParams: req.TransformerParams,
		Filter:            req.Filter,
	}
	scheduled, err := h.svc.CreateBinding(c.Request.Context(), binding)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteCreated(c, CreateBindingResponse{Binding: binding, Scheduled: scheduled})
}

func bindingID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("binding_id"), 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidParam.WithMessage("binding_id must be an integer")
	}
	return id, nil
}

// GetBinding retrieves a binding.
func (h *Handler) GetBinding(c *gin.Context) {
	id, err := bindingID(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	binding, err := h.svc.GetBinding(c.Request.Context(), id)
	httputils.WriteResponse(c, err, binding)
}

// ListBindings lists bindings, optionally filtered by collection_id.
func (h *Handler) ListBindings(c *gin.Context) {
	offset, limit := pagination(c)
	list, err := h.svc.ListBindings(c.Request.Context(), c.Query("collection_id"), offset, limit)
	httputils.WriteResponse(c, err, list)
}

// UpdateBindingRequest is the update binding request body.
type UpdateBindingRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBinding transitions a binding between ON and OFF.
func (h *Handler) UpdateBinding(c *gin.Context) {
	id, err := bindingID(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	var req UpdateBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	if err := h.svc.UpdateBindingStatus(c.Request.Context(), id, req.Status); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	binding, err := h.svc.GetBinding(c.Request.Context(), id)
	httputils.WriteResponse(c, err, binding)
}

// DeleteBinding deletes a binding and cleans up its records.
func (h *Handler) DeleteBinding(c *gin.Context) {
	id, err := bindingID(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, h.svc.DeleteBinding(c.Request.Context(), id), nil)
}

// GetRunStatus reports the run marker for a (document, binding) pair.
func (h *Handler) GetRunStatus(c *gin.Context) {
	id, err := bindingID(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	run, err := h.svc.RunStatus(c.Request.Context(), c.Param("document_id"), id)
	httputils.WriteResponse(c, err, run)
}

// GetTaskStatus reports the queue status of a task.
func (h *Handler) GetTaskStatus(c *gin.Context) {
	status, err := h.svc.TaskStatus(c.Request.Context(), c.Param("task_id"))
	httputils.WriteResponse(c, err, gin.H{"task_id": c.Param("task_id"), "status": status})
}
