package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/loomhq/loom/internal/model"
	"github.com/loomhq/loom/internal/pkg/httputils"
	"github.com/loomhq/loom/pkg/errors"
)

// CreateDocumentRequest is one document in a create request.
type CreateDocumentRequest struct {
	Content string        `json:"content" binding:"required"`
	Meta    model.JSONMap `json:"meta"`
}

// CreateDocuments adds documents to a collection. The body is a list;
// each stored document is resolved against the collection's active
// bindings.
func (h *Handler) CreateDocuments(c *gin.Context) {
	var reqs []CreateDocumentRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	collectionID := c.Param("collection_id")
	docs := make([]*model.Document, 0, len(reqs))
	for _, req := range reqs {
		doc := &model.Document{
			CollectionID: collectionID,
			Content:      req.Content,
			Meta:         req.Meta,
		}
		if err := h.svc.CreateDocument(c.Request.Context(), doc); err != nil {
			httputils.WriteResponse(c, err, nil)
			return
		}
		docs = append(docs, doc)
	}
	httputils.WriteCreated(c, docs)
}

// ListDocuments lists a collection's documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	offset, limit := pagination(c)
	list, err := h.svc.ListDocuments(c.Request.Context(), c.Param("collection_id"), offset, limit)
	httputils.WriteResponse(c, err, list)
}

// GetDocument retrieves a document.
func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.svc.GetDocument(c.Request.Context(), c.Param("document_id"))
	httputils.WriteResponse(c, err, doc)
}

// UpdateDocumentRequest is the update document request body.
type UpdateDocumentRequest struct {
	Content string        `json:"content"`
	Meta    model.JSONMap `json:"meta"`
}

// UpdateDocument updates a document and re-resolves it.
func (h *Handler) UpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}

	doc := &model.Document{
		DocumentID: c.Param("document_id"),
		Content:    req.Content,
		Meta:       req.Meta,
	}
	if err := h.svc.UpdateDocument(c.Request.Context(), doc); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	updated, err := h.svc.GetDocument(c.Request.Context(), doc.DocumentID)
	httputils.WriteResponse(c, err, updated)
}

// DeleteDocument deletes a document and its index records.
func (h *Handler) DeleteDocument(c *gin.Context) {
	err := h.svc.DeleteDocument(c.Request.Context(), c.Param("document_id"))
	httputils.WriteResponse(c, err, nil)
}
