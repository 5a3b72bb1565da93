// Package router wires the Loom API routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/loomhq/loom/internal/loom/handler"
)

// Register registers the Loom API routes.
func Register(engine *gin.Engine, h *handler.Handler) {
	v1 := engine.Group("/api/v1")
	{
		collections := v1.Group("/collections")
		{
			collections.POST("", h.CreateCollection)
			collections.GET("", h.ListCollections)
			collections.GET("/:collection_id", h.GetCollection)
			collections.PATCH("/:collection_id", h.UpdateCollection)
			collections.DELETE("/:collection_id", h.DeleteCollection)

			collections.POST("/:collection_id/documents", h.CreateDocuments)
			collections.GET("/:collection_id/documents", h.ListDocuments)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("/:document_id", h.GetDocument)
			documents.PATCH("/:document_id", h.UpdateDocument)
			documents.DELETE("/:document_id", h.DeleteDocument)
		}

		transformers := v1.Group("/transformers")
		{
			transformers.POST("", h.CreateTransformer)
			transformers.GET("", h.ListTransformers)
			transformers.GET("/:transformer_id", h.GetTransformer)
			transformers.DELETE("/:transformer_id", h.DeleteTransformer)
			transformers.POST("/:transformer_id/test", h.TestTransformer)
		}

		indexes := v1.Group("/indexes")
		{
			indexes.POST("", h.CreateIndex)
			indexes.GET("", h.ListIndexes)
			indexes.GET("/:index_id", h.GetIndex)
			indexes.DELETE("/:index_id", h.DeleteIndex)
			indexes.GET("/:index_id/records", h.ListRecords)
		}

		bindings := v1.Group("/bindings")
		{
			bindings.POST("", h.CreateBinding)
			bindings.GET("", h.ListBindings)
			bindings.GET("/:binding_id", h.GetBinding)
			bindings.PATCH("/:binding_id", h.UpdateBinding)
			bindings.DELETE("/:binding_id", h.DeleteBinding)
			bindings.GET("/:binding_id/runs/:document_id", h.GetRunStatus)
		}

		v1.GET("/tasks/:task_id", h.GetTaskStatus)
	}

	logger.Info("HTTP routes registered")
}
