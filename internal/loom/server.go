package loom

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/loomhq/loom/internal/loom/biz"
	"github.com/loomhq/loom/internal/loom/store"
	"github.com/loomhq/loom/pkg/queue"
)

// Server is the assembled Loom server.
type Server struct {
	cfg        *Config
	engine     *gin.Engine
	svc        *biz.Service
	factory    store.Factory
	queue      queue.Queue
	redisQueue *queue.Redis
}

// Run starts the consumer and the HTTP server, then blocks until ctx
// is cancelled and shutdown completes.
func (s *Server) Run(ctx context.Context) error {
	// Re-deliver jobs orphaned by a previous crash before consuming.
	if s.redisQueue != nil {
		if n, err := s.redisQueue.Recover(ctx); err != nil {
			logger.Warnw("queue recovery failed", "error", err.Error())
		} else if n > 0 {
			logger.Infow("recovered orphaned jobs", "count", n)
		}
	}

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := s.svc.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorw("consumer stopped", "error", err.Error())
		}
	}()

	httpServer := &http.Server{
		Addr:         s.cfg.HTTPOptions.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: s.cfg.HTTPOptions.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("http server listening", "addr", s.cfg.HTTPOptions.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		cancelConsumer()
		<-consumerDone
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPOptions.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown failed", "error", err.Error())
	}

	cancelConsumer()
	<-consumerDone

	if err := s.queue.Close(); err != nil {
		logger.Warnw("queue close failed", "error", err.Error())
	}
	if err := s.factory.Close(); err != nil {
		logger.Warnw("store close failed", "error", err.Error())
	}
	return nil
}
