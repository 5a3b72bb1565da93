// Package loom assembles the Loom server from its configuration.
package loom

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/loomhq/loom/internal/loom/biz"
	"github.com/loomhq/loom/internal/loom/handler"
	"github.com/loomhq/loom/internal/loom/router"
	"github.com/loomhq/loom/internal/loom/store"
	"github.com/loomhq/loom/internal/loom/transformers"
	"github.com/loomhq/loom/pkg/component/ollama"
	dbopts "github.com/loomhq/loom/pkg/options/db"
	engineopts "github.com/loomhq/loom/pkg/options/engine"
	httpopts "github.com/loomhq/loom/pkg/options/http"
	logopts "github.com/loomhq/loom/pkg/options/logger"
	redisopts "github.com/loomhq/loom/pkg/options/redis"
	"github.com/loomhq/loom/pkg/queue"
)

// Config is the complete server configuration.
type Config struct {
	HTTPOptions   *httpopts.Options
	LogOptions    *logopts.Options
	DBOptions     *dbopts.Options
	RedisOptions  *redisopts.Options
	EngineOptions *engineopts.Options
	OllamaOptions *ollama.Options
}

// NewServer builds a ready-to-run Server from the configuration.
func (c *Config) NewServer(ctx context.Context) (*Server, error) {
	if err := c.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := c.openDatabase()
	if err != nil {
		return nil, err
	}
	factory := store.NewFactory(db)
	if err := factory.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	registry := biz.NewRegistry()
	ollamaClient := c.ollamaClient(ctx)
	if err := transformers.RegisterBuiltins(registry, ollamaClient); err != nil {
		return nil, err
	}
	seedTransformerCatalog(ctx, factory, registry)

	q, redisQueue, err := c.newQueue()
	if err != nil {
		return nil, err
	}

	svc := biz.NewService(factory, registry, q, biz.ExecutorConfig{
		MaxAttempts: c.EngineOptions.MaxAttempts,
		BaseBackoff: c.EngineOptions.BaseBackoff,
	})

	gin.SetMode(c.HTTPOptions.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Register(engine, handler.New(svc))

	return &Server{
		cfg:        c,
		engine:     engine,
		svc:        svc,
		factory:    factory,
		queue:      q,
		redisQueue: redisQueue,
	}, nil
}

func (c *Config) openDatabase() (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.DBOptions.Driver {
	case dbopts.DriverPostgres:
		dialector = postgres.Open(c.DBOptions.DSN)
	default:
		dialector = sqlite.Open(c.DBOptions.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(c.DBOptions.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(c.DBOptions.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.DBOptions.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(c.DBOptions.ConnMaxLifetime)
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// ollamaClient builds the embedding client when configured. An
// unreachable server only disables the embedding transformer; the
// engine itself still runs.
func (c *Config) ollamaClient(ctx context.Context) *ollama.Client {
	if c.OllamaOptions == nil || c.OllamaOptions.BaseURL == "" {
		return nil
	}
	client := ollama.New(c.OllamaOptions)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		logger.Warnw("ollama unreachable, embedding transformer disabled",
			"base_url", c.OllamaOptions.BaseURL, "error", err.Error())
		return nil
	}
	return client
}

func (c *Config) newQueue() (queue.Queue, *queue.Redis, error) {
	if !c.RedisOptions.Enable {
		q, err := queue.NewMemory(c.EngineOptions.Workers, c.EngineOptions.QueueBuffer)
		if err != nil {
			return nil, nil, err
		}
		return q, nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     c.RedisOptions.Addr,
		Password: c.RedisOptions.Password,
		DB:       c.RedisOptions.DB,
	})
	cfg := queue.DefaultRedisConfig()
	cfg.KeyPrefix = c.RedisOptions.KeyPrefix
	cfg.Workers = c.EngineOptions.Workers

	q, err := queue.NewRedis(client, cfg)
	if err != nil {
		return nil, nil, err
	}
	return q, q, nil
}

// seedTransformerCatalog ensures catalog rows exist for the shipped
// transformers.
func seedTransformerCatalog(ctx context.Context, f store.Factory, registry *biz.Registry) {
	for _, row := range transformers.CatalogRows(registry) {
		if _, err := f.Transformers().Get(ctx, row.TransformerID); err == nil {
			continue
		}
		if err := f.Transformers().Create(ctx, row); err != nil {
			logger.Warnw("failed to seed transformer catalog row",
				"transformer_id", row.TransformerID, "error", err.Error())
		}
	}
}
