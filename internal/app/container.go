package app

import (
	"context"
	"fmt"

	"github.com/kapu/gamegen-go/internal/config"
	"github.com/kapu/gamegen-go/internal/server"
	"github.com/kapu/gamegen-go/internal/service/ai"
	"github.com/kapu/gamegen-go/internal/service/cache"
	"github.com/kapu/gamegen-go/internal/service/database"
	"github.com/kapu/gamegen-go/internal/service/generator"
	"github.com/kapu/gamegen-go/internal/service/pagehint"
	"go.uber.org/zap"
)

// Container holds the wired services shared by the CLI commands and the HTTP
// server.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Models    *ai.ModelManager
	Generator *generator.Generator
	// History is nil unless Postgres is enabled and reachable.
	History *database.HistoryRepository

	closers []func()
}

// NewServer builds the HTTP server on top of the container's services.
func (c *Container) NewServer() *server.Server {
	opts := []server.Option{server.WithCircuit(c.Models)}
	if c.History != nil {
		opts = append(opts, server.WithHistory(c.History))
	}
	return server.New(c.Config.Server.Addr, c.Generator, c.Logger, opts...)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the model stack and the optional Redis and Postgres
// services. Optional services that cannot be reached are skipped with a
// warning.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.ValidateAI(); err != nil {
		return nil, err
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// AI stack
	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	var (
		opts        []generator.Option
		recordCache bool
	)

	// Record cache
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Record cache disabled", zap.Error(cacheErr))
		} else {
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
			opts = append(opts, generator.WithCache(cacheSvc))
			recordCache = true
		}
	}

	// Batch history
	var history *database.HistoryRepository
	if cfg.Postgres.Enabled {
		postgresSvc, pgErr := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if pgErr != nil {
			logger.Warn("Batch history disabled", zap.Error(pgErr))
		} else {
			closers = append(closers, func() {
				_ = postgresSvc.Close()
			})

			repo := database.NewHistoryRepository(postgresSvc, logger)
			if schemaErr := repo.EnsureSchema(ctx); schemaErr != nil {
				logger.Warn("Batch history disabled", zap.Error(schemaErr))
			} else {
				history = repo
				opts = append(opts, generator.WithHistory(repo))
			}
		}
	}

	if cfg.Generator.PageHintsEnabled {
		opts = append(opts, generator.WithHints(pagehint.NewInspector(nil, logger)))
	}

	gen := generator.NewGenerator(modelManager, generator.Config{
		MaxConcurrency: cfg.Generator.Concurrency,
		ItemTimeout:    cfg.Generator.ItemTimeout,
		IconBaseURL:    cfg.Generator.IconBaseURL,
		CacheTTL:       cfg.Generator.RecordCacheTTL,
	}, logger, opts...)

	logger.Info("Generator ready",
		zap.String("model", cfg.Gemini.Model),
		zap.Int("max_concurrency", cfg.Generator.Concurrency),
		zap.Duration("item_timeout", cfg.Generator.ItemTimeout),
		zap.Bool("record_cache", recordCache),
		zap.Bool("history", history != nil),
		zap.Bool("page_hints", cfg.Generator.PageHintsEnabled),
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Models:    modelManager,
		Generator: gen,
		History:   history,
		closers:   closers,
	}, nil
}
