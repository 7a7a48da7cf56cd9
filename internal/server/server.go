// Package server exposes the generator and the iframe packager over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/internal/service/generator"
	"github.com/kapu/gamegen-go/internal/util"
	"go.uber.org/zap"
)

// BatchGenerator is the part of *generator.Generator the server drives.
type BatchGenerator interface {
	Generate(ctx context.Context, urls []string) []domain.GameRecord
	GenerateWithProgress(ctx context.Context, urls []string, onProgress generator.ProgressFunc) []domain.GameRecord
}

// CircuitReporter exposes the model circuit breaker state for /health.
type CircuitReporter interface {
	GetCircuitStatus() util.CircuitBreakerStatus
}

// HistoryReader serves archived batches. Optional.
type HistoryReader interface {
	RecentBatches(ctx context.Context, limit int) ([]string, error)
	LoadBatch(ctx context.Context, batchID string) ([]domain.GameRecord, error)
}

type Server struct {
	generator  BatchGenerator
	circuit    CircuitReporter
	history    HistoryReader
	logger     *zap.Logger
	router     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

type Option func(*Server)

func WithCircuit(circuit CircuitReporter) Option {
	return func(s *Server) { s.circuit = circuit }
}

func WithHistory(history HistoryReader) Option {
	return func(s *Server) { s.history = history }
}

func New(addr string, gen BatchGenerator, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		generator: gen,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: constants.ServerConfig.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/games", s.handleGenerate)
	api.POST("/iframe", s.handleIframe)
	api.GET("/batches", s.handleRecentBatches)
	api.GET("/batches/:id", s.handleLoadBatch)

	router.GET("/ws/games", s.handleGenerateStream)

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerConfig.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
