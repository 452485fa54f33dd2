package status

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"willybot/internal/observability"
	"willybot/internal/voice"
)

// Server exposes liveness, a small status document and Prometheus
// metrics beside the gateway connection.
type Server struct {
	engine   *gin.Engine
	registry *voice.Registry
	logger   *zap.Logger
	started  time.Time
}

// New builds the status server. Call Run to serve.
func New(registry *voice.Registry, logger *zap.Logger, production bool) *Server {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:   gin.New(),
		registry: registry,
		logger:   logger,
		started:  time.Now(),
	}

	s.engine.Use(ginLogger(logger))
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/status", s.handleStatus)
	s.engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":        int(time.Since(s.started).Seconds()),
		"active_voice_sessions": s.registry.Len(),
	})
}

// ginLogger adapts gin request logging onto zap.
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
