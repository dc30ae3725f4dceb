// Package api provides the HTTP routing glue around the translation core:
// endpoint registration, inbound auth, CORS, and the streaming copy loop.
// All translation semantics live in internal/translator.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nvbach/llm-bridge/internal/config"
	"github.com/nvbach/llm-bridge/internal/logging"
	"github.com/nvbach/llm-bridge/internal/translator"
	"github.com/nvbach/llm-bridge/internal/upstream"
)

// Server hosts the gateway endpoints. The config is swapped atomically on
// hot reload; handlers read it once per request.
type Server struct {
	engine *gin.Engine
	cfg    atomic.Pointer[config.Config]
	tr     *translator.Translator
	up     *upstream.Client
}

// NewServer wires routes and middleware.
func NewServer(cfg *config.Config, tr *translator.Translator, up *upstream.Client) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: gin.New(),
		tr:     tr,
		up:     up,
	}
	s.cfg.Store(cfg)

	s.engine.Use(logging.GinLogger())
	s.engine.Use(logging.GinRecovery())
	s.engine.Use(corsMiddleware())
	s.engine.Use(s.authMiddleware())

	s.engine.POST("/v1/chat/completions", s.handleChatCompletions)
	s.engine.POST("/v1/messages", s.handleMessages)
	s.engine.GET("/v1/models", s.handleModels)

	return s
}

// SwapConfig installs a reloaded config. In-flight requests keep the value
// they started with.
func (s *Server) SwapConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
}

// Run blocks serving HTTP on the configured port until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Load().Port)
	logging.Infof("listening on %s", addr)

	srv := &http.Server{Addr: addr, Handler: s.engine}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }
