// Package server exposes the coaching pipeline over HTTP. Chat replies are
// delivered as server-sent events so the client renders tokens as they
// arrive.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"vita/internal/llm"
	"vita/internal/logging"
	"vita/internal/orchestrator"
	"vita/internal/security"
	"vita/internal/store"
)

// Server hosts the chat API.
type Server struct {
	engine       *gin.Engine
	orchestrator *orchestrator.Orchestrator
	store        *store.Store
	cipher       *security.KeyCipher
	logger       logging.Logger
}

// New builds the server and its routes. cipher may be nil, in which case the
// key management endpoints report that encryption is not configured.
func New(o *orchestrator.Orchestrator, st *store.Store, cipher *security.KeyCipher, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{
		engine:       engine,
		orchestrator: o,
		store:        st,
		cipher:       cipher,
		logger:       logging.OrNop(logger),
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST("/api/chat", s.handleChat)
	engine.PUT("/api/keys", s.handleSaveKey)
	engine.GET("/api/keys/:user_id", s.handleKeyStatus)
	return s
}

// Handler exposes the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	UserID    string        `json:"user_id"`
	Message   string        `json:"message"`
	Image     string        `json:"image"` // base64
	ImageMime string        `json:"image_mime"`
	History   []chatMessage `json:"history"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if req.Message == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message or image is required"})
		return
	}

	var image []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64 encoded"})
			return
		}
		image = decoded
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, msg := range req.History {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events := s.orchestrator.ProcessTurn(c.Request.Context(), orchestrator.TurnRequest{
		UserID:    req.UserID,
		Message:   req.Message,
		Image:     image,
		ImageMime: req.ImageMime,
		History:   history,
	})

	for event := range events {
		c.SSEvent(event.Type, event)
		c.Writer.Flush()
	}
}
