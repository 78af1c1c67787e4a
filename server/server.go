// Package server exposes the kernel over HTTP.
//
//	POST   /v1/chat           {"session_id": "...", "message": "..."}
//	GET    /v1/sessions/:id   committed log and turn state
//	DELETE /v1/sessions/:id   forget a session
//	GET    /health
//	GET    /metrics           Prometheus exposition
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/session"
)

// Engine is the part of the kernel the server drives.
type Engine interface {
	Run(ctx context.Context, sessionID, text string) (*kernel.Result, error)
	History(ctx context.Context, sessionID string) (session.Snapshot, error)
	Reset(ctx context.Context, sessionID string) error
}

// ChatRequest is the body of POST /v1/chat. A missing session id starts a
// new session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SessionResponse is the body of GET /v1/sessions/:id.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Snapshot  session.Snapshot `json:"snapshot"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

type Server struct {
	cfg    Config
	engine Engine
	logger *slog.Logger
	router *gin.Engine
}

// New builds the router. A nil gatherer serves the default Prometheus
// registry; a nil logger uses slog.Default.
func New(cfg Config, engine Engine, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		router: gin.New(),
	}

	s.router.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName), s.logRequests())

	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/v1")
	v1.POST("/chat", s.chat)
	v1.GET("/sessions/:id", s.history)
	v1.DELETE("/sessions/:id", s.reset)

	return s
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout.Std())
		defer cancel()
	}

	res, err := s.engine.Run(ctx, req.SessionID, req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) history(c *gin.Context) {
	id := c.Param("id")
	snap, err := s.engine.History(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: id, Snapshot: snap})
}

func (s *Server) reset(c *gin.Context) {
	id := c.Param("id")
	if err := s.engine.Reset(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "session_id": id})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}

	resp := ErrorResponse{Error: err.Error()}
	var turnErr *kernel.TurnError
	if errors.As(err, &turnErr) {
		resp.Stage = string(turnErr.Stage)
	}
	c.JSON(status, resp)
}

// StatusFor maps kernel errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, kernel.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, kernel.ErrAnswerGeneration):
		return http.StatusBadGateway
	case errors.Is(err, kernel.ErrSessionStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
