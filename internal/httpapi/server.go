package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"isp-order-bot/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the part of *bot.Bot the admin endpoints call.
type TelegramAPI interface {
	GetMe(ctx context.Context) (*models.User, error)
	GetWebhookInfo(ctx context.Context) (*models.WebhookInfo, error)
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
	DeleteWebhook(ctx context.Context, params *bot.DeleteWebhookParams) (bool, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	engine *gin.Engine
	srv    *http.Server
}

// NewServer mounts the webhook receiver when webhook is not nil.
func NewServer(cfg *config.Config, api TelegramAPI, db Pinger, webhook http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	h := &handlers{api: api, db: db, webhook: cfg.Webhook}
	engine.GET("/healthz", h.health)
	if webhook != nil {
		engine.POST(cfg.Webhook.Path, gin.WrapH(webhook))
	}
	tg := engine.Group("/api/telegram", adminAuth(cfg.HTTP.AdminToken))
	tg.GET("/me", h.getMe)
	tg.GET("/webhook", h.webhookInfo)
	tg.POST("/webhook", h.setWebhook)
	tg.DELETE("/webhook", h.deleteWebhook)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// adminAuth requires "Authorization: Bearer <token>". An empty token
// rejects every request.
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			slog.Warn("Rejected admin request", "path", c.FullPath(), "remote", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
