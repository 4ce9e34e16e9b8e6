package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"isp-order-bot/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
)

const pingTimeout = 2 * time.Second

type handlers struct {
	api     TelegramAPI
	db      Pinger
	webhook config.WebhookCfg
}

func (h *handlers) health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) getMe(c *gin.Context) {
	me, err := h.api.GetMe(c.Request.Context())
	if err != nil {
		apiError(c, "getMe", err)
		return
	}
	c.JSON(http.StatusOK, me)
}

func (h *handlers) webhookInfo(c *gin.Context) {
	info, err := h.api.GetWebhookInfo(c.Request.Context())
	if err != nil {
		apiError(c, "getWebhookInfo", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type setWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}

// setWebhook points Telegram at the configured public URL.
func (h *handlers) setWebhook(c *gin.Context) {
	var req setWebhookRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if h.webhook.BaseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhook base url is not configured"})
		return
	}
	url := h.webhook.URL()

	ok, err := h.api.SetWebhook(c.Request.Context(), &bot.SetWebhookParams{
		URL:                url,
		SecretToken:        h.webhook.Secret,
		DropPendingUpdates: req.DropPendingUpdates,
	})
	if err != nil {
		apiError(c, "setWebhook", err)
		return
	}
	slog.Info("Webhook set", "url", url)
	c.JSON(http.StatusOK, gin.H{"ok": ok, "url": url})
}

func (h *handlers) deleteWebhook(c *gin.Context) {
	ok, err := h.api.DeleteWebhook(c.Request.Context(), &bot.DeleteWebhookParams{
		DropPendingUpdates: c.Query("drop_pending_updates") == "true",
	})
	if err != nil {
		apiError(c, "deleteWebhook", err)
		return
	}
	slog.Info("Webhook deleted")
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func apiError(c *gin.Context, method string, err error) {
	slog.Error("Telegram API call failed", "error", err, "method", method)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
