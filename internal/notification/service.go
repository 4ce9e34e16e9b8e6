package notification

import (
	"context"
	"log/slog"
	"time"

	"isp-order-bot/internal/pkg/model"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	KindAssignment = "assignment"
	KindReminder   = "tti_reminder"
	KindProgress   = "progress"
	KindClosed     = "order_closed"
)

type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type roleLister interface {
	ByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

type Service interface {
	NotifyUser(ctx context.Context, user model.User, orderID, kind, text string) error
	// NotifyRole reports how many recipients were reached.
	NotifyRole(ctx context.Context, role model.Role, orderID, kind, text string) (int, error)
}

type DefaultService struct {
	repo   Repo
	sender Sender
	users  roleLister
	now    func() time.Time
}

func NewDefaultService(repo Repo, sender Sender, users roleLister) Service {
	return &DefaultService{repo: repo, sender: sender, users: users, now: time.Now}
}

func (d *DefaultService) NotifyUser(ctx context.Context, user model.User, orderID, kind, text string) error {
	if err := d.repo.InsertNotification(ctx, DBNotification{
		UserID:    user.ID,
		OrderID:   orderID,
		Kind:      kind,
		Message:   text,
		CreatedAt: d.now(),
	}); err != nil {
		slog.Warn("Failed to store notification", "error", err, "userID", user.ID, "kind", kind)
	}

	if user.ChatID == nil {
		slog.Warn("Notification recipient has no chat", "userID", user.ID, "kind", kind)
		return nil
	}
	if _, err := d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *user.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}); err != nil {
		slog.Warn("Failed to send notification", "error", err, "userID", user.ID, "kind", kind)
		return err
	}
	return nil
}

func (d *DefaultService) NotifyRole(ctx context.Context, role model.Role, orderID, kind, text string) (int, error) {
	users, err := d.users.ByRole(ctx, role)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, u := range users {
		if err := d.NotifyUser(ctx, u, orderID, kind, text); err != nil || u.ChatID == nil {
			continue
		}
		sent++
	}
	return sent, nil
}
