package user

import (
	"time"

	"isp-order-bot/internal/pkg/model"
)

type DBUser struct {
	ID         int64      `db:"id"`
	TelegramID int64      `db:"telegram_id"`
	ChatID     *int64     `db:"chat_id"`
	Name       string     `db:"name"`
	Username   string     `db:"username"`
	Role       model.Role `db:"role"`
	CreatedAt  time.Time  `db:"created_at"`
}

var userColumns = []string{"id", "telegram_id", "chat_id", "name", "username", "role", "created_at"}

type RegisterRequest struct {
	TelegramID int64
	ChatID     int64
	Name       string
	Username   string
	Role       model.Role
}

func toModel(u DBUser) model.User {
	return model.User{
		ID:         u.ID,
		TelegramID: u.TelegramID,
		ChatID:     u.ChatID,
		Name:       u.Name,
		Username:   u.Username,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}

func toModels(users []DBUser) []model.User {
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = toModel(u)
	}
	return out
}
