package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"
)

type Service interface {
	// FindByTelegramID returns nil without error for unregistered users.
	FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	ByRole(ctx context.Context, role model.Role) ([]model.User, error)
	// Technicians lists technicians mapped to sto, or every technician
	// when nobody is mapped.
	Technicians(ctx context.Context, sto string) ([]model.User, error)
	SetSTOs(ctx context.Context, userID int64, stos []string) error
}

type DefaultService struct {
	repo Repo
}

func NewDefaultService(repo Repo) Service {
	return &DefaultService{repo: repo}
}

func (d *DefaultService) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	dbUser, err := d.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, nil
		}
		slog.Error("Error retrieving user", "error", err, "telegramID", telegramID)
		return nil, err
	}
	user := toModel(*dbUser)
	return &user, nil
}

func (d *DefaultService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	dbUser, err := d.repo.GetUserByID(ctx, id)
	if err != nil {
		slog.Error("Error retrieving user", "error", err, "userID", id)
		return nil, err
	}
	user := toModel(*dbUser)
	return &user, nil
}

func (d *DefaultService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, ok := model.ParseRole(string(req.Role)); !ok {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}
	chatID := req.ChatID
	dbUser, err := d.repo.UpsertUser(ctx, DBUser{
		TelegramID: req.TelegramID,
		ChatID:     &chatID,
		Name:       name,
		Username:   req.Username,
		Role:       req.Role,
	})
	if err != nil {
		slog.Error("Failed to register user", "error", err, "telegramID", req.TelegramID)
		return nil, err
	}
	user := toModel(*dbUser)
	slog.Info("User registered", "userID", user.ID, "role", user.Role)
	return &user, nil
}

func (d *DefaultService) ByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	users, err := d.repo.GetUsersByRole(ctx, role)
	if err != nil {
		slog.Error("Error retrieving users", "error", err, "role", role)
		return nil, err
	}
	return toModels(users), nil
}

func (d *DefaultService) Technicians(ctx context.Context, sto string) ([]model.User, error) {
	if sto != "" {
		mapped, err := d.repo.GetTechniciansBySTO(ctx, sto)
		if err != nil {
			slog.Error("Error retrieving technicians", "error", err, "sto", sto)
			return nil, err
		}
		if len(mapped) > 0 {
			return toModels(mapped), nil
		}
	}
	return d.ByRole(ctx, model.RoleTechnician)
}

func (d *DefaultService) SetSTOs(ctx context.Context, userID int64, stos []string) error {
	canonical := make([]string, 0, len(stos))
	seen := map[string]bool{}
	for _, s := range stos {
		code, ok := model.ParseSTO(s)
		if !ok {
			return fmt.Errorf("unknown sto %q", s)
		}
		if !seen[code] {
			seen[code] = true
			canonical = append(canonical, code)
		}
	}
	if err := d.repo.ReplaceSTOs(ctx, userID, canonical); err != nil {
		slog.Error("Failed to set technician sto", "error", err, "userID", userID)
		return err
	}
	return nil
}
