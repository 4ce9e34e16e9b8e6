package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"
)

type Service interface {
	// Load returns empty evidence when nothing was uploaded yet.
	Load(ctx context.Context, orderID string) (*model.Evidence, error)
	SetODPName(ctx context.Context, orderID, name string) error
	SetSerialNumber(ctx context.Context, orderID, serial string) error
	// StorePhoto downloads fileID, stores it and records the key in slot.
	StorePhoto(ctx context.Context, orderID string, slot model.EvidenceSlot, fileID string) (string, error)
}

type DefaultService struct {
	repo       Repo
	storage    Storage
	downloader Downloader
	now        func() time.Time
}

func NewDefaultService(repo Repo, storage Storage, downloader Downloader) Service {
	return &DefaultService{
		repo:       repo,
		storage:    storage,
		downloader: downloader,
		now:        time.Now,
	}
}

func (d *DefaultService) Load(ctx context.Context, orderID string) (*model.Evidence, error) {
	ev, err := d.repo.GetEvidence(ctx, orderID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return &model.Evidence{OrderID: orderID, Photos: map[string]string{}}, nil
		}
		slog.Error("Error retrieving evidence", "error", err, "orderID", orderID)
		return nil, err
	}
	return toModel(*ev), nil
}

func (d *DefaultService) SetODPName(ctx context.Context, orderID, name string) error {
	return d.setText(ctx, orderID, columnODPName, name)
}

func (d *DefaultService) SetSerialNumber(ctx context.Context, orderID, serial string) error {
	return d.setText(ctx, orderID, columnSerialNumber, serial)
}

func (d *DefaultService) setText(ctx context.Context, orderID, column, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s must not be empty", column)
	}
	if err := d.repo.SetField(ctx, orderID, column, value, d.now()); err != nil {
		slog.Error("Failed to store evidence field", "error", err, "orderID", orderID, "column", column)
		return err
	}
	return nil
}

func (d *DefaultService) StorePhoto(ctx context.Context, orderID string, slot model.EvidenceSlot, fileID string) (string, error) {
	if _, ok := model.EvidenceSlotByField(slot.Field); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSlot, slot.Field)
	}

	body, err := d.downloader.DownloadFile(ctx, fileID)
	if err != nil {
		slog.Error("Failed to download evidence photo", "error", err, "orderID", orderID, "slot", slot.Field)
		return "", err
	}
	defer body.Close()

	key := objectKey(orderID, slot.Field)
	if err := d.storage.Save(ctx, key, body); err != nil {
		slog.Error("Failed to save evidence photo", "error", err, "orderID", orderID, "key", key)
		return "", err
	}

	if err := d.repo.SetField(ctx, orderID, slot.Field, key, d.now()); err != nil {
		slog.Error("Failed to record evidence photo", "error", err, "orderID", orderID, "slot", slot.Field)
		return "", err
	}
	slog.Info("Evidence photo stored", "orderID", orderID, "slot", slot.Field, "key", key)
	return key, nil
}
