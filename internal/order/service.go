package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"isp-order-bot/internal/pkg/model"

	sq "github.com/Masterminds/squirrel"
)

type Service interface {
	CreateOrder(ctx context.Context, orderID string, createdBy int64) error
	OrderExists(ctx context.Context, orderID string) (bool, error)
	UpdateOrder(ctx context.Context, orderID string, patch Patch) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ActiveOrders(ctx context.Context) ([]model.Order, error)
	TechnicianOrders(ctx context.Context, technicianID int64) ([]model.Order, error)
	SetStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	// CloseOrder reports whether this call moved the order to Closed.
	CloseOrder(ctx context.Context, orderID string, at time.Time) (bool, error)
	RecordMarker(ctx context.Context, orderID string, marker model.Marker, at time.Time) error
	// SetDeadline stores the compliance deadline unless one is already set.
	SetDeadline(ctx context.Context, orderID string, deadline time.Time) (bool, error)
	SetCompliance(ctx context.Context, orderID string, status model.TTIStatus, elapsed time.Duration) error
}

type DefaultService struct {
	repo Repo
	now  func() time.Time
}

func NewDefaultService(repo Repo) Service {
	return &DefaultService{
		repo: repo,
		now:  time.Now,
	}
}

func (d *DefaultService) CreateOrder(ctx context.Context, orderID string, createdBy int64) error {
	now := d.now()
	order := DBOrder{
		OrderID:   orderID,
		Status:    model.StatusPending,
		CreatedBy: &createdBy,
		CreatedAt: &now,
		TTIStatus: model.TTIPending,
	}
	if err := d.repo.InsertOrder(ctx, order); err != nil {
		if !errors.Is(err, ErrDuplicateOrder) {
			slog.Error("Failed to create order", "error", err, "orderID", orderID)
		}
		return err
	}
	return nil
}

func (d *DefaultService) OrderExists(ctx context.Context, orderID string) (bool, error) {
	exists, err := d.repo.OrderExists(ctx, orderID)
	if err != nil {
		slog.Error("Failed to check order", "error", err, "orderID", orderID)
	}
	return exists, err
}

func (d *DefaultService) UpdateOrder(ctx context.Context, orderID string, patch Patch) error {
	fields := patch.fields()
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = d.now()
	if err := d.repo.UpdateOrder(ctx, orderID, fields); err != nil {
		slog.Error("Failed to update order", "error", err, "orderID", orderID)
		return err
	}
	return nil
}

func (d *DefaultService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	dbOrder, err := d.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		slog.Error("Error retrieving order", "error", err, "orderID", orderID)
		return nil, err
	}
	order := toModel(*dbOrder)
	return &order, nil
}

func (d *DefaultService) ActiveOrders(ctx context.Context) ([]model.Order, error) {
	dbOrders, err := d.repo.GetOrdersByStatus(ctx, model.ActiveStatuses)
	if err != nil {
		slog.Error("Error retrieving active orders", "error", err)
		return nil, err
	}
	orders := make([]model.Order, len(dbOrders))
	for i, o := range dbOrders {
		orders[i] = toModel(o)
	}
	SortActive(orders)
	return orders, nil
}

func (d *DefaultService) TechnicianOrders(ctx context.Context, technicianID int64) ([]model.Order, error) {
	dbOrders, err := d.repo.GetTechnicianOrders(ctx, technicianID)
	if err != nil {
		slog.Error("Error retrieving technician orders", "error", err, "technicianID", technicianID)
		return nil, err
	}
	orders := make([]model.Order, len(dbOrders))
	for i, o := range dbOrders {
		orders[i] = toModel(o)
	}
	SortActive(orders)
	return orders, nil
}

func (d *DefaultService) SetStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return d.UpdateOrder(ctx, orderID, Patch{Status: &status})
}

func (d *DefaultService) CloseOrder(ctx context.Context, orderID string, at time.Time) (bool, error) {
	fields := map[string]any{
		"status":     string(model.StatusClosed),
		"closed_at":  at,
		"updated_at": at,
	}
	closed, err := d.repo.UpdateOrderWhere(ctx, orderID, fields, sq.NotEq{"status": string(model.StatusClosed)})
	if err != nil {
		slog.Error("Error closing order", "error", err, "orderID", orderID)
		return false, err
	}
	return closed, nil
}

func (d *DefaultService) RecordMarker(ctx context.Context, orderID string, marker model.Marker, at time.Time) error {
	column, ok := markerColumn(marker)
	if !ok {
		return fmt.Errorf("unknown marker %q", marker)
	}
	fields := map[string]any{column: at, "updated_at": d.now()}
	if err := d.repo.UpdateOrder(ctx, orderID, fields); err != nil {
		slog.Error("Error recording marker", "error", err, "orderID", orderID, "marker", marker)
		return err
	}
	return nil
}

func (d *DefaultService) SetDeadline(ctx context.Context, orderID string, deadline time.Time) (bool, error) {
	fields := map[string]any{"tti_comply_deadline": deadline}
	applied, err := d.repo.UpdateOrderWhere(ctx, orderID, fields, sq.Eq{"tti_comply_deadline": nil})
	if err != nil {
		slog.Error("Error setting deadline", "error", err, "orderID", orderID)
		return false, err
	}
	return applied, nil
}

func (d *DefaultService) SetCompliance(ctx context.Context, orderID string, status model.TTIStatus, elapsed time.Duration) error {
	fields := map[string]any{
		"tti_comply_status":  string(status),
		"tti_comply_seconds": int64(elapsed / time.Second),
	}
	if err := d.repo.UpdateOrder(ctx, orderID, fields); err != nil {
		slog.Error("Error storing compliance", "error", err, "orderID", orderID)
		return err
	}
	return nil
}
