package compliance

import (
	"context"
	"log/slog"
	"time"

	"isp-order-bot/internal/pkg/model"
)

type orderStore interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	CloseOrder(ctx context.Context, orderID string, at time.Time) (bool, error)
	RecordMarker(ctx context.Context, orderID string, marker model.Marker, at time.Time) error
	SetDeadline(ctx context.Context, orderID string, deadline time.Time) (bool, error)
	SetCompliance(ctx context.Context, orderID string, status model.TTIStatus, elapsed time.Duration) error
}

type Scheduler interface {
	Schedule(ctx context.Context, orderID string, deadline time.Time) error
}

// Tracker keeps the deadline, reminders and verdict of an order in step
// with its recorded milestones.
type Tracker struct {
	orders    orderStore
	scheduler Scheduler
}

func NewTracker(orders orderStore, scheduler Scheduler) *Tracker {
	return &Tracker{orders: orders, scheduler: scheduler}
}

// EnsureDeadline computes and stores the deadline once, scheduling its
// reminders when this call set it.
func (t *Tracker) EnsureDeadline(ctx context.Context, orderID string, assignedAt *time.Time) error {
	order, err := t.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return t.ensureDeadline(ctx, order, assignedAt)
}

func (t *Tracker) ensureDeadline(ctx context.Context, order *model.Order, assignedAt *time.Time) error {
	if order.TTIDeadline != nil {
		return nil
	}
	start, source, ok := StartMarker(*order, assignedAt)
	if !ok {
		return nil
	}
	deadline := Deadline(start)
	applied, err := t.orders.SetDeadline(ctx, order.ID, deadline)
	if err != nil || !applied {
		return err
	}
	order.TTIDeadline = &deadline
	slog.Info("TTI deadline set", "orderID", order.ID, "source", source, "deadline", deadline)
	return t.scheduler.Schedule(ctx, order.ID, deadline)
}

func (t *Tracker) OnAssigned(ctx context.Context, orderID string, at time.Time) error {
	return t.EnsureDeadline(ctx, orderID, &at)
}

func (t *Tracker) RecordMarker(ctx context.Context, orderID string, marker model.Marker, at time.Time) error {
	if err := t.orders.RecordMarker(ctx, orderID, marker, at); err != nil {
		return err
	}
	order, err := t.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := t.ensureDeadline(ctx, order, nil); err != nil {
		return err
	}
	if marker == model.MarkerE2E {
		return t.evaluate(ctx, order, at)
	}
	return nil
}

// Close moves the order to Closed and records its verdict. It reports
// false when the order was already closed.
func (t *Tracker) Close(ctx context.Context, orderID string, at time.Time) (bool, error) {
	closed, err := t.orders.CloseOrder(ctx, orderID, at)
	if err != nil || !closed {
		return false, err
	}
	order, err := t.orders.GetOrder(ctx, orderID)
	if err != nil {
		return true, err
	}
	end, _ := EndMarker(*order, &at)
	return true, t.evaluate(ctx, order, end)
}

func (t *Tracker) evaluate(ctx context.Context, order *model.Order, end time.Time) error {
	start, _, ok := StartMarker(*order, nil)
	if !ok && order.TTIDeadline != nil {
		start, ok = order.TTIDeadline.Add(-Window), true
	}
	if !ok {
		slog.Warn("No compliance start marker", "orderID", order.ID)
		return nil
	}
	result := Evaluate(start, end)
	if err := t.orders.SetCompliance(ctx, order.ID, result.Status, result.Duration); err != nil {
		return err
	}
	slog.Info("TTI compliance recorded", "orderID", order.ID, "status", result.Status, "duration", result.Duration)
	return nil
}
