package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"isp-order-bot/internal/compliance"
	"isp-order-bot/internal/notification"
	"isp-order-bot/internal/pkg/config"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/atomic"
)

const sweepBatch = 100

var ErrAlreadyStarted = errors.New("reminder service already started")

type orderLookup interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
}

type roleNotifier interface {
	NotifyRole(ctx context.Context, role model.Role, orderID, kind, text string) (int, error)
}

type Service interface {
	// Schedule persists the reminders of a deadline. Offsets already in
	// the past are skipped, except the expiry itself.
	Schedule(ctx context.Context, orderID string, deadline time.Time) error
	// Start sweeps once immediately, then on the configured schedule.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Sweep(ctx context.Context) int
	Fired() int64
}

type DefaultService struct {
	repo     Repo
	orders   orderLookup
	notifier roleNotifier
	cfg      config.ReminderCfg
	loc      *time.Location
	now      func() time.Time

	cron     *cron.Cron
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	running  *atomic.Bool
	sweeping *atomic.Bool
	fired    *atomic.Int64
}

func NewDefaultService(repo Repo, orders orderLookup, notifier roleNotifier, cfg config.ReminderCfg, loc *time.Location) *DefaultService {
	if loc == nil {
		loc = time.Local
	}
	return &DefaultService{
		repo:     repo,
		orders:   orders,
		notifier: notifier,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		wg:       &sync.WaitGroup{},
		running:  atomic.NewBool(false),
		sweeping: atomic.NewBool(false),
		fired:    atomic.NewInt64(0),
	}
}

func (d *DefaultService) Schedule(ctx context.Context, orderID string, deadline time.Time) error {
	now := d.now()
	var rows []DBReminder
	for _, offset := range compliance.ReminderOffsets {
		due := deadline.Add(-offset)
		if offset > 0 && due.Before(now) {
			continue
		}
		rows = append(rows, DBReminder{
			ID:        uuid.New(),
			OrderID:   orderID,
			Kind:      kindFor(offset),
			DueAt:     due,
			Status:    StatusPending,
			CreatedAt: now,
		})
	}
	if err := d.repo.InsertReminders(ctx, rows); err != nil {
		slog.Error("Failed to schedule reminders", "error", err, "orderID", orderID)
		return err
	}
	slog.Info("Reminders scheduled", "orderID", orderID, "count", len(rows), "deadline", deadline)
	return nil
}

func (d *DefaultService) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx, d.cancel = context.WithCancel(ctx)

	d.cron = cron.New(cron.WithLocation(d.loc))
	if _, err := d.cron.AddFunc(d.cfg.Sweep, func() { d.Sweep(ctx) }); err != nil {
		d.cancel()
		d.running.Store(false)
		return fmt.Errorf("invalid reminder schedule %q: %w", d.cfg.Sweep, err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if n := d.Sweep(ctx); n > 0 {
			slog.Info("Recovered overdue reminders", "fired", n)
		}
		d.cron.Start()
		<-ctx.Done()
		<-d.cron.Stop().Done()
	}()

	slog.Info("Started reminder service", "schedule", d.cfg.Sweep)
	return nil
}

func (d *DefaultService) Stop(ctx context.Context) error {
	if !d.running.Load() {
		return nil
	}
	d.cancel()

	stop := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(stop)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop:
		d.running.Store(false)
		return nil
	}
}

func (d *DefaultService) Sweep(ctx context.Context) int {
	if !d.sweeping.CompareAndSwap(false, true) {
		return 0
	}
	defer d.sweeping.Store(false)

	due, err := d.repo.DueReminders(ctx, d.now(), sweepBatch)
	if err != nil {
		slog.Error("Failed to load due reminders", "error", err)
		return 0
	}

	// Only the latest due reminder of an order fires; earlier ones left
	// over from downtime are superseded.
	latest := map[string]DBReminder{}
	for _, r := range due {
		if cur, ok := latest[r.OrderID]; !ok || r.DueAt.After(cur.DueAt) {
			latest[r.OrderID] = r
		}
	}

	fired := 0
	for _, r := range due {
		if ctx.Err() != nil {
			break
		}
		if latest[r.OrderID].ID != r.ID {
			if err := d.repo.SetStatus(ctx, r.ID, StatusCancelled, d.now()); err != nil {
				slog.Error("Failed to cancel reminder", "error", err, "reminderID", r.ID)
			}
			slog.Debug("Reminder superseded", "orderID", r.OrderID, "kind", r.Kind)
			continue
		}
		if d.process(ctx, r) {
			fired++
		}
	}
	d.fired.Add(int64(fired))
	return fired
}

func (d *DefaultService) process(ctx context.Context, r DBReminder) bool {
	order, err := d.orders.GetOrder(ctx, r.OrderID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		slog.Error("Failed to load reminder order", "error", err, "orderID", r.OrderID)
		return false
	}
	if order == nil || order.Status == model.StatusClosed || order.TTIStatus.Decided() {
		if err := d.repo.SetStatus(ctx, r.ID, StatusCancelled, d.now()); err != nil {
			slog.Error("Failed to cancel reminder", "error", err, "reminderID", r.ID)
		}
		return false
	}

	text := Message(*order, r.Kind, d.loc)
	sent, err := d.notifier.NotifyRole(ctx, model.RoleHD, order.ID, notification.KindReminder, text)
	if err != nil {
		slog.Error("Failed to notify reminder", "error", err, "orderID", order.ID, "kind", r.Kind)
		return false
	}
	if err := d.repo.SetStatus(ctx, r.ID, StatusFired, d.now()); err != nil {
		slog.Error("Failed to mark reminder fired", "error", err, "reminderID", r.ID)
	}
	slog.Info("Reminder fired", "orderID", order.ID, "kind", r.Kind, "recipients", sent)
	return true
}

func (d *DefaultService) Fired() int64 {
	return d.fired.Load()
}
