package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"isp-order-bot/internal/pkg/config"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*DBReminder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*DBReminder{}}
}

func (f *fakeRepo) InsertReminders(_ context.Context, reminders []DBReminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range reminders {
		duplicate := false
		for _, existing := range f.rows {
			if existing.OrderID == r.OrderID && existing.Kind == r.Kind {
				duplicate = true
			}
		}
		if !duplicate {
			r := r
			f.rows[r.ID] = &r
		}
	}
	return nil
}

func (f *fakeRepo) DueReminders(_ context.Context, now time.Time, _ uint64) ([]DBReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []DBReminder
	for _, r := range f.rows {
		if r.Status == StatusPending && !r.DueAt.After(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, status Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id].Status = status
	f.rows[id].FiredAt = &at
	return nil
}

func (f *fakeRepo) byKind(orderID string) map[Kind]DBReminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[Kind]DBReminder{}
	for _, r := range f.rows {
		if r.OrderID == orderID {
			out[r.Kind] = *r
		}
	}
	return out
}

type fakeOrders struct {
	orders map[string]model.Order
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &o, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts map[string][]string
}

func (f *fakeNotifier) NotifyRole(_ context.Context, role model.Role, orderID, _, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role != model.RoleHD {
		return 0, nil
	}
	f.texts[orderID] = append(f.texts[orderID], text)
	return 1, nil
}

func newService(now time.Time, orders map[string]model.Order) (*DefaultService, *fakeRepo, *fakeNotifier) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{texts: map[string][]string{}}
	svc := NewDefaultService(repo, &fakeOrders{orders: orders}, notifier, config.ReminderCfg{Sweep: "@every 1h"}, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo, notifier
}

func TestScheduleSkipsPastOffsets(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newService(now, nil)

	require.NoError(t, svc.Schedule(context.Background(), "ORD-1", now.Add(72*time.Hour)))
	assert.Len(t, repo.byKind("ORD-1"), 4)

	require.NoError(t, svc.Schedule(context.Background(), "ORD-2", now.Add(10*time.Hour)))
	kinds := repo.byKind("ORD-2")
	assert.Len(t, kinds, 2)
	assert.Contains(t, kinds, Kind6h)
	assert.Contains(t, kinds, KindExpired)

	require.NoError(t, svc.Schedule(context.Background(), "ORD-3", now.Add(-time.Hour)))
	assert.Len(t, repo.byKind("ORD-3"), 1)
	assert.Contains(t, repo.byKind("ORD-3"), KindExpired)
}

func TestSweepFiresAndCancels(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(-time.Minute)
	svc, repo, notifier := newService(now, map[string]model.Order{
		"ORD-OPEN":    {ID: "ORD-OPEN", Status: model.StatusInProgress, TTIStatus: model.TTIPending, TTIDeadline: &deadline},
		"ORD-CLOSED":  {ID: "ORD-CLOSED", Status: model.StatusClosed},
		"ORD-DECIDED": {ID: "ORD-DECIDED", Status: model.StatusInProgress, TTIStatus: model.TTIComply},
	})
	ctx := context.Background()
	for _, id := range []string{"ORD-OPEN", "ORD-CLOSED", "ORD-DECIDED", "ORD-GONE"} {
		require.NoError(t, svc.Schedule(ctx, id, deadline))
	}

	assert.Equal(t, 1, svc.Sweep(ctx))
	assert.Equal(t, int64(1), svc.Fired())

	assert.Equal(t, StatusFired, repo.byKind("ORD-OPEN")[KindExpired].Status)
	assert.Equal(t, StatusCancelled, repo.byKind("ORD-CLOSED")[KindExpired].Status)
	assert.Equal(t, StatusCancelled, repo.byKind("ORD-DECIDED")[KindExpired].Status)
	assert.Equal(t, StatusCancelled, repo.byKind("ORD-GONE")[KindExpired].Status)
	require.Len(t, notifier.texts["ORD-OPEN"], 1)
	assert.Contains(t, notifier.texts["ORD-OPEN"][0], "ORD-OPEN")

	assert.Equal(t, 0, svc.Sweep(ctx), "fired reminders must not repeat")
}

func TestSweepFiresOnlyLatestDueReminder(t *testing.T) {
	scheduledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := scheduledAt.Add(72 * time.Hour)
	svc, repo, notifier := newService(scheduledAt, map[string]model.Order{
		"ORD-1": {ID: "ORD-1", Status: model.StatusInProgress, TTIStatus: model.TTIPending, TTIDeadline: &deadline},
	})
	ctx := context.Background()
	require.NoError(t, svc.Schedule(ctx, "ORD-1", deadline))

	svc.now = func() time.Time { return deadline.Add(-5 * time.Hour) }
	assert.Equal(t, 1, svc.Sweep(ctx))

	kinds := repo.byKind("ORD-1")
	assert.Equal(t, StatusCancelled, kinds[Kind48h].Status)
	assert.Equal(t, StatusCancelled, kinds[Kind24h].Status)
	assert.Equal(t, StatusFired, kinds[Kind6h].Status)
	assert.Equal(t, StatusPending, kinds[KindExpired].Status)
	require.Len(t, notifier.texts["ORD-1"], 1)
	assert.Contains(t, notifier.texts["ORD-1"][0], "6 jam")

	svc.now = func() time.Time { return deadline.Add(time.Minute) }
	assert.Equal(t, 1, svc.Sweep(ctx))
	assert.Equal(t, StatusFired, repo.byKind("ORD-1")[KindExpired].Status)
}

func TestStartRecoversOverdueReminders(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(5 * time.Hour)
	svc, repo, notifier := newService(now, map[string]model.Order{
		"ORD-1": {ID: "ORD-1", Status: model.StatusPending, TTIStatus: model.TTIPending, TTIDeadline: &deadline},
	})
	require.NoError(t, repo.InsertReminders(context.Background(), []DBReminder{
		{ID: uuid.New(), OrderID: "ORD-1", Kind: Kind6h, DueAt: deadline.Add(-6 * time.Hour), Status: StatusPending},
	}))

	require.NoError(t, svc.Start(context.Background()))
	assert.ErrorIs(t, svc.Start(context.Background()), ErrAlreadyStarted)

	assert.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.texts["ORD-1"]) == 1
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc, _, _ := newService(time.Now(), nil)
	svc.cfg.Sweep = "not a schedule"
	assert.Error(t, svc.Start(context.Background()))
}

func TestMessageMentionsRemaining(t *testing.T) {
	deadline := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	text := Message(model.Order{ID: "ORD-<1>", STO: "CBB", TTIDeadline: &deadline}, Kind24h, time.UTC)
	assert.Contains(t, text, "24 jam")
	assert.Contains(t, text, "ORD-&lt;1&gt;")
	assert.Contains(t, text, "04/06/2025 09:00")

	assert.Contains(t, Message(model.Order{ID: "ORD-1"}, KindExpired, time.UTC), "Terlewati")
}

func TestDueRemindersQuery(t *testing.T) {
	query, args, err := dueRemindersQuery(time.Now(), 50).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE status = $1 AND due_at <= $2")
	assert.Contains(t, query, "ORDER BY due_at LIMIT 50")
	assert.Equal(t, "pending", args[0])
}
