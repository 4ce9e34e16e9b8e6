package reminder

import (
	"context"
	"fmt"
	"time"

	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo interface {
	InsertReminders(ctx context.Context, reminders []DBReminder) error
	DueReminders(ctx context.Context, now time.Time, limit uint64) ([]DBReminder, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
}

type DefaultRepo struct {
	db *sqlx.DB
}

func NewDefaultRepo(db *sqlx.DB) Repo {
	return &DefaultRepo{db: db}
}

func (d *DefaultRepo) InsertReminders(ctx context.Context, reminders []DBReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	query, args, err := insertRemindersQuery(reminders).ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert reminders",
			Info:  fmt.Sprintf("orderID: %s", reminders[0].OrderID),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) DueReminders(ctx context.Context, now time.Time, limit uint64) ([]DBReminder, error) {
	query, args, err := dueRemindersQuery(now, limit).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var out []DBReminder
	if err := d.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to select due reminders", Err: err}
	}
	return out, nil
}

func (d *DefaultRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	query, args, err := psql.Update("reminders").
		Set("status", string(status)).
		Set("fired_at", at).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to update reminder",
			Info:  fmt.Sprintf("reminderID: %s", id),
			Err:   err,
		}
	}
	return nil
}

func insertRemindersQuery(reminders []DBReminder) sq.InsertBuilder {
	builder := psql.Insert("reminders").Columns("id", "order_id", "kind", "due_at", "status", "created_at")
	for _, r := range reminders {
		builder = builder.Values(r.ID, r.OrderID, string(r.Kind), r.DueAt, string(r.Status), r.CreatedAt)
	}
	return builder.Suffix("ON CONFLICT (order_id, kind) DO NOTHING")
}

func dueRemindersQuery(now time.Time, limit uint64) sq.SelectBuilder {
	return psql.Select(reminderColumns...).From("reminders").
		Where(sq.Eq{"status": string(StatusPending)}).
		Where(sq.LtOrEq{"due_at": now}).
		OrderBy("due_at").
		Limit(limit)
}
