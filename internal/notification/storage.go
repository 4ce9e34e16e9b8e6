package notification

import (
	"context"
	"fmt"
	"time"

	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type DBNotification struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	OrderID   string    `db:"order_id"`
	Kind      string    `db:"kind"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

type Repo interface {
	InsertNotification(ctx context.Context, n DBNotification) error
}

type DefaultRepo struct {
	db *sqlx.DB
}

func NewDefaultRepo(db *sqlx.DB) Repo {
	return &DefaultRepo{db: db}
}

func (d *DefaultRepo) InsertNotification(ctx context.Context, n DBNotification) error {
	query, args, err := psql.Insert("notifications").
		Columns("user_id", "order_id", "kind", "message", "created_at").
		Values(n.UserID, n.OrderID, n.Kind, n.Message, n.CreatedAt).
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert notification",
			Info:  fmt.Sprintf("userID: %d; kind: %s", n.UserID, n.Kind),
			Err:   err,
		}
	}
	return nil
}
