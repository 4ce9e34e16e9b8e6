package evidence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo interface {
	GetEvidence(ctx context.Context, orderID string) (*DBEvidence, error)
	SetField(ctx context.Context, orderID, column, value string, at time.Time) error
}

type DefaultRepo struct {
	db *sqlx.DB
}

func NewDefaultRepo(db *sqlx.DB) Repo {
	return &DefaultRepo{db: db}
}

func (d *DefaultRepo) GetEvidence(ctx context.Context, orderID string) (*DBEvidence, error) {
	query, args, err := psql.Select(evidenceColumns...).From("evidence").
		Where(sq.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var ev DBEvidence
	if err := d.db.GetContext(ctx, &ev, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkg.ErrNotFound
		}
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select evidence",
			Info:  fmt.Sprintf("orderID: %s", orderID),
			Err:   err,
		}
	}
	return &ev, nil
}

func (d *DefaultRepo) SetField(ctx context.Context, orderID, column, value string, at time.Time) error {
	builder, err := setFieldQuery(orderID, column, value, at)
	if err != nil {
		return err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to upsert evidence",
			Info:  fmt.Sprintf("orderID: %s; column: %s", orderID, column),
			Err:   err,
		}
	}
	return nil
}

func setFieldQuery(orderID, column, value string, at time.Time) (sq.InsertBuilder, error) {
	if !writableColumn(column) {
		return sq.InsertBuilder{}, fmt.Errorf("%w: %s", ErrUnknownSlot, column)
	}
	return psql.Insert("evidence").
		Columns("order_id", column, "updated_at").
		Values(orderID, value, at).
		Suffix(fmt.Sprintf("ON CONFLICT (order_id) DO UPDATE SET %s = EXCLUDED.%s, updated_at = EXCLUDED.updated_at", column, column)), nil
}
