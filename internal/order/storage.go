package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo interface {
	InsertOrder(ctx context.Context, order DBOrder) error
	OrderExists(ctx context.Context, orderID string) (bool, error)
	GetOrderByID(ctx context.Context, orderID string) (*DBOrder, error)
	UpdateOrder(ctx context.Context, orderID string, fields map[string]any) error
	// UpdateOrderWhere applies fields only when cond also holds and
	// reports whether a row changed.
	UpdateOrderWhere(ctx context.Context, orderID string, fields map[string]any, cond sq.Sqlizer) (bool, error)
	GetOrdersByStatus(ctx context.Context, statuses []model.OrderStatus) ([]DBOrder, error)
	GetTechnicianOrders(ctx context.Context, technicianID int64) ([]DBOrder, error)
}

type DefaultRepo struct {
	db *sqlx.DB
}

func NewDefaultRepo(db *sqlx.DB) Repo {
	return &DefaultRepo{db: db}
}

func (d *DefaultRepo) InsertOrder(ctx context.Context, order DBOrder) error {
	query, args, err := insertOrderQuery(order).ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateOrder
		}
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert order",
			Info:  fmt.Sprintf("orderID: %s", order.OrderID),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) OrderExists(ctx context.Context, orderID string) (bool, error) {
	query, args, err := psql.Select("1").Prefix("SELECT EXISTS (").
		From("orders").Where(sq.Eq{"order_id": orderID}).Suffix(")").ToSql()
	if err != nil {
		return false, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var exists bool
	if err := d.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, &pkg.ErrDBProcedure{
			Cause: "failed to check order existence",
			Info:  fmt.Sprintf("orderID: %s", orderID),
			Err:   err,
		}
	}
	return exists, nil
}

func (d *DefaultRepo) GetOrderByID(ctx context.Context, orderID string) (*DBOrder, error) {
	query, args, err := psql.Select(orderColumns...).From("orders").
		Where(sq.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var order DBOrder
	if err := d.db.GetContext(ctx, &order, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkg.ErrNotFound
		}
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select order",
			Info:  fmt.Sprintf("orderID: %s", orderID),
			Err:   err,
		}
	}
	return &order, nil
}

func (d *DefaultRepo) UpdateOrder(ctx context.Context, orderID string, fields map[string]any) error {
	_, err := d.UpdateOrderWhere(ctx, orderID, fields, nil)
	return err
}

func (d *DefaultRepo) UpdateOrderWhere(ctx context.Context, orderID string, fields map[string]any, cond sq.Sqlizer) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	query, args, err := updateOrderQuery(orderID, fields, cond).ToSql()
	if err != nil {
		return false, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, &pkg.ErrDBProcedure{
			Cause: "failed to update order",
			Info:  fmt.Sprintf("orderID: %s", orderID),
			Err:   err,
		}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, &pkg.ErrDBProcedure{Cause: "failed to read affected rows", Err: err}
	}
	return affected > 0, nil
}

func (d *DefaultRepo) GetOrdersByStatus(ctx context.Context, statuses []model.OrderStatus) ([]DBOrder, error) {
	query, args, err := ordersByStatusQuery(statuses).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var orders []DBOrder
	if err := d.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select orders",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	return orders, nil
}

func (d *DefaultRepo) GetTechnicianOrders(ctx context.Context, technicianID int64) ([]DBOrder, error) {
	query, args, err := technicianOrdersQuery(technicianID).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var orders []DBOrder
	if err := d.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select technician orders",
			Info:  fmt.Sprintf("technicianID: %d", technicianID),
			Err:   err,
		}
	}
	return orders, nil
}

func insertOrderQuery(order DBOrder) sq.InsertBuilder {
	return psql.Insert("orders").
		Columns("order_id", "status", "created_by", "created_at", "updated_at", "tti_comply_status").
		Values(order.OrderID, string(order.Status), order.CreatedBy, order.CreatedAt, order.CreatedAt, string(model.TTIPending))
}

func updateOrderQuery(orderID string, fields map[string]any, cond sq.Sqlizer) sq.UpdateBuilder {
	builder := psql.Update("orders").SetMap(fields).Where(sq.Eq{"order_id": orderID})
	if cond != nil {
		builder = builder.Where(cond)
	}
	return builder
}

func ordersByStatusQuery(statuses []model.OrderStatus) sq.SelectBuilder {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return psql.Select(orderColumns...).From("orders").
		Where(sq.Eq{"status": values}).
		OrderBy("created_at DESC NULLS LAST", "order_id DESC")
}

func technicianOrdersQuery(technicianID int64) sq.SelectBuilder {
	columns := make([]string, len(orderColumns))
	for i, c := range orderColumns {
		columns[i] = "o." + c
	}
	return psql.Select(columns...).Distinct().
		From("orders o").
		Join("order_stage_assignments a ON a.order_id = o.order_id").
		Where(sq.Eq{"a.technician_id": technicianID}).
		Where(sq.NotEq{"o.status": string(model.StatusClosed)}).
		OrderBy("o.created_at DESC NULLS LAST")
}
