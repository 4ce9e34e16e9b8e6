package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo interface {
	GetAssignment(ctx context.Context, orderID string, stage model.Stage) (*DBAssignment, error)
	InsertAssignment(ctx context.Context, a DBAssignment) error
	UpdateAssignment(ctx context.Context, id int64, fields map[string]any) error
	UpdateAssignmentStatus(ctx context.Context, orderID string, stage model.Stage, status model.AssignmentStatus) error
	GetOrderAssignments(ctx context.Context, orderID string) ([]DBAssignment, error)
	GetTechnicianAssignments(ctx context.Context, technicianID int64) ([]DBAssignment, error)
	InsertProgress(ctx context.Context, p DBProgress) error
	// GetLatestProgress returns at most one row per stage, the newest.
	GetLatestProgress(ctx context.Context, orderID string) ([]DBProgress, error)
}

type DefaultRepo struct {
	db *sqlx.DB
}

func NewDefaultRepo(db *sqlx.DB) Repo {
	return &DefaultRepo{db: db}
}

func (d *DefaultRepo) GetAssignment(ctx context.Context, orderID string, stage model.Stage) (*DBAssignment, error) {
	query, args, err := assignmentsQuery().
		Where(sq.Eq{"a.order_id": orderID, "a.stage": string(stage)}).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var a DBAssignment
	if err := d.db.GetContext(ctx, &a, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkg.ErrNotFound
		}
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select assignment",
			Info:  fmt.Sprintf("orderID: %s; stage: %s", orderID, stage),
			Err:   err,
		}
	}
	return &a, nil
}

func (d *DefaultRepo) InsertAssignment(ctx context.Context, a DBAssignment) error {
	query, args, err := psql.Insert("order_stage_assignments").
		Columns("order_id", "stage", "technician_id", "status", "assigned_at").
		Values(a.OrderID, string(a.Stage), a.TechnicianID, string(a.Status), a.AssignedAt).
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert assignment",
			Info:  fmt.Sprintf("orderID: %s; stage: %s", a.OrderID, a.Stage),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) UpdateAssignment(ctx context.Context, id int64, fields map[string]any) error {
	query, args, err := psql.Update("order_stage_assignments").SetMap(fields).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to update assignment",
			Info:  fmt.Sprintf("assignmentID: %d", id),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) UpdateAssignmentStatus(ctx context.Context, orderID string, stage model.Stage, status model.AssignmentStatus) error {
	query, args, err := psql.Update("order_stage_assignments").
		Set("status", string(status)).
		Where(sq.Eq{"order_id": orderID, "stage": string(stage)}).ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to update assignment status",
			Info:  fmt.Sprintf("orderID: %s; stage: %s", orderID, stage),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) GetOrderAssignments(ctx context.Context, orderID string) ([]DBAssignment, error) {
	return d.selectAssignments(ctx, assignmentsQuery().Where(sq.Eq{"a.order_id": orderID}))
}

func (d *DefaultRepo) GetTechnicianAssignments(ctx context.Context, technicianID int64) ([]DBAssignment, error) {
	return d.selectAssignments(ctx, assignmentsQuery().
		Where(sq.Eq{"a.technician_id": technicianID}).
		OrderBy("a.assigned_at DESC"))
}

func (d *DefaultRepo) selectAssignments(ctx context.Context, builder sq.SelectBuilder) ([]DBAssignment, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var out []DBAssignment
	if err := d.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select assignments",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	return out, nil
}

func (d *DefaultRepo) InsertProgress(ctx context.Context, p DBProgress) error {
	query, args, err := psql.Insert("progress_new").
		Columns("order_id", "stage", "status", "note", "updated_by", "created_at").
		Values(p.OrderID, string(p.Stage), string(p.Status), p.Note, p.UpdatedBy, p.CreatedAt).
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert progress",
			Info:  fmt.Sprintf("orderID: %s; stage: %s", p.OrderID, p.Stage),
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) GetLatestProgress(ctx context.Context, orderID string) ([]DBProgress, error) {
	query, args, err := latestProgressQuery(orderID).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var out []DBProgress
	if err := d.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select progress",
			Info:  fmt.Sprintf("orderID: %s", orderID),
			Err:   err,
		}
	}
	return out, nil
}

func assignmentsQuery() sq.SelectBuilder {
	return psql.Select(
		"a.id", "a.order_id", "a.stage", "a.technician_id",
		"COALESCE(u.name, '') AS technician_name", "a.status", "a.assigned_at",
	).
		From("order_stage_assignments a").
		LeftJoin("users u ON u.id = a.technician_id")
}

func latestProgressQuery(orderID string) sq.SelectBuilder {
	return psql.Select("id", "order_id", "stage", "status", "note", "updated_by", "created_at").
		Options("DISTINCT ON (stage)").
		From("progress_new").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("stage", "created_at DESC", "id DESC")
}
