package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*DBUser, error)
	GetUserByID(ctx context.Context, id int64) (*DBUser, error)
	UpsertUser(ctx context.Context, user DBUser) (*DBUser, error)
	GetUsersByRole(ctx context.Context, role model.Role) ([]DBUser, error)
	GetTechniciansBySTO(ctx context.Context, sto string) ([]DBUser, error)
	ReplaceSTOs(ctx context.Context, userID int64, stos []string) error
}

type DefaultRepo struct {
	db *sqlx.DB
}

func NewDefaultRepo(db *sqlx.DB) Repo {
	return &DefaultRepo{db: db}
}

func (d *DefaultRepo) GetUserByTelegramID(ctx context.Context, telegramID int64) (*DBUser, error) {
	return d.getUser(ctx, sq.Eq{"telegram_id": telegramID})
}

func (d *DefaultRepo) GetUserByID(ctx context.Context, id int64) (*DBUser, error) {
	return d.getUser(ctx, sq.Eq{"id": id})
}

func (d *DefaultRepo) getUser(ctx context.Context, where sq.Eq) (*DBUser, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var user DBUser
	if err := d.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkg.ErrNotFound
		}
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select user",
			Info:  fmt.Sprintf("where: %v", where),
			Err:   err,
		}
	}
	return &user, nil
}

func (d *DefaultRepo) UpsertUser(ctx context.Context, user DBUser) (*DBUser, error) {
	query, args, err := upsertUserQuery(user).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var stored DBUser
	if err := d.db.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to upsert user",
			Info:  fmt.Sprintf("telegramID: %d", user.TelegramID),
			Err:   err,
		}
	}
	return &stored, nil
}

func (d *DefaultRepo) GetUsersByRole(ctx context.Context, role model.Role) ([]DBUser, error) {
	query, args, err := psql.Select(userColumns...).From("users").
		Where(sq.Eq{"role": string(role)}).OrderBy("name").ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var users []DBUser
	if err := d.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select users",
			Info:  fmt.Sprintf("role: %s", role),
			Err:   err,
		}
	}
	return users, nil
}

func (d *DefaultRepo) GetTechniciansBySTO(ctx context.Context, sto string) ([]DBUser, error) {
	query, args, err := techniciansBySTOQuery(sto).ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	var users []DBUser
	if err := d.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select technicians",
			Info:  fmt.Sprintf("sto: %s", sto),
			Err:   err,
		}
	}
	return users, nil
}

func (d *DefaultRepo) ReplaceSTOs(ctx context.Context, userID int64, stos []string) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to begin transaction", Err: err}
	}
	defer tx.Rollback()

	query, args, err := psql.Delete("technician_sto").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to clear technician sto",
			Info:  fmt.Sprintf("userID: %d", userID),
			Err:   err,
		}
	}

	if len(stos) > 0 {
		insert := psql.Insert("technician_sto").Columns("user_id", "sto")
		for _, sto := range stos {
			insert = insert.Values(userID, sto)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &pkg.ErrDBProcedure{
				Cause: "failed to insert technician sto",
				Info:  fmt.Sprintf("userID: %d; sto: %s", userID, strings.Join(stos, ",")),
				Err:   err,
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to commit transaction", Err: err}
	}
	return nil
}

func upsertUserQuery(user DBUser) sq.InsertBuilder {
	return psql.Insert("users").
		Columns("telegram_id", "chat_id", "name", "username", "role").
		Values(user.TelegramID, user.ChatID, user.Name, user.Username, string(user.Role)).
		Suffix("ON CONFLICT (telegram_id) DO UPDATE SET " +
			"chat_id = EXCLUDED.chat_id, name = EXCLUDED.name, " +
			"username = EXCLUDED.username, role = EXCLUDED.role " +
			"RETURNING " + strings.Join(userColumns, ", "))
}

func techniciansBySTOQuery(sto string) sq.SelectBuilder {
	columns := make([]string, len(userColumns))
	for i, c := range userColumns {
		columns[i] = "u." + c
	}
	return psql.Select(columns...).
		From("users u").
		Join("technician_sto ts ON ts.user_id = u.id").
		Where(sq.Eq{"ts.sto": sto, "u.role": string(model.RoleTechnician)}).
		OrderBy("u.name")
}
