package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"isp-order-bot/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const driverName = "pgx"

// Connect opens the pool, configures its size and verifies connectivity.
func Connect(ctx context.Context, cfg config.DBCfg) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driverName, cfg.URL)
	if err != nil {
		slog.Error("Database connect failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("Database connected", "pool", cfg.MaxConns, "duration", time.Since(start))
	return db, nil
}
