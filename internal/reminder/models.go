package reminder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	Kind48h     Kind = "h48"
	Kind24h     Kind = "h24"
	Kind6h      Kind = "h6"
	KindExpired Kind = "expired"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFired     Status = "fired"
	StatusCancelled Status = "cancelled"
)

type DBReminder struct {
	ID        uuid.UUID  `db:"id"`
	OrderID   string     `db:"order_id"`
	Kind      Kind       `db:"kind"`
	DueAt     time.Time  `db:"due_at"`
	Status    Status     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	FiredAt   *time.Time `db:"fired_at"`
}

var reminderColumns = []string{"id", "order_id", "kind", "due_at", "status", "created_at", "fired_at"}

func kindFor(remaining time.Duration) Kind {
	switch remaining {
	case 48 * time.Hour:
		return Kind48h
	case 24 * time.Hour:
		return Kind24h
	case 6 * time.Hour:
		return Kind6h
	case 0:
		return KindExpired
	default:
		return Kind(fmt.Sprintf("h%d", int(remaining.Hours())))
	}
}
