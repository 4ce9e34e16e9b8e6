package assignment

import (
	"errors"
	"time"

	"isp-order-bot/internal/pkg/model"
)

var ErrUnknownStage = errors.New("unknown stage")

type DBAssignment struct {
	ID             int64                  `db:"id"`
	OrderID        string                 `db:"order_id"`
	Stage          model.Stage            `db:"stage"`
	TechnicianID   int64                  `db:"technician_id"`
	TechnicianName string                 `db:"technician_name"`
	Status         model.AssignmentStatus `db:"status"`
	AssignedAt     time.Time              `db:"assigned_at"`
}

type DBProgress struct {
	ID        int64                  `db:"id"`
	OrderID   string                 `db:"order_id"`
	Stage     model.Stage            `db:"stage"`
	Status    model.AssignmentStatus `db:"status"`
	Note      string                 `db:"note"`
	UpdatedBy *int64                 `db:"updated_by"`
	CreatedAt time.Time              `db:"created_at"`
}

// StageView is one cell of the stage grid shown to HD users.
type StageView struct {
	Stage          model.Stage
	Status         model.AssignmentStatus
	TechnicianID   *int64
	TechnicianName string
}

type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    map[model.Stage]error
}

func toModel(a DBAssignment) model.StageAssignment {
	return model.StageAssignment{
		ID:             a.ID,
		OrderID:        a.OrderID,
		Stage:          a.Stage,
		TechnicianID:   a.TechnicianID,
		TechnicianName: a.TechnicianName,
		Status:         a.Status,
		AssignedAt:     a.AssignedAt,
	}
}
