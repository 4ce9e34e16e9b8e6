package order

import (
	"testing"
	"time"

	"isp-order-bot/internal/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertOrderQuery(t *testing.T) {
	now := time.Now()
	creator := int64(5)
	query, args, err := insertOrderQuery(DBOrder{
		OrderID:   "ORD-1",
		Status:    model.StatusPending,
		CreatedBy: &creator,
		CreatedAt: &now,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO orders (order_id,status,created_by,created_at,updated_at,tti_comply_status) VALUES ($1,$2,$3,$4,$5,$6)", query)
	assert.Equal(t, "ORD-1", args[0])
	assert.Equal(t, "Pending", args[1])
	assert.Equal(t, "pending", args[5])
}

func TestUpdateOrderQueryWithCondition(t *testing.T) {
	query, args, err := updateOrderQuery("ORD-1",
		map[string]any{"tti_comply_deadline": "x"},
		sq.Eq{"tti_comply_deadline": nil},
	).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE orders SET tti_comply_deadline = $1 WHERE order_id = $2 AND tti_comply_deadline IS NULL", query)
	assert.Equal(t, []any{"x", "ORD-1"}, args)
}

func TestAssignedTechnicianPatchQuery(t *testing.T) {
	tech := int64(7)
	status := model.StatusInProgress
	fields := Patch{AssignedTechnician: &tech, Status: &status}.fields()

	query, args, err := updateOrderQuery("ORD-1", fields, nil).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "assigned_technician = $1")
	assert.Contains(t, query, "status = $2")
	assert.Equal(t, []any{int64(7), "In Progress", "ORD-1"}, args)
}

func TestOrdersByStatusQuery(t *testing.T) {
	query, args, err := ordersByStatusQuery(model.ActiveStatuses).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE status IN ($1,$2,$3)")
	assert.Contains(t, query, "ORDER BY created_at DESC NULLS LAST")
	assert.Equal(t, []any{"Pending", "In Progress", "On Hold"}, args)
}

func TestTechnicianOrdersQuery(t *testing.T) {
	query, args, err := technicianOrdersQuery(9).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT DISTINCT o.order_id")
	assert.Contains(t, query, "JOIN order_stage_assignments a ON a.order_id = o.order_id")
	assert.Contains(t, query, "a.technician_id = $1")
	assert.Contains(t, query, "o.status <> $2")
	assert.Equal(t, []any{int64(9), "Closed"}, args)
}
