package order

import (
	"testing"
	"time"

	"isp-order-bot/internal/pkg/model"

	"github.com/stretchr/testify/assert"
)

func ids(orders []model.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestSortActive(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)

	orders := []model.Order{
		{ID: "ORD-7", CreatedAt: &base},
		{ID: "ORD-12"},
		{ID: "ORD-9", CreatedAt: &later},
		{ID: "ORD-10", CreatedAt: &base},
		{ID: "ORD-3"},
		{ID: "misc"},
	}

	SortActive(orders)

	assert.Equal(t, []string{"ORD-9", "ORD-10", "ORD-7", "ORD-12", "ORD-3", "misc"}, ids(orders))
}

func TestNumericSuffix(t *testing.T) {
	assert.Equal(t, int64(42), numericSuffix("SC-42"))
	assert.Equal(t, int64(7), numericSuffix("7"))
	assert.Equal(t, int64(-1), numericSuffix("ABC"))
	assert.Equal(t, int64(-1), numericSuffix(""))
}
