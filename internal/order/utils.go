package order

import (
	"sort"
	"strconv"

	"isp-order-bot/internal/pkg/model"
)

// SortActive orders newest created first. Orders without a creation time
// go last; ties fall back to the numeric suffix of the id, highest first.
func SortActive(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		switch {
		case a.CreatedAt != nil && b.CreatedAt != nil:
			if !a.CreatedAt.Equal(*b.CreatedAt) {
				return a.CreatedAt.After(*b.CreatedAt)
			}
		case a.CreatedAt != nil:
			return true
		case b.CreatedAt != nil:
			return false
		}
		return numericSuffix(a.ID) > numericSuffix(b.ID)
	})
}

// numericSuffix returns the trailing run of digits of id, or -1.
func numericSuffix(id string) int64 {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	n, err := strconv.ParseInt(id[start:end], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
