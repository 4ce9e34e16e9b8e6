package presentation

import (
	"fmt"
	"html"
	"time"

	"isp-order-bot/internal/pkg/model"
)

const timeLayout = "02/01/2006 15:04"

func esc(s string) string {
	return html.EscapeString(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return esc(s)
}

func FormatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLayout)
}

// FormatDuration renders d as "69j 05m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dj %02dm", hours, minutes)
}

func StatusEmoji(s model.OrderStatus) string {
	switch s {
	case model.StatusPending:
		return "🟡"
	case model.StatusInProgress:
		return "🔵"
	case model.StatusOnHold:
		return "⏸️"
	case model.StatusCompleted:
		return "✅"
	case model.StatusClosed:
		return "🔒"
	default:
		return "⚪"
	}
}

func StageStatusEmoji(s model.AssignmentStatus) string {
	switch s {
	case model.AssignmentAssigned:
		return "👤"
	case model.AssignmentInProgress:
		return "🔄"
	case model.AssignmentCompleted:
		return "✅"
	case model.AssignmentBlocked:
		return "⛔"
	default:
		return "⏳"
	}
}

func StageStatusLabel(s model.AssignmentStatus) string {
	switch s {
	case model.AssignmentAssigned:
		return "Ditugaskan"
	case model.AssignmentInProgress:
		return "Dikerjakan"
	case model.AssignmentCompleted:
		return "Selesai"
	case model.AssignmentBlocked:
		return "Terkendala"
	default:
		return "Belum mulai"
	}
}

func TTILabel(s model.TTIStatus) string {
	switch s {
	case model.TTIComply:
		return "✅ Comply"
	case model.TTINotComply:
		return "❌ Not Comply"
	default:
		return "⏳ Pending"
	}
}
