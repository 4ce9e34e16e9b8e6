package presentation

import (
	"fmt"
	"strconv"
	"strings"

	"isp-order-bot/internal/assignment"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"

	"github.com/go-telegram/bot/models"
)

const (
	MenuCreateOrder    = "📝 Buat Order"
	MenuAssign         = "👷 Assign Teknisi"
	MenuViewOrders     = "📋 Lihat Order"
	MenuMyOrders       = "📋 Order Saya"
	MenuProgress       = "📈 Update Progress"
	MenuEvidence       = "📸 Upload Evidence"
	MenuHelp           = "❓ Bantuan"
	MenuCancel         = "❌ Batal"
	stoButtonsPerRow   = 4
	orderButtonsLimit  = 30
	backToOrdersButton = "⬅️ Kembali"
)

// MenuTexts are the reply-keyboard labels that start a flow.
var MenuTexts = []string{
	MenuCreateOrder, MenuAssign, MenuViewOrders, MenuMyOrders,
	MenuProgress, MenuEvidence, MenuHelp, MenuCancel,
}

// maxTechIDDigits is the technician id width reserved in assignment buttons.
const maxTechIDDigits = 10

// MaxOrderIDLen is the longest order id, in bytes, whose buttons stay
// within callback.MaxLen. The technician picker carries the longest payload.
var MaxOrderIDLen = callback.MaxLen - len(callback.Data(callback.AssignTech, string(longestStage()), strings.Repeat("9", maxTechIDDigits), ""))

func longestStage() model.Stage {
	var longest model.Stage
	for _, stage := range model.Stages {
		if len(stage) > len(longest) {
			longest = stage
		}
	}
	return longest
}

func button(text string, action callback.Action, args ...string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callback.Data(action, args...)}
}

func cancelRow() []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{button(MenuCancel, callback.Cancel)}
}

func RoleMenuKbd(role model.Role) *models.ReplyKeyboardMarkup {
	var rows [][]models.KeyboardButton
	switch role {
	case model.RoleHD:
		rows = [][]models.KeyboardButton{
			{{Text: MenuCreateOrder}, {Text: MenuAssign}},
			{{Text: MenuViewOrders}, {Text: MenuHelp}},
		}
	default:
		rows = [][]models.KeyboardButton{
			{{Text: MenuMyOrders}, {Text: MenuProgress}},
			{{Text: MenuEvidence}, {Text: MenuHelp}},
		}
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

func RoleChoiceKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("🎧 HD (Helpdesk)", callback.Role, string(model.RoleHD))},
			{button("🔧 Teknisi", callback.Role, string(model.RoleTechnician))},
		},
	}
}

func CancelKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{cancelRow()},
	}
}

func STOKbd() *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	var row []models.InlineKeyboardButton
	for _, code := range model.STOCodes {
		row = append(row, button(code, callback.STO, code))
		if len(row) == stoButtonsPerRow {
			keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, row)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, cancelRow())
	return keyboard
}

func TransactionTypeKbd() *models.InlineKeyboardMarkup {
	return indexedKbd(model.TransactionTypes, callback.Transaction)
}

func ServiceTypeKbd() *models.InlineKeyboardMarkup {
	return indexedKbd(model.ServiceTypes, callback.Service)
}

func indexedKbd(values []string, action callback.Action) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for i, v := range values {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button(v, action, strconv.Itoa(i))})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, cancelRow())
	return keyboard
}

func AssignChoiceKbd(orderID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("👷 Assign sekarang", callback.AssignNow, orderID)},
			{button("⏭️ Nanti saja", callback.AssignLater)},
		},
	}
}

// OrderListKbd lists orders, one button each, wired to action.
func OrderListKbd(orders []model.Order, action callback.Action) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for i, o := range orders {
		if i == orderButtonsLimit {
			break
		}
		label := fmt.Sprintf("%s %s", StatusEmoji(o.Status), o.ID)
		if o.CustomerName != "" {
			label += " · " + o.CustomerName
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button(label, action, o.ID)})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, cancelRow())
	return keyboard
}

func StageGridKbd(orderID string, board []assignment.StageView) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for _, view := range board {
		label := fmt.Sprintf("%s %s", StageStatusEmoji(view.Status), view.Stage.Label())
		if view.TechnicianName != "" {
			label += " · " + view.TechnicianName
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button(label, callback.AssignStage, string(view.Stage), orderID)})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		[]models.InlineKeyboardButton{button("👥 Assign semua tahap", callback.AssignAll, orderID)},
		[]models.InlineKeyboardButton{button(backToOrdersButton, callback.AssignOrders)},
	)
	return keyboard
}

func TechnicianKbd(technicians []model.User, stage model.Stage, orderID string) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for _, tech := range technicians {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			button("🔧 "+tech.Name, callback.AssignTech, string(stage), strconv.FormatInt(tech.ID, 10), orderID),
		})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		[]models.InlineKeyboardButton{button(backToOrdersButton, callback.AssignOrder, orderID)})
	return keyboard
}

func TechnicianAllKbd(technicians []model.User, orderID string) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for _, tech := range technicians {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			button("🔧 "+tech.Name, callback.AssignAllTo, strconv.FormatInt(tech.ID, 10), orderID),
		})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		[]models.InlineKeyboardButton{button(backToOrdersButton, callback.AssignOrder, orderID)})
	return keyboard
}

func ProgressStageKbd(stages []model.Stage) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for _, stage := range stages {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button("📍 "+stage.Label(), callback.ProgressStage, string(stage))})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, cancelRow())
	return keyboard
}

func ProgressStatusKbd() *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{}
	for _, status := range model.ProgressStatuses {
		label := StageStatusEmoji(status) + " " + StageStatusLabel(status)
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button(label, callback.ProgressStatus, string(status))})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, cancelRow())
	return keyboard
}

func SkipNoteKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("⏩ Lewati catatan", callback.ProgressSkip)},
			cancelRow(),
		},
	}
}

func OrderDetailKbd(order model.Order) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("🕐 Set SOD", callback.MarkSOD, order.ID), button("🏁 Set E2E", callback.MarkE2E, order.ID)},
			{button("▶️ LME-PT2 Mulai", callback.MarkLMEStart, order.ID), button("⏹️ LME-PT2 Selesai", callback.MarkLMEEnd, order.ID)},
		},
	}
	switch order.Status {
	case model.StatusOnHold:
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button("▶️ Lanjutkan order", callback.Resume, order.ID)})
	case model.StatusPending, model.StatusInProgress:
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			[]models.InlineKeyboardButton{button("⏸️ Tahan order", callback.Hold, order.ID)})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		[]models.InlineKeyboardButton{button(backToOrdersButton, callback.ViewOrders)})
	return keyboard
}
