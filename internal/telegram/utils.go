package telegram

import (
	"context"
	"log/slog"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	cmdStart    = "/start"
	cmdHelp     = "/help"
	cmdCancel   = "/cancel"
	cmdNewOrder = "/neworder"
	cmdAssign   = "/assign"
	cmdOrders   = "/orders"
	cmdMyOrders = "/myorders"
	cmdProgress = "/progress"
	cmdEvidence = "/evidence"
)

// globalActions are callbacks that work from any step, typically buttons
// of an older message.
var globalActions = []callback.Action{
	callback.AssignOrders, callback.AssignOrder, callback.AssignStage, callback.AssignTech,
	callback.AssignAll, callback.AssignAllTo,
	callback.EvidenceOrders, callback.EvidenceOrder, callback.ProgressOrder,
	callback.ViewOrders, callback.ViewOrder,
	callback.MarkSOD, callback.MarkE2E, callback.MarkLMEStart, callback.MarkLMEEnd,
	callback.Hold, callback.Resume,
}

// command strips a "/cmd@botname" suffix and lower-cases the command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	return strings.ToLower(cmd)
}

func isCancel(ev fsm.Event) bool {
	switch ev.Kind {
	case fsm.EventText:
		return command(ev.Text) == cmdCancel || ev.Text == presentation.MenuCancel
	case fsm.EventCallback:
		return ev.Data == string(callback.Cancel)
	default:
		return false
	}
}

func isInterrupt(ev fsm.Event) bool {
	switch ev.Kind {
	case fsm.EventText:
		return command(ev.Text) != "" || slices.Contains(presentation.MenuTexts, ev.Text)
	case fsm.EventCallback:
		cb, err := callback.Parse(ev.Data)
		return err == nil && slices.Contains(globalActions, cb.Action)
	default:
		return false
	}
}

func parseIndex(raw string, values []string) (string, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(values) {
		return "", false
	}
	return values[i], true
}

func recoverMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, api *bot.Bot, update *models.Update) {
		defer func() {
			if p := recover(); p != nil {
				slog.Error("Recovered from update handler panic", "panic", p, "updateID", update.ID, "stack", string(debug.Stack()))
			}
		}()
		next(ctx, api, update)
	}
}
