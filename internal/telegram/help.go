package telegram

import (
	"log/slog"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/presentation"
)

type idleCtx = fsm.ConversationContext[fsm.StateData]

func (b *Bot) handleIdleText(cc *idleCtx) error {
	text := cc.Event.Text
	switch cmd := command(text); {
	case cmd == cmdStart:
		return b.handleStart(cc)
	case cmd == cmdHelp || text == presentation.MenuHelp:
		return b.handleHelp(cc)
	case cmd == cmdNewOrder || text == presentation.MenuCreateOrder:
		return b.startOrderCreation(cc)
	case cmd == cmdAssign || text == presentation.MenuAssign:
		return b.showAssignOrders(cc)
	case cmd == cmdOrders || text == presentation.MenuViewOrders:
		return b.showViewOrders(cc)
	case cmd == cmdMyOrders || text == presentation.MenuMyOrders:
		return b.showMyOrders(cc)
	case cmd == cmdProgress || text == presentation.MenuProgress:
		return b.showProgressOrders(cc)
	case cmd == cmdEvidence || text == presentation.MenuEvidence:
		return b.showEvidenceOrders(cc)
	default:
		return b.handleUnknown(cc)
	}
}

func (b *Bot) handleIdleCallback(cc *idleCtx) error {
	cb, err := callback.Parse(cc.Event.Data)
	if err != nil {
		slog.Warn("Unparseable callback", "error", err, "chatID", cc.ChatID)
		return cc.SendMessage(presentation.InvalidSelectionMsg(), nil)
	}

	switch cb.Action {
	case callback.Noop:
		return nil
	case callback.AssignOrders:
		return b.showAssignOrders(cc)
	case callback.AssignOrder, callback.AssignNow:
		return b.showStageBoard(cc, cb.Arg(0))
	case callback.AssignStage:
		return b.showTechnicianPicker(cc, cb.Arg(0), cb.Arg(1))
	case callback.AssignTech:
		return b.assignStage(cc, cb.Arg(0), cb.Arg(1), cb.Arg(2))
	case callback.AssignAll:
		return b.showBulkTechnicianPicker(cc, cb.Arg(0))
	case callback.AssignAllTo:
		return b.assignAllStages(cc, cb.Arg(0), cb.Arg(1))
	case callback.AssignLater:
		return cc.SendMessage(presentation.AssignLaterMsg(), nil)
	case callback.EvidenceOrders:
		return b.showEvidenceOrders(cc)
	case callback.EvidenceOrder:
		return b.startEvidence(cc, cb.Arg(0))
	case callback.ProgressOrder:
		return b.startProgress(cc, cb.Arg(0))
	case callback.ViewOrders:
		return b.showViewOrders(cc)
	case callback.ViewOrder:
		return b.showOrderDetail(cc, cb.Arg(0))
	case callback.MarkSOD:
		return b.recordMarker(cc, cb.Arg(0), model.MarkerSOD)
	case callback.MarkE2E:
		return b.recordMarker(cc, cb.Arg(0), model.MarkerE2E)
	case callback.MarkLMEStart:
		return b.recordMarker(cc, cb.Arg(0), model.MarkerLMEPT2Start)
	case callback.MarkLMEEnd:
		return b.recordMarker(cc, cb.Arg(0), model.MarkerLMEPT2End)
	case callback.Hold:
		return b.changeStatus(cc, cb.Arg(0), model.StatusOnHold)
	case callback.Resume:
		return b.changeStatus(cc, cb.Arg(0), model.StatusInProgress)
	default:
		return cc.SendMessage(presentation.InvalidSelectionMsg(), nil)
	}
}

func (b *Bot) handleStart(cc *idleCtx) error {
	u, err := b.userService.FindByTelegramID(cc.Ctx, cc.UserID)
	if err != nil {
		return err
	}
	if u != nil {
		return cc.SendMessage(presentation.WelcomeBackMsg(*u), presentation.RoleMenuKbd(u.Role))
	}
	if err := cc.Transition(fsm.StepRegistrationName, &fsm.RegistrationData{}); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskRegistrationNameMsg(), nil)
}

func (b *Bot) handleHelp(cc *idleCtx) error {
	u, err := b.userService.FindByTelegramID(cc.Ctx, cc.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return cc.SendMessage(presentation.HelpMsg(""), nil)
	}
	return cc.SendMessage(presentation.HelpMsg(u.Role), presentation.RoleMenuKbd(u.Role))
}

func (b *Bot) showMyOrders(cc *idleCtx) error {
	u, err := requireRole(b, cc, model.RoleTechnician)
	if u == nil {
		return err
	}
	orders, err := b.orderService.TechnicianOrders(cc.Ctx, u.ID)
	if err != nil {
		return err
	}
	assignments, err := b.assignmentService.TechnicianAssignments(cc.Ctx, u.ID)
	if err != nil {
		return err
	}
	return cc.SendMessage(presentation.MyOrdersMsg(orders, assignments), nil)
}
