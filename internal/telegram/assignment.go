package telegram

import (
	"errors"
	"log/slog"
	"strconv"

	"isp-order-bot/internal/notification"
	"isp-order-bot/internal/order"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/presentation"
	"isp-order-bot/pkg"
)

func (b *Bot) showAssignOrders(cc *idleCtx) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	orders, err := b.orderService.ActiveOrders(cc.Ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return cc.SendMessage(presentation.NoActiveOrdersMsg(), nil)
	}
	return cc.SendMessage(presentation.ChooseAssignOrderMsg(len(orders)), presentation.OrderListKbd(orders, callback.AssignOrder))
}

// loadOrder answers the chat itself when orderID does not exist.
func (b *Bot) loadOrder(cc *idleCtx, orderID string) (*model.Order, error) {
	o, err := b.orderService.GetOrder(cc.Ctx, orderID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, cc.SendMessage(presentation.OrderNotFoundMsg(orderID), nil)
	}
	return o, err
}

func (b *Bot) showStageBoard(cc *idleCtx, orderID string) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	board, err := b.assignmentService.StageBoard(cc.Ctx, orderID)
	if err != nil {
		return err
	}
	return cc.SendMessage(presentation.StageBoardMsg(*o, board), presentation.StageGridKbd(orderID, board))
}

func (b *Bot) showTechnicianPicker(cc *idleCtx, rawStage, orderID string) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	stage, ok := model.ParseStage(rawStage)
	if !ok {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), nil)
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	techs, err := b.userService.Technicians(cc.Ctx, o.STO)
	if err != nil {
		return err
	}
	if len(techs) == 0 {
		return cc.SendMessage(presentation.NoTechniciansMsg(), nil)
	}
	return cc.SendMessage(presentation.ChooseTechnicianMsg(stage, orderID), presentation.TechnicianKbd(techs, stage, orderID))
}

func (b *Bot) showBulkTechnicianPicker(cc *idleCtx, orderID string) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	techs, err := b.userService.Technicians(cc.Ctx, o.STO)
	if err != nil {
		return err
	}
	if len(techs) == 0 {
		return cc.SendMessage(presentation.NoTechniciansMsg(), nil)
	}
	return cc.SendMessage(presentation.ChooseTechnicianAllMsg(orderID), presentation.TechnicianAllKbd(techs, orderID))
}

func (b *Bot) assignStage(cc *idleCtx, rawStage, rawTech, orderID string) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	stage, ok := model.ParseStage(rawStage)
	techID, parseErr := strconv.ParseInt(rawTech, 10, 64)
	if !ok || parseErr != nil {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), nil)
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	tech, err := b.technician(cc, techID)
	if tech == nil {
		return err
	}

	if err := b.assignmentService.Assign(cc.Ctx, orderID, stage, techID); err != nil {
		return err
	}
	b.afterAssignment(cc, o, techID)
	b.notifyTechnician(cc, *tech, *o, []model.Stage{stage})

	if err := cc.SendMessage(presentation.AssignedMsg(orderID, stage, tech.Name), nil); err != nil {
		return err
	}
	return b.showStageBoard(cc, orderID)
}

func (b *Bot) assignAllStages(cc *idleCtx, rawTech, orderID string) error {
	u, err := requireRole(b, cc, model.RoleHD)
	if u == nil {
		return err
	}
	techID, err := strconv.ParseInt(rawTech, 10, 64)
	if err != nil {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), nil)
	}
	o, err := b.loadOrder(cc, orderID)
	if o == nil {
		return err
	}
	tech, err := b.technician(cc, techID)
	if tech == nil {
		return err
	}

	result := b.assignmentService.AssignAll(cc.Ctx, orderID, techID)
	if result.Succeeded > 0 {
		b.afterAssignment(cc, o, techID)
		var assigned []model.Stage
		for _, stage := range model.Stages {
			if _, failed := result.Errors[stage]; !failed {
				assigned = append(assigned, stage)
			}
		}
		b.notifyTechnician(cc, *tech, *o, assigned)
	}
	return cc.SendMessage(presentation.BulkAssignedMsg(orderID, tech.Name, result), nil)
}

// technician returns nil after replying when techID is not a registered
// technician.
func (b *Bot) technician(cc *idleCtx, techID int64) (*model.User, error) {
	tech, err := b.userService.GetUser(cc.Ctx, techID)
	if errors.Is(err, pkg.ErrNotFound) || (err == nil && tech.Role != model.RoleTechnician) {
		slog.Warn("Rejected assignment to non-technician", "userID", techID, "chatID", cc.ChatID)
		return nil, cc.SendMessage(presentation.InvalidTechnicianMsg(), nil)
	}
	if err != nil {
		return nil, err
	}
	return tech, nil
}

// afterAssignment records the latest technician on the order, starts it and
// its compliance clock. Failures are logged since the assignment itself is
// already stored.
func (b *Bot) afterAssignment(cc *idleCtx, o *model.Order, techID int64) {
	patch := order.Patch{AssignedTechnician: &techID}
	if o.Status == model.StatusPending {
		status := model.StatusInProgress
		patch.Status = &status
	}
	if err := b.orderService.UpdateOrder(cc.Ctx, o.ID, patch); err != nil {
		slog.Warn("Failed to update assigned order", "error", err, "orderID", o.ID)
	} else {
		o.AssignedTechnician = &techID
		if patch.Status != nil {
			o.Status = *patch.Status
		}
	}
	if err := b.tracker.OnAssigned(cc.Ctx, o.ID, b.now()); err != nil {
		slog.Warn("Failed to set TTI deadline", "error", err, "orderID", o.ID)
	}
}

func (b *Bot) notifyTechnician(cc *idleCtx, tech model.User, o model.Order, stages []model.Stage) {
	text := presentation.AssignmentNotificationMsg(o, stages)
	if err := b.notifier.NotifyUser(cc.Ctx, tech, o.ID, notification.KindAssignment, text); err != nil {
		slog.Warn("Technician not notified", "error", err, "orderID", o.ID, "technicianID", tech.ID)
	}
}
