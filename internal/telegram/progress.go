package telegram

import (
	"log/slog"
	"slices"
	"strings"

	"isp-order-bot/internal/notification"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/callback"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/presentation"
)

type progressCtx = fsm.ConversationContext[*fsm.ProgressData]

func (b *Bot) registerProgress() {
	fsm.Chain[*fsm.ProgressData](b.router, "progress_update", fsm.StepAwaitingProgressStage).
		OnCallback(b.handleProgressStage).
		Then(fsm.StepAwaitingProgressStatus).
		OnCallback(b.handleProgressStatus).
		Then(fsm.StepAwaitingProgressNote).
		OnText(b.saveProgress).
		OnCallback(func(cc *progressCtx, data string) error {
			if data != callback.Data(callback.ProgressSkip) {
				return cc.SendMessage(presentation.InvalidSelectionMsg(), presentation.SkipNoteKbd())
			}
			return b.saveProgress(cc, "")
		})
}

func (b *Bot) showProgressOrders(cc *idleCtx) error {
	u, err := requireRole(b, cc, model.RoleTechnician)
	if u == nil {
		return err
	}
	orders, err := b.orderService.TechnicianOrders(cc.Ctx, u.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return cc.SendMessage(presentation.NoAssignedOrdersMsg(), nil)
	}
	return cc.SendMessage(presentation.ChooseProgressOrderMsg(), presentation.OrderListKbd(orders, callback.ProgressOrder))
}

// technicianStages lists the stages of orderID assigned to technicianID,
// in workflow order.
func (b *Bot) technicianStages(cc *idleCtx, technicianID int64, orderID string) ([]model.Stage, error) {
	assignments, err := b.assignmentService.TechnicianAssignments(cc.Ctx, technicianID)
	if err != nil {
		return nil, err
	}
	var stages []model.Stage
	for _, stage := range model.Stages {
		for _, a := range assignments {
			if a.OrderID == orderID && a.Stage == stage {
				stages = append(stages, stage)
				break
			}
		}
	}
	return stages, nil
}

func (b *Bot) startProgress(cc *idleCtx, orderID string) error {
	u, err := requireRole(b, cc, model.RoleTechnician)
	if u == nil {
		return err
	}
	stages, err := b.technicianStages(cc, u.ID, orderID)
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		return cc.SendMessage(presentation.NoAssignedStagesMsg(orderID), nil)
	}
	if err := cc.Transition(fsm.StepAwaitingProgressStage, &fsm.ProgressData{OrderID: orderID}); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskProgressStageMsg(orderID), presentation.ProgressStageKbd(stages))
}

func (b *Bot) handleProgressStage(cc *progressCtx, data string) error {
	stage, ok := model.ParseStage(callbackArg(data, callback.ProgressStage))
	if !ok {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), nil)
	}
	cc.Data.Stage = stage
	if err := cc.Transition(fsm.StepAwaitingProgressStatus, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskProgressStatusMsg(stage), presentation.ProgressStatusKbd())
}

func (b *Bot) handleProgressStatus(cc *progressCtx, data string) error {
	status, ok := model.ParseAssignmentStatus(callbackArg(data, callback.ProgressStatus))
	if !ok || !slices.Contains(model.ProgressStatuses, status) {
		return cc.SendMessage(presentation.InvalidSelectionMsg(), presentation.ProgressStatusKbd())
	}
	cc.Data.Status = status
	if err := cc.Transition(fsm.StepAwaitingProgressNote, cc.Data); err != nil {
		return err
	}
	return cc.SendMessage(presentation.AskProgressNoteMsg(), presentation.SkipNoteKbd())
}

func (b *Bot) saveProgress(cc *progressCtx, note string) error {
	u, err := requireRole(b, cc, model.RoleTechnician)
	if u == nil {
		return err
	}
	progress := model.Progress{
		OrderID:   cc.Data.OrderID,
		Stage:     cc.Data.Stage,
		Status:    cc.Data.Status,
		Note:      strings.TrimSpace(note),
		UpdatedBy: u.ID,
		CreatedAt: b.now(),
	}
	if err := b.assignmentService.RecordProgress(cc.Ctx, progress); err != nil {
		return err
	}
	if err := cc.Complete(); err != nil {
		return err
	}
	if err := cc.SendMessage(presentation.ProgressSavedMsg(progress), presentation.RoleMenuKbd(u.Role)); err != nil {
		return err
	}

	text := presentation.ProgressNotificationMsg(progress, u.Name)
	if _, err := b.notifier.NotifyRole(cc.Ctx, model.RoleHD, progress.OrderID, notification.KindProgress, text); err != nil {
		slog.Warn("Helpdesk not notified of progress", "error", err, "orderID", progress.OrderID)
	}
	return nil
}
